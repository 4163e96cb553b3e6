package portfolio

import "github.com/shopspring/decimal"

var equityTickers = []string{
	"AAPL", "MSFT", "AMZN", "GOOGL", "NVDA", "META", "JPM", "V", "UNH", "HD",
	"COST", "PEP", "KO", "TMO", "CRM", "ADBE", "NFLX", "ORCL", "INTC", "CSCO",
}

var bondTickers = []string{"IEF", "TLT", "AGG", "BND", "LQD", "HYG"}

// MaxHoldings is the most holdings a portfolio can carry without cash:
// every equity and every bond ETF.
var MaxHoldings = len(equityTickers) + len(bondTickers)

// CashTicker is the single cash instrument. Its price is always 1.
const CashTicker = "CASH"

// BuildAssetUniverse returns the fixed asset universe: equities, then bond
// ETFs, then cash.
func BuildAssetUniverse() []Asset {
	assets := make([]Asset, 0, len(equityTickers)+len(bondTickers)+1)
	for _, t := range equityTickers {
		assets = append(assets, Asset{Ticker: t, Class: Equity})
	}
	for _, t := range bondTickers {
		assets = append(assets, Asset{Ticker: t, Class: Bonds})
	}
	return append(assets, Asset{Ticker: CashTicker, Class: Cash})
}

// TickersByClass groups tickers by asset class, keeping universe order.
func TickersByClass(assets []Asset) map[AssetClass][]string {
	out := make(map[AssetClass][]string, 3)
	for _, a := range assets {
		out[a.Class] = append(out[a.Class], a.Ticker)
	}
	return out
}

// TargetAllocations returns the strategic mix of each risk profile.
func TargetAllocations() []TargetAllocation {
	return []TargetAllocation{
		{RiskProfile: Conservative, Equity: weight("0.35"), Bonds: weight("0.55"), Cash: weight("0.10")},
		{RiskProfile: Moderate, Equity: weight("0.60"), Bonds: weight("0.35"), Cash: weight("0.05")},
		{RiskProfile: Aggressive, Equity: weight("0.80"), Bonds: weight("0.15"), Cash: weight("0.05")},
	}
}

func weight(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
