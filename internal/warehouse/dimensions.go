package warehouse

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/flatfile"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/portfolio"
)

// createdAtLayouts are accepted for portfolios_raw.csv created_at.
var createdAtLayouts = []string{time.DateTime, time.RFC3339, time.DateOnly}

func init() {
	Register(&Dimension{
		Name:        "asset",
		Description: "Asset universe (equities, bond ETFs, cash)",
		File:        portfolio.AssetsFile,
		Table:       "dw.dim_asset",
		Key:         "ticker",
		Columns:     []string{"ticker", "asset_class"},
		Required:    portfolio.AssetsHeader,
		Args:        assetArgs,
	})
	Register(&Dimension{
		Name:        "risk_profile",
		Description: "Risk profiles with their target allocation",
		File:        portfolio.AllocationsFile,
		Table:       "dw.dim_risk_profile",
		Key:         "risk_profile_name",
		Columns:     portfolio.AllocationsHeader,
		Required:    portfolio.AllocationsHeader,
		Args:        riskProfileArgs,
	})
	Register(&Dimension{
		Name:        "portfolio",
		Description: "Client portfolios",
		File:        portfolio.PortfoliosFile,
		Table:       "dw.dim_portfolio",
		Key:         "portfolio_id",
		Columns: []string{
			"portfolio_id", "portfolio_name", "advisor_name",
			"risk_profile_name", "base_currency", "created_at",
		},
		Required: []string{"portfolio_id", "portfolio_name", "advisor_name", "base_currency"},
		Args:     portfolioArgs,
	})
}

func assetArgs(rec flatfile.Record) ([]any, error) {
	ticker, err := required(rec, "ticker")
	if err != nil {
		return nil, err
	}
	class := portfolio.AssetClass(rec.Get("asset_class"))
	switch class {
	case portfolio.Equity, portfolio.Bonds, portfolio.Cash:
	default:
		return nil, errors.Errorf("unknown asset_class %q", class)
	}
	return []any{ticker, string(class)}, nil
}

func riskProfileArgs(rec flatfile.Record) ([]any, error) {
	name, err := required(rec, "risk_profile_name")
	if err != nil {
		return nil, err
	}

	args := []any{name}
	sum := decimal.Zero
	for _, col := range portfolio.AllocationsHeader[1:] {
		w, err := decimal.NewFromString(strings.TrimSpace(rec.Get(col)))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", col)
		}
		if w.IsNegative() {
			return nil, errors.Errorf("%s is negative", col)
		}
		sum = sum.Add(w)
		args = append(args, w.String())
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return nil, errors.Errorf("weights of %s sum to %s, want 1", name, sum)
	}
	return args, nil
}

func portfolioArgs(rec flatfile.Record) ([]any, error) {
	args := make([]any, 0, 6)
	for _, col := range []string{"portfolio_id", "portfolio_name", "advisor_name"} {
		v, err := required(rec, col)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	var riskProfile *string
	if v := strings.TrimSpace(rec.Get("risk_profile_name")); v != "" {
		riskProfile = &v
	}

	currency, err := required(rec, "base_currency")
	if err != nil {
		return nil, err
	}

	var createdAt *time.Time
	if v := strings.TrimSpace(rec.Get("created_at")); v != "" {
		t, err := parseCreatedAt(v)
		if err != nil {
			return nil, err
		}
		createdAt = &t
	}

	return append(args, riskProfile, currency, createdAt), nil
}

func parseCreatedAt(v string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unparseable created_at %q", v)
}

func required(rec flatfile.Record, col string) (string, error) {
	v := strings.TrimSpace(rec.Get(col))
	if v == "" {
		return "", errors.Errorf("%s is empty", col)
	}
	return v, nil
}
