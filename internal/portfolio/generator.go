//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package portfolio

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/datagen"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
)

// advisorCount is the size of the advisor pool.
const advisorCount = 25

// Options configures a Generator.
type Options struct {
	Seed        uint64
	Portfolios  int
	StartDate   time.Time
	EndDate     time.Time
	HoldingsMin int
	HoldingsMax int
}

// Validate checks the options describe a dataset that can be generated.
func (o Options) Validate() error {
	if o.Portfolios < 1 {
		return errors.New("at least one portfolio is required")
	}
	if o.HoldingsMin < 2 {
		return errors.Errorf("holdings minimum %d cannot hold both an equity and a bond", o.HoldingsMin)
	}
	if o.HoldingsMax < o.HoldingsMin {
		return errors.Errorf("holdings maximum %d is below minimum %d", o.HoldingsMax, o.HoldingsMin)
	}
	if o.HoldingsMax > MaxHoldings {
		return errors.Errorf("holdings maximum %d exceeds the %d non-cash assets in the universe", o.HoldingsMax, MaxHoldings)
	}
	if o.EndDate.Before(o.StartDate) {
		return errors.New("end date is before start date")
	}
	return nil
}

// Generator draws every table from one seeded Faker, so the same Options
// always produce the same Dataset.
type Generator struct {
	faker *datagen.Faker
	opts  Options
}

// NewGenerator creates a generator seeded from opts.Seed.
func NewGenerator(opts Options) *Generator {
	return NewGeneratorWithFaker(datagen.NewFakerWithSeed(opts.Seed), opts)
}

// NewGeneratorWithFaker creates a generator drawing from f.
func NewGeneratorWithFaker(f *datagen.Faker, opts Options) *Generator {
	return &Generator{faker: f, opts: opts}
}

// Generate builds a complete dataset. Tables are drawn in a fixed order:
// portfolios, holdings, then prices.
func Generate(opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g := NewGenerator(opts)

	logging.Info().
		Uint64("seed", opts.Seed).
		Int("portfolios", opts.Portfolios).
		Str("start_date", opts.StartDate.Format(time.DateOnly)).
		Str("end_date", opts.EndDate.Format(time.DateOnly)).
		Msg("Generating portfolio dataset")

	ds := &Dataset{
		Assets:      BuildAssetUniverse(),
		Allocations: TargetAllocations(),
	}
	ds.Portfolios = g.GeneratePortfolios(opts.Portfolios)
	ds.Holdings = g.GenerateHoldings(ds.Portfolios, ds.Assets)
	ds.Prices = g.GeneratePrices(ds.Assets)

	return ds, nil
}

// GeneratePortfolios returns n portfolios with sequential ids P00001...
func (g *Generator) GeneratePortfolios(n int) []Portfolio {
	advisors := make([]string, advisorCount)
	for i := range advisors {
		advisors[i] = fmt.Sprintf("Advisor_%02d", i+1)
	}

	// created_at falls anywhere on or before the last day of the range
	createdFrom := dayStart(g.opts.StartDate)
	createdTo := dayStart(g.opts.EndDate).AddDate(0, 0, 1)

	portfolios := make([]Portfolio, n)
	for i := range portfolios {
		portfolios[i] = Portfolio{
			ID:           fmt.Sprintf("P%05d", i+1),
			Name:         fmt.Sprintf("Client Portfolio %05d", i+1),
			Advisor:      datagen.Choose(g.faker, advisors),
			RiskProfile:  datagen.ChooseWeighted(g.faker, RiskProfiles, riskProfileWeights),
			BaseCurrency: BaseCurrency,
			CreatedAt:    g.faker.Date(createdFrom, createdTo).UTC().Truncate(time.Second),
		}
	}
	return portfolios
}

// GenerateHoldings draws the positions of every portfolio. Each portfolio
// holds at least one equity and at least one bond, and never holds the
// same ticker twice.
func (g *Generator) GenerateHoldings(portfolios []Portfolio, assets []Asset) []Holding {
	byClass := TickersByClass(assets)
	classOf := make(map[string]AssetClass, len(assets))
	for _, a := range assets {
		classOf[a.Ticker] = a.Class
	}

	holdings := make([]Holding, 0, len(portfolios)*(g.opts.HoldingsMax+1))
	for _, p := range portfolios {
		n := g.faker.Int(g.opts.HoldingsMin, g.opts.HoldingsMax)
		equityCount := max(1, int(float64(n)*0.6))
		bondCount := max(1, int(float64(n)*0.3))
		includeCash := g.faker.Chance(0.7)

		tickers := datagen.Sample(g.faker, byClass[Equity], equityCount)
		tickers = append(tickers, datagen.Sample(g.faker, byClass[Bonds], bondCount)...)
		if includeCash && len(byClass[Cash]) > 0 {
			tickers = append(tickers, byClass[Cash][0])
		}

		// Top up with equities not already held
		if len(tickers) < n {
			var unused []string
			for _, t := range byClass[Equity] {
				if !slices.Contains(tickers, t) {
					unused = append(unused, t)
				}
			}
			tickers = append(tickers, datagen.Sample(g.faker, unused, n-len(tickers))...)
		}

		for _, t := range tickers {
			class := classOf[t]
			holdings = append(holdings, Holding{
				PortfolioID: p.ID,
				Ticker:      t,
				Class:       class,
				Quantity:    g.quantity(class),
			})
		}
	}
	return holdings
}

func (g *Generator) quantity(class AssetClass) decimal.Decimal {
	switch class {
	case Equity:
		return decimal.NewFromInt(int64(g.faker.Float64(5, 80)))
	case Bonds:
		return decimal.NewFromInt(int64(g.faker.Float64(10, 200)))
	default:
		return decimal.NewFromFloat(g.faker.Float64(500, 20000)).Round(cashPrecision)
	}
}

// GeneratePrices walks every ticker through each day of the configured
// range. Prices never fall below 0.5 and cash is always 1.
func (g *Generator) GeneratePrices(assets []Asset) []Price {
	current := make([]float64, len(assets))
	for i, a := range assets {
		switch a.Class {
		case Equity:
			current[i] = g.faker.Float64(50, 400)
		case Bonds:
			current[i] = g.faker.Float64(80, 140)
		default:
			current[i] = 1
		}
	}

	start := dayStart(g.opts.StartDate)
	end := dayStart(g.opts.EndDate)
	days := int(end.Sub(start).Hours()/24) + 1

	one := decimal.NewFromInt(1)
	prices := make([]Price, 0, days*len(assets))
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for i, a := range assets {
			closePrice := one
			if a.Class != Cash {
				shock := g.faker.Normal(priceDrift, a.Class.Volatility())
				current[i] = math.Max(priceFloor, current[i]*(1+shock))
				closePrice = decimal.NewFromFloat(current[i]).Round(pricePrecision)
			}
			prices = append(prices, Price{Date: d, Ticker: a.Ticker, Close: closePrice})
		}
	}
	return prices
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
