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
	"path/filepath"
	"time"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/datagen"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/flatfile"
)

// Flat file names written by WriteDataset.
const (
	AssetsFile      = "assets_universe.csv"
	PortfoliosFile  = "portfolios_raw.csv"
	HoldingsFile    = "holdings_raw.csv"
	PricesFile      = "prices_raw.csv"
	AllocationsFile = "target_allocations.csv"
)

// Flat file headers.
var (
	AssetsHeader      = []string{"ticker", "asset_class"}
	PortfoliosHeader  = []string{"portfolio_id", "portfolio_name", "advisor_name", "risk_profile_name", "base_currency", "created_at"}
	HoldingsHeader    = []string{"portfolio_id", "ticker", "asset_class", "quantity"}
	PricesHeader      = []string{"date", "ticker", "close_price"}
	AllocationsHeader = []string{"risk_profile_name", "target_equity_weight", "target_bonds_weight", "target_cash_weight"}
)

// Record returns the asset as a flat file row.
func (a Asset) Record() []string {
	return []string{a.Ticker, string(a.Class)}
}

// Record returns the portfolio as a flat file row.
func (p Portfolio) Record() []string {
	return []string{p.ID, p.Name, p.Advisor, p.RiskProfile, p.BaseCurrency, p.CreatedAt.Format(createdAtLayout)}
}

// Record returns the holding as a flat file row. Cash is written with
// cents, share counts as integers.
func (h Holding) Record() []string {
	qty := h.Quantity.String()
	if h.Class == Cash {
		qty = h.Quantity.StringFixed(cashPrecision)
	}
	return []string{h.PortfolioID, h.Ticker, string(h.Class), qty}
}

// Record returns the price as a flat file row.
func (p Price) Record() []string {
	return []string{p.Date.Format(time.DateOnly), p.Ticker, p.Close.StringFixed(pricePrecision)}
}

// Record returns the allocation as a flat file row.
func (t TargetAllocation) Record() []string {
	return []string{t.RiskProfile, t.Equity.StringFixed(2), t.Bonds.StringFixed(2), t.Cash.StringFixed(2)}
}

type recorder interface {
	Record() []string
}

// FileStat reports one written flat file.
type FileStat struct {
	Name string
	Path string
	Rows int64
}

// WriteDataset writes every table of ds into dir and returns one FileStat
// per file, in write order.
func WriteDataset(dir string, ds *Dataset) ([]FileStat, error) {
	var stats []FileStat
	add := func(name string, header []string, rows []recorder) error {
		st, err := writeFile(filepath.Join(dir, name), header, rows)
		if err != nil {
			return err
		}
		stats = append(stats, st)
		return nil
	}

	if err := add(AssetsFile, AssetsHeader, records(ds.Assets)); err != nil {
		return nil, err
	}
	if err := add(PortfoliosFile, PortfoliosHeader, records(ds.Portfolios)); err != nil {
		return nil, err
	}
	if err := add(HoldingsFile, HoldingsHeader, records(ds.Holdings)); err != nil {
		return nil, err
	}
	if err := add(PricesFile, PricesHeader, records(ds.Prices)); err != nil {
		return nil, err
	}
	if err := add(AllocationsFile, AllocationsHeader, records(ds.Allocations)); err != nil {
		return nil, err
	}
	return stats, nil
}

func records[T recorder](items []T) []recorder {
	out := make([]recorder, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func writeFile(path string, header []string, rows []recorder) (FileStat, error) {
	name := filepath.Base(path)
	w, err := flatfile.Create(path, header)
	if err != nil {
		return FileStat{}, err
	}

	progress := datagen.NewProgressReporter(name, int64(len(rows)), datagen.DefaultBatchConfig().ProgressInterval)
	for _, r := range rows {
		if err := w.Write(r.Record()); err != nil {
			w.Abort()
			return FileStat{}, err
		}
		progress.Update(1)
	}
	if err := w.Close(); err != nil {
		return FileStat{}, err
	}
	progress.Done()

	return FileStat{Name: name, Path: w.Path(), Rows: w.Rows()}, nil
}
