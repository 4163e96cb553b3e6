//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package portfolio synthesizes the portfolio-management dataset: the
// asset universe, client portfolios, their holdings, daily prices and the
// target allocation of each risk profile.
package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass partitions the asset universe.
type AssetClass string

// Asset classes.
const (
	Equity AssetClass = "Equity"
	Bonds  AssetClass = "Bonds"
	Cash   AssetClass = "Cash"
)

// Daily drift and volatility of the price walk.
const (
	priceDrift      = 0.0002
	equityVol       = 0.012
	bondVol         = 0.004
	priceFloor      = 0.5
	pricePrecision  = 4
	cashPrecision   = 2
	createdAtLayout = "2006-01-02 15:04:05"
)

// Volatility returns the daily standard deviation of price shocks.
func (c AssetClass) Volatility() float64 {
	switch c {
	case Equity:
		return equityVol
	case Bonds:
		return bondVol
	default:
		return 0
	}
}

// Risk profile names.
const (
	Conservative = "Conservative"
	Moderate     = "Moderate"
	Aggressive   = "Aggressive"
)

// RiskProfiles lists the risk profiles in display order.
var RiskProfiles = []string{Conservative, Moderate, Aggressive}

// riskProfileWeights are the draw weights of RiskProfiles.
var riskProfileWeights = []int{30, 50, 20}

// BaseCurrency is the currency of every generated portfolio.
const BaseCurrency = "USD"

// Asset is one tradable instrument.
type Asset struct {
	Ticker string
	Class  AssetClass
}

// Portfolio is one client portfolio.
type Portfolio struct {
	ID           string
	Name         string
	Advisor      string
	RiskProfile  string
	BaseCurrency string
	CreatedAt    time.Time
}

// Holding is a position of a portfolio in one asset.
type Holding struct {
	PortfolioID string
	Ticker      string
	Class       AssetClass
	Quantity    decimal.Decimal
}

// Price is the close price of one ticker on one day.
type Price struct {
	Date   time.Time
	Ticker string
	Close  decimal.Decimal
}

// TargetAllocation is the strategic asset mix of a risk profile.
type TargetAllocation struct {
	RiskProfile string
	Equity      decimal.Decimal
	Bonds       decimal.Decimal
	Cash        decimal.Decimal
}

// Sum returns the total of the three weights.
func (t TargetAllocation) Sum() decimal.Decimal {
	return t.Equity.Add(t.Bonds).Add(t.Cash)
}

// Dataset is one complete generated dataset.
type Dataset struct {
	Assets      []Asset
	Portfolios  []Portfolio
	Holdings    []Holding
	Prices      []Price
	Allocations []TargetAllocation
}
