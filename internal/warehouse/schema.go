//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse loads dimension tables of the portfolio warehouse.
package warehouse

import (
	"context"

	"github.com/pkg/errors"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
)

// Schema SQL for creating the warehouse star schema.
const createSchemaSQL = `
CREATE SCHEMA IF NOT EXISTS dw;

-- Asset: tradable instruments
CREATE TABLE IF NOT EXISTS dw.dim_asset (
    asset_key   SERIAL PRIMARY KEY,
    ticker      VARCHAR(16) NOT NULL UNIQUE,
    asset_class VARCHAR(16) NOT NULL CHECK (asset_class IN ('Equity', 'Bonds', 'Cash'))
);

-- Risk Profile: strategic target allocation per profile
CREATE TABLE IF NOT EXISTS dw.dim_risk_profile (
    risk_profile_key     SERIAL PRIMARY KEY,
    risk_profile_name    VARCHAR(32) NOT NULL UNIQUE,
    target_equity_weight NUMERIC(5,4) NOT NULL,
    target_bonds_weight  NUMERIC(5,4) NOT NULL,
    target_cash_weight   NUMERIC(5,4) NOT NULL,
    CHECK (target_equity_weight + target_bonds_weight + target_cash_weight = 1)
);

-- Portfolio: client portfolios
CREATE TABLE IF NOT EXISTS dw.dim_portfolio (
    portfolio_key     SERIAL PRIMARY KEY,
    portfolio_id      VARCHAR(16) NOT NULL UNIQUE,
    portfolio_name    VARCHAR(100) NOT NULL,
    advisor_name      VARCHAR(100) NOT NULL,
    risk_profile_name VARCHAR(32),
    base_currency     CHAR(3) NOT NULL,
    created_at        TIMESTAMP,
    loaded_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Date: one row per calendar day
CREATE TABLE IF NOT EXISTS dw.dim_date (
    date_key    INTEGER PRIMARY KEY,
    date        DATE NOT NULL UNIQUE,
    year        SMALLINT NOT NULL,
    quarter     SMALLINT NOT NULL CHECK (quarter BETWEEN 1 AND 4),
    month       SMALLINT NOT NULL CHECK (month BETWEEN 1 AND 12),
    day         SMALLINT NOT NULL CHECK (day BETWEEN 1 AND 31),
    day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
    is_weekend  BOOLEAN NOT NULL
);

-- ETL Run Audit: one row per audited unit of work
CREATE TABLE IF NOT EXISTS dw.etl_run_audit (
    etl_run_id        BIGSERIAL PRIMARY KEY,
    run_name          VARCHAR(64),
    status            VARCHAR(16) NOT NULL CHECK (status IN ('RUNNING', 'SUCCESS', 'FAIL')),
    run_start_ts      TIMESTAMPTZ NOT NULL DEFAULT now(),
    run_end_ts        TIMESTAMPTZ,
    records_extracted BIGINT,
    records_loaded    BIGINT,
    error_message     TEXT
);

CREATE INDEX IF NOT EXISTS idx_dim_portfolio_risk_profile ON dw.dim_portfolio(risk_profile_name);
CREATE INDEX IF NOT EXISTS idx_etl_run_audit_status ON dw.etl_run_audit(status, run_start_ts);
`

// Drop schema SQL
const dropSchemaSQL = `
DROP TABLE IF EXISTS dw.etl_run_audit CASCADE;
DROP TABLE IF EXISTS dw.dim_date CASCADE;
DROP TABLE IF EXISTS dw.dim_portfolio CASCADE;
DROP TABLE IF EXISTS dw.dim_risk_profile CASCADE;
DROP TABLE IF EXISTS dw.dim_asset CASCADE;
`

// CreateSchema creates the warehouse schema and tables if they do not exist.
func CreateSchema(ctx context.Context, conn db.DB) error {
	if _, err := conn.Exec(ctx, createSchemaSQL); err != nil {
		return errors.Wrap(err, "creating warehouse schema")
	}
	return nil
}

// DropSchema drops the warehouse tables.
func DropSchema(ctx context.Context, conn db.DB) error {
	if _, err := conn.Exec(ctx, dropSchemaSQL); err != nil {
		return errors.Wrap(err, "dropping warehouse schema")
	}
	return nil
}
