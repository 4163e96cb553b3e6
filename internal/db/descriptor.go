//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/xo/dburl"
)

// Authentication modes for a Descriptor.
const (
	// AuthTrusted sends no password; the server authenticates the OS user
	// (peer, trust, certificates or a pgpass entry).
	AuthTrusted = "trusted"

	// AuthPassword sends User and Password.
	AuthPassword = "password"
)

// Descriptor describes a warehouse connection field by field.
type Descriptor struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	AuthMode string `mapstructure:"auth_mode"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Validate checks the descriptor is complete for its auth mode.
func (d Descriptor) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("warehouse host is required")
	}
	if d.Database == "" {
		return fmt.Errorf("warehouse database is required")
	}
	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("warehouse port %d is out of range", d.Port)
	}
	switch d.AuthMode {
	case AuthTrusted, "":
	case AuthPassword:
		if d.User == "" {
			return fmt.Errorf("warehouse user is required for password authentication")
		}
		if d.Password == "" {
			return fmt.Errorf("warehouse password is required for password authentication")
		}
	default:
		return fmt.Errorf("unknown warehouse auth_mode %q (want %s or %s)",
			d.AuthMode, AuthTrusted, AuthPassword)
	}
	return nil
}

// URL assembles a postgres:// URL from the descriptor.
func (d Descriptor) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host,
		Path:   "/" + d.Database,
	}
	if d.Port > 0 {
		u.Host = d.Host + ":" + strconv.Itoa(d.Port)
	}
	switch {
	case d.AuthMode == AuthPassword:
		u.User = url.UserPassword(d.User, d.Password)
	case d.User != "":
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// ConnString validates the descriptor and returns a connection string
// suitable for pgx.
func (d Descriptor) ConnString() (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return NormalizeConnString(d.URL())
}

// NormalizeConnString accepts a PostgreSQL URL under any scheme alias
// understood by dburl (pg://, postgresql://, pgsql://) or a key=value DSN
// and returns a connection string pgx can parse.
func NormalizeConnString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("connection string is empty")
	}
	if !strings.Contains(s, "://") {
		// key=value DSN, already understood by pgx
		return s, nil
	}
	u, err := dburl.Parse(s)
	if err != nil {
		return "", fmt.Errorf("connection string could not be parsed: %w", err)
	}
	if u.Driver != "postgres" {
		return "", fmt.Errorf("unsupported warehouse driver %q: only PostgreSQL is supported", u.Driver)
	}
	return u.DSN, nil
}

// Redact returns s with any password masked, for logging.
func Redact(s string) string {
	if !strings.Contains(s, "://") {
		return "(dsn)"
	}
	u, err := dburl.Parse(s)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}
