package cli

import (
	"testing"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/config"
)

func TestApplyDateFlagsAlignsRanges(t *testing.T) {
	cfg := config.DefaultConfig()
	applyDateFlags(cfg, "2025-01-01", "2025-03-31")

	genStart, genEnd, err := cfg.GenerateRange()
	if err != nil {
		t.Fatalf("GenerateRange failed: %v", err)
	}
	dateStart, dateEnd, err := cfg.DateRange()
	if err != nil {
		t.Fatalf("DateRange failed: %v", err)
	}
	if !genStart.Equal(dateStart) || !genEnd.Equal(dateEnd) {
		t.Errorf("Ranges differ: generate %s..%s, dates %s..%s", genStart, genEnd, dateStart, dateEnd)
	}
	if cfg.Dates.StartDate != "2025-01-01" || cfg.Dates.EndDate != "2025-03-31" {
		t.Errorf("Unexpected dates range %s..%s", cfg.Dates.StartDate, cfg.Dates.EndDate)
	}
}

func TestApplyDateFlagsPartial(t *testing.T) {
	cfg := config.DefaultConfig()
	applyDateFlags(cfg, "", "2024-06-30")

	if cfg.Generate.StartDate != "2024-01-01" || cfg.Dates.StartDate != "2024-01-01" {
		t.Errorf("Start dates should keep defaults, got %s and %s", cfg.Generate.StartDate, cfg.Dates.StartDate)
	}
	if cfg.Generate.EndDate != "2024-06-30" || cfg.Dates.EndDate != "2024-06-30" {
		t.Errorf("End dates not applied, got %s and %s", cfg.Generate.EndDate, cfg.Dates.EndDate)
	}
}

func TestApplyDateFlagsNone(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dates.StartDate = "2020-01-01"
	applyDateFlags(cfg, "", "")

	if cfg.Dates.StartDate != "2020-01-01" {
		t.Errorf("Dates.StartDate changed without flags: %s", cfg.Dates.StartDate)
	}
	if cfg.Generate.StartDate != "2024-01-01" {
		t.Errorf("Generate.StartDate changed without flags: %s", cfg.Generate.StartDate)
	}
}
