package warehouse_test

import (
	"testing"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/warehouse"
)

func TestGet(t *testing.T) {
	known := map[string]string{
		"asset":        "dw.dim_asset",
		"risk_profile": "dw.dim_risk_profile",
		"portfolio":    "dw.dim_portfolio",
	}

	for name, table := range known {
		t.Run(name, func(t *testing.T) {
			dim, err := warehouse.Get(name)
			if err != nil {
				t.Fatalf("Failed to get dimension '%s': %v", name, err)
			}
			if dim.Name != name {
				t.Errorf("Dimension name mismatch: expected '%s', got '%s'", name, dim.Name)
			}
			if dim.Table != table {
				t.Errorf("Expected table %s, got %s", table, dim.Table)
			}
			if dim.Description == "" {
				t.Error("Dimension description should not be empty")
			}
		})
	}
}

func TestGetInvalidDimension(t *testing.T) {
	_, err := warehouse.Get("nonexistent")
	if err == nil {
		t.Error("Expected error for nonexistent dimension")
	}
}

func TestListLoadOrder(t *testing.T) {
	names := warehouse.List()
	expected := []string{"asset", "risk_profile", "portfolio"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d dimensions, got %d: %v", len(expected), len(names), names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], names[i])
		}
	}
}

func TestSelect(t *testing.T) {
	dims, err := warehouse.Select("portfolio", "asset")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(dims) != 2 || dims[0].Name != "asset" || dims[1].Name != "portfolio" {
		t.Errorf("Expected [asset portfolio] in load order, got %v", dims)
	}

	all, err := warehouse.Select()
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected every dimension, got %d", len(all))
	}

	if _, err := warehouse.Select("asset", "bogus"); err == nil {
		t.Error("Expected error for unknown dimension")
	}
}
