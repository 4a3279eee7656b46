package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

func TestDefault(t *testing.T) {
	entries, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	if len(entries) < 8 {
		t.Fatalf("got %d entries, want at least 8", len(entries))
	}
	for _, e := range entries {
		if e.LastPrice.Exponent() < -domain.MoneyPlaces {
			t.Errorf("%s price %s has too many decimals", e.Symbol, e.LastPrice)
		}
	}
	if entries[0].Symbol != "AAPL" || entries[0].LastPrice.String() != "189.84" {
		t.Errorf("first entry = %+v", entries[0])
	}
}

func TestParse(t *testing.T) {
	doc := `
stocks:
  - symbol: " aapl "
    name: Apple
    last_price: "10.5"
  - symbol: f
    name: Ford
    last_price: 12
`
	entries, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Symbol != "AAPL" || entries[1].Symbol != "F" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[1].LastPrice.String() != "12" {
		t.Errorf("unquoted price = %s, want 12", entries[1].LastPrice)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"no stocks", "stocks: []\n"},
		{"unknown field", "stocks:\n  - symbol: A\n    name: A\n    last_price: \"1\"\n    sector: tech\n"},
		{"bad symbol", "stocks:\n  - symbol: \"A B\"\n    name: A\n    last_price: \"1\"\n"},
		{"no name", "stocks:\n  - symbol: A\n    last_price: \"1\"\n"},
		{"negative price", "stocks:\n  - symbol: A\n    name: A\n    last_price: \"-1\"\n"},
		{"three decimals", "stocks:\n  - symbol: A\n    name: A\n    last_price: \"1.001\"\n"},
		{"duplicate", "stocks:\n  - symbol: A\n    name: A\n    last_price: \"1\"\n  - symbol: a\n    name: A2\n    last_price: \"2\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.doc))
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("Parse() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}
