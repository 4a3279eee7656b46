// Package catalog loads the reference stock list ingested into the store.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
)

//go:embed stocks.yaml
var defaultCatalog []byte

type file struct {
	Stocks []domain.CatalogEntry `yaml:"stocks"`
}

// Default returns the embedded reference catalog.
func Default() ([]domain.CatalogEntry, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// Parse reads a catalog document. Every entry is validated and normalized;
// a symbol may appear only once.
func Parse(r io.Reader) ([]domain.CatalogEntry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, domain.Invalid("stocks", "catalog is empty")
		}
		return nil, domain.Invalid("stocks", "malformed catalog: %v", err)
	}
	if len(f.Stocks) == 0 {
		return nil, domain.Invalid("stocks", "catalog is empty")
	}

	seen := make(map[string]int, len(f.Stocks))
	for i := range f.Stocks {
		e := &f.Stocks[i]
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if prev, dup := seen[e.Symbol]; dup {
			return nil, domain.Invalid("symbol", "%s listed twice (entries %d and %d)", e.Symbol, prev, i+1)
		}
		seen[e.Symbol] = i + 1
	}
	return f.Stocks, nil
}
