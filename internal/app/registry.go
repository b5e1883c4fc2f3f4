package app

import (
	"context"
	"fmt"

	"github.com/guttosm/tradebridge/config"
	"github.com/guttosm/tradebridge/internal/registry"
	"github.com/guttosm/tradebridge/internal/storage"
)

// LoadRegistry builds the symbol registry for the configured source.
// Built-in defaults are always loaded first, so file and database entries
// override them code by code.
func LoadRegistry(ctx context.Context, cfg config.Config) (*registry.Registry, error) {
	sources := []registry.Source{registry.StaticSource(registry.Defaults)}

	switch cfg.Symbols.Source {
	case config.SymbolSourceFile:
		sources = append(sources, registry.FileSource{Path: cfg.Symbols.File})

	case config.SymbolSourcePostgres:
		db, err := postgresOpener(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		defer func() { _ = db.Close() }()
		sources = append(sources, storage.NewSymbolRepository(db))
	}

	return registry.Load(ctx, sources...)
}
