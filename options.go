package indexdb

import "github.com/oxhq/indexdb/internal/config"

// Options configures Open. Use FromConfig to build one from the
// environment-driven internal/config.Config, or set fields directly for
// programmatic embedding.
type Options struct {
	DatabasePath     string
	ReadOnly         bool
	InitialArenaSize int64
	MaxReaders       int
	Verbose          bool

	UseExplicitOutputUnits bool
	PrefixMappings         []config.PrefixMapping
}

// FromConfig adapts a loaded config.Config into Options.
func FromConfig(cfg config.Config) Options {
	return Options{
		DatabasePath:           cfg.DatabasePath,
		ReadOnly:               cfg.ReadOnly,
		InitialArenaSize:       cfg.InitialMapSize,
		MaxReaders:             cfg.MaxReaders,
		Verbose:                cfg.Verbose,
		UseExplicitOutputUnits: cfg.UseExplicitOutputUnits,
		PrefixMappings:         cfg.PrefixMappings,
	}
}
