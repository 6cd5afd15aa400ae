// Package config loads the options from spec §6 from the process
// environment (optionally via a .env file), following the teacher's
// pattern of joho/godotenv plus os.Getenv rather than a flag-parsing
// library. The only command-line surface is cmd/indexctl, whose
// --database and --env-file flags feed into this loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oxhq/indexdb/internal/codec"
)

// PrefixMapping is one (original, replacement) pair from the
// prefix_mappings option.
type PrefixMapping struct {
	Original    string
	Replacement string
}

// Config is every option spec §6 enumerates, plus the values out-of-scope
// surfaces (the ingestion driver's store_path) that the whole process
// still needs wired through somewhere.
type Config struct {
	// StorePath is the directory of raw compiler records, consumed by the
	// external ingestion driver, not by this package's own code.
	StorePath string
	// DatabasePath is this database's own directory.
	DatabasePath string
	ReadOnly     bool
	InitialMapSize int64
	MaxReaders     int

	UseExplicitOutputUnits      bool
	ListenToUnitEvents          bool
	WaitUntilDoneInitializing   bool
	EnableOutOfDateFileWatching bool

	PrefixMappings []PrefixMapping

	Verbose bool
}

const (
	envStorePath      = "INDEXDB_STORE_PATH"
	envDatabasePath   = "INDEXDB_DATABASE_PATH"
	envReadOnly       = "INDEXDB_READONLY"
	envInitialMapSize = "INDEXDB_INITIAL_MAP_SIZE"
	envMaxReaders     = "INDEXDB_MAX_READERS"

	envUseExplicitOutputUnits      = "INDEXDB_USE_EXPLICIT_OUTPUT_UNITS"
	envListenToUnitEvents          = "INDEXDB_LISTEN_TO_UNIT_EVENTS"
	envWaitUntilDoneInitializing   = "INDEXDB_WAIT_UNTIL_DONE_INITIALIZING"
	envEnableOutOfDateFileWatching = "INDEXDB_ENABLE_OUT_OF_DATE_FILE_WATCHING"
	envPrefixMappings              = "INDEXDB_PREFIX_MAPPINGS"
	envVerbose                     = "INDEXDB_VERBOSE"
)

// defaults mirrors the teacher's DefaultAtomicConfig-style "sensible
// defaults" constructor pattern.
func defaults() Config {
	return Config{
		InitialMapSize:            4 << 20,
		MaxReaders:                126,
		ListenToUnitEvents:        true,
		WaitUntilDoneInitializing: true,
	}
}

// Load reads configuration from the process environment, optionally
// seeded from a .env file at dotenvPath (ignored if it doesn't exist).
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return Config{}, fmt.Errorf("config: loading %s: %w", dotenvPath, err)
			}
		}
	}

	cfg := defaults()
	cfg.StorePath = os.Getenv(envStorePath)
	cfg.DatabasePath = os.Getenv(envDatabasePath)

	var err error
	if cfg.ReadOnly, err = getBool(envReadOnly, cfg.ReadOnly); err != nil {
		return Config{}, err
	}
	if cfg.InitialMapSize, err = getInt64(envInitialMapSize, cfg.InitialMapSize); err != nil {
		return Config{}, err
	}
	maxReaders64, err := getInt64(envMaxReaders, int64(cfg.MaxReaders))
	if err != nil {
		return Config{}, err
	}
	cfg.MaxReaders = int(maxReaders64)

	if cfg.UseExplicitOutputUnits, err = getBool(envUseExplicitOutputUnits, cfg.UseExplicitOutputUnits); err != nil {
		return Config{}, err
	}
	if cfg.ListenToUnitEvents, err = getBool(envListenToUnitEvents, cfg.ListenToUnitEvents); err != nil {
		return Config{}, err
	}
	if cfg.WaitUntilDoneInitializing, err = getBool(envWaitUntilDoneInitializing, cfg.WaitUntilDoneInitializing); err != nil {
		return Config{}, err
	}
	if cfg.EnableOutOfDateFileWatching, err = getBool(envEnableOutOfDateFileWatching, cfg.EnableOutOfDateFileWatching); err != nil {
		return Config{}, err
	}
	if cfg.Verbose, err = getBool(envVerbose, cfg.Verbose); err != nil {
		return Config{}, err
	}

	cfg.PrefixMappings = parsePrefixMappings(os.Getenv(envPrefixMappings))

	if cfg.DatabasePath == "" {
		return Config{}, fmt.Errorf("config: %s is required", envDatabasePath)
	}
	return cfg, nil
}

// parsePrefixMappings parses "A=>B,C=>D" into PrefixMapping pairs.
func parsePrefixMappings(raw string) []PrefixMapping {
	if raw == "" {
		return nil
	}
	var out []PrefixMapping
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=>", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, PrefixMapping{
			Original:    strings.TrimSpace(parts[0]),
			Replacement: strings.TrimSpace(parts[1]),
		})
	}
	return out
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

// CanonicalPrefixMappings converts the parsed string pairs to
// codec.PrefixMapping pairs ready for a codec.PrefixTable.
func (c Config) CanonicalPrefixMappings() []codec.PrefixMapping {
	out := make([]codec.PrefixMapping, 0, len(c.PrefixMappings))
	for _, m := range c.PrefixMappings {
		out = append(out, codec.PrefixMapping{Original: m.Original, Replacement: m.Replacement})
	}
	return out
}
