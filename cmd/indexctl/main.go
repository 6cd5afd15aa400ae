// Command indexctl is a small operator CLI around the database: open a
// directory and report its state, force a compaction, or print the
// schema version it would require. It is not the client-facing query CLI
// (spec §6 places that out of scope); it exists only to poke at a
// database file from a terminal the way an operator runs
// badger's own "badger info" today.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	indexdb "github.com/oxhq/indexdb"
	"github.com/oxhq/indexdb/internal/config"
	"github.com/oxhq/indexdb/internal/schema"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dbPath string
	var dotenv string

	root := &cobra.Command{
		Use:   "indexctl",
		Short: "operate on an indexdb database directory",
	}
	root.PersistentFlags().StringVar(&dbPath, "database", "", "database directory (overrides INDEXDB_DATABASE_PATH)")
	root.PersistentFlags().StringVar(&dotenv, "env-file", "", "optional .env file to load")

	loadOpts := func(readOnly bool) (indexdb.Options, error) {
		cfg, err := config.Load(dotenv)
		if err != nil && dbPath == "" {
			return indexdb.Options{}, err
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		cfg.ReadOnly = readOnly
		return indexdb.FromConfig(cfg), nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the schema version this binary requires",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", schema.Version)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "open the database read-only and report that it opened (prints no statistics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOpts(true)
			if err != nil {
				return err
			}
			db, err := indexdb.Open(opts)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "opened %s read-only\n", opts.DatabasePath)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "compact",
		Short: "reclaim space left by deleted or superseded entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOpts(false)
			if err != nil {
				return err
			}
			db, err := indexdb.Open(opts)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Compact(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compacted %s\n", opts.DatabasePath)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "open (and create, if missing) the database, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOpts(false)
			if err != nil {
				return err
			}
			db, err := indexdb.Open(opts)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "opened %s\n", opts.DatabasePath)
			return nil
		},
	})

	return root
}
