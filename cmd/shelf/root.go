package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justyntemme/shelf/internal/catalog"
	"github.com/justyntemme/shelf/internal/config"
	"github.com/justyntemme/shelf/internal/logger"
	"github.com/justyntemme/shelf/internal/metrics"
	"github.com/justyntemme/shelf/internal/readinglist"
	"github.com/justyntemme/shelf/internal/storage"
)

// app carries the resolved configuration into subcommands
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

// flagBindings maps persistent flags to viper keys
var flagBindings = map[string]string{
	"log-level":      "log.level",
	"storage-driver": "storage.driver",
	"sqlite-path":    "storage.sqlite_path",
	"redis-addr":     "storage.redis_addr",
	"catalog-url":    "catalog.base_url",
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shelf",
		Short: "Search the Open Library catalog and keep a reading list",
		Long: `Shelf searches the Open Library catalog by title and keeps a persisted
reading list of saved books.

Run "shelf serve" to host the search widget over HTTP, or "shelf shell"
for an interactive session in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./shelf.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("storage-driver", "sqlite", "reading list storage: sqlite, redis or memory")
	pf.String("sqlite-path", "./data/shelf.db", "SQLite database path")
	pf.String("redis-addr", "localhost:6379", "Redis address")
	pf.String("catalog-url", catalog.DefaultBaseURL, "Open Library base URL")

	root.AddCommand(
		newServeCmd(a),
		newSearchCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newShellCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	for name, key := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	a.v = v
	a.cfg = config.FromViper(v)
	logger.SetLevel(a.cfg.Log.Level)
	metrics.Register()
	return nil
}

// openKV opens the configured reading list backend
func (a *app) openKV(ctx context.Context) (storage.KV, error) {
	s := a.cfg.Storage
	switch s.Driver {
	case "sqlite":
		return storage.NewSQLiteKV(s.SQLitePath)
	case "redis":
		return storage.NewRedisKV(ctx, storage.RedisConfig{
			Addr:         s.RedisAddr,
			Password:     s.RedisPassword,
			DB:           s.RedisDB,
			Prefix:       s.RedisPrefix,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
	case "memory":
		return storage.NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Driver)
	}
}

// openList loads the reading list; the returned func closes the backend
func (a *app) openList(ctx context.Context) (*readinglist.Manager, func(), error) {
	kv, err := a.openKV(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	closeFn := func() {
		if err := kv.Close(); err != nil {
			logger.For(ctx).WithError(err).Warn("failed to close storage")
		}
	}
	return readinglist.NewManager(ctx, storage.NewAdapter(kv)), closeFn, nil
}

func (a *app) catalogClient() *catalog.OpenLibraryClient {
	c := a.cfg.Catalog
	return catalog.NewOpenLibraryClient(
		catalog.WithBaseURL(c.BaseURL),
		catalog.WithTimeout(c.Timeout),
		catalog.WithRateInterval(c.RateInterval),
	)
}
