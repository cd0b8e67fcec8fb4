package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/assetpipe/assetpipe/internal/config"
	"github.com/assetpipe/assetpipe/internal/db"
	"github.com/assetpipe/assetpipe/internal/events"
	"github.com/assetpipe/assetpipe/internal/files"
	"github.com/assetpipe/assetpipe/internal/logger"
	"github.com/assetpipe/assetpipe/internal/settings"
	"github.com/assetpipe/assetpipe/internal/storage/providers/localfs"
)

var (
	cfgPath     string
	useDBConfig bool

	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "assetpipe",
	Short: "Media asset ingestion pipeline",
	Long: `assetpipe ingests media assets from uploads, inline payloads and
remote URLs into a storage adapter, extracting metadata and deriving
thumbnails along the way.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml")
	rootCmd.PersistentFlags().BoolVar(&useDBConfig, "db-settings", false, "read file settings from the database instead of config.toml")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(thumbnailsCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(migrateCmd)
}

func initializeApp(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log = logger.L
	return nil
}

func newAdapter() (*localfs.Provider, error) {
	adapter, err := localfs.New(cfg.Storage.Root, cfg.Storage.Adapter)
	if err != nil {
		return nil, fmt.Errorf("init storage adapter: %w", err)
	}
	return adapter, nil
}

// newSettingsProvider returns the settings source for pipeline commands:
// the config file values, or the database settings table with
// --db-settings. The returned cleanup closes the pool when one was
// opened.
func newSettingsProvider(ctx context.Context) (settings.Provider, func(), error) {
	if !useDBConfig {
		return settings.NewStaticFiles(settings.Files{
			ThumbnailSize:        cfg.Files.ThumbnailSize,
			ThumbnailQuality:     cfg.Files.ThumbnailQuality,
			ThumbnailCropEnabled: cfg.Files.ThumbnailCrop,
			FileNaming:           cfg.Files.Naming,
			YouTubeAPIKey:        cfg.Files.YouTubeAPIKey,
		}), func() {}, nil
	}

	pool, err := openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	return settings.NewPostgres(log, pool), pool.Close, nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return pool, nil
}

// newFilesService wires the full pipeline with an event listener that
// mirrors lifecycle events into the debug log.
func newFilesService(ctx context.Context) (*files.Service, func(), error) {
	adapter, err := newAdapter()
	if err != nil {
		return nil, nil, err
	}
	provider, cleanup, err := newSettingsProvider(ctx)
	if err != nil {
		return nil, nil, err
	}

	bus := events.NewBus(log)
	bus.SubscribeAll(func(e events.Event) {
		log.Debug("lifecycle event",
			slog.String("event", e.Name),
			slog.Any("payload", e.Payload),
		)
	})

	return files.NewService(log, adapter, provider, bus, nil), cleanup, nil
}
