// Package install bootstraps a new deployment: it generates the config
// file, creates the database schema and seeds the initial settings and
// admin user.
package install

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetpipe/assetpipe/internal/config"
	"github.com/assetpipe/assetpipe/internal/db"
	"github.com/assetpipe/assetpipe/internal/settings"
)

// CreateConfig writes cfg to path as TOML. An existing file is never
// overwritten.
func CreateConfig(path string, cfg config.Config) error {
	if path == "" {
		path = config.DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// CreateDatabase applies all migrations to the configured database.
func CreateDatabase(logger *slog.Logger, cfg config.PostgresConfig, migrationsFS fs.FS) error {
	return db.RunMigrate(logger, cfg, migrationsFS, "up", nil)
}

// Seed writes the initial file settings and the admin user. Settings
// rows are upserted, so re-running the installer is safe; an existing
// admin user is left untouched.
func Seed(ctx context.Context, logger *slog.Logger, pool *pgxpool.Pool, cfg config.Config) error {
	if pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	rows := map[string]string{
		settings.KeyThumbnailSize:        strconv.Itoa(cfg.Files.ThumbnailSize),
		settings.KeyThumbnailQuality:     strconv.Itoa(cfg.Files.ThumbnailQuality),
		settings.KeyThumbnailCropEnabled: strconv.FormatBool(cfg.Files.ThumbnailCrop),
		settings.KeyFileNaming:           cfg.Files.Naming,
		settings.KeyYouTubeAPIKey:        cfg.Files.YouTubeAPIKey,
	}
	for name, value := range rows {
		_, err := pool.Exec(ctx,
			`INSERT INTO settings (collection, name, value) VALUES ($1, $2, $3)
			 ON CONFLICT (collection, name) DO UPDATE SET value = EXCLUDED.value`,
			settings.CollectionFiles, name, value)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", name, err)
		}
	}
	logger.Info("file settings seeded", slog.Int("count", len(rows)))

	return seedAdmin(ctx, logger, pool, cfg.Admin)
}

func seedAdmin(ctx context.Context, logger *slog.Logger, pool *pgxpool.Pool, admin config.AdminConfig) error {
	email := strings.TrimSpace(admin.Email)
	password := strings.TrimSpace(admin.Password)
	if email == "" || password == "" {
		return fmt.Errorf("admin email/password required in config.toml")
	}
	if password == "change-your-password-here" {
		logger.Warn("admin password uses default placeholder; please update config.toml")
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO users (email, password) VALUES ($1, $2)`,
		email, string(hashed))
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.Info("admin user created", slog.String("email", email))
	return nil
}
