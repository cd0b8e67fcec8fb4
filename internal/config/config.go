package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath   = "config.toml"
	DefaultStorageRoot  = "data/files"
	DefaultAdapter      = "local"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "assetpipe"
	DefaultPGSSLMode    = "disable"
	DefaultThumbSize    = 200
	DefaultThumbQuality = 100
	DefaultFileNaming   = "file_name"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Storage  StorageConfig  `toml:"storage"`
	Postgres PostgresConfig `toml:"postgres"`
	Files    FilesConfig    `toml:"files"`
	Admin    AdminConfig    `toml:"admin"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

type StorageConfig struct {
	Adapter string `toml:"adapter" validate:"required"`
	Root    string `toml:"root" validate:"required"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port" validate:"min=0,max=65535"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// FilesConfig holds the fallback file settings used when no settings
// provider is configured, and the seed values written by the installer.
type FilesConfig struct {
	ThumbnailSize    int    `toml:"thumbnail_size" validate:"min=1,max=4096"`
	ThumbnailQuality int    `toml:"thumbnail_quality" validate:"min=1,max=100"`
	ThumbnailCrop    bool   `toml:"thumbnail_crop"`
	Naming           string `toml:"naming" validate:"oneof=file_name file_hash"`
	YouTubeAPIKey    string `toml:"youtube_api_key"`
}

type AdminConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Adapter: DefaultAdapter,
			Root:    DefaultStorageRoot,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Files: FilesConfig{
			ThumbnailSize:    DefaultThumbSize,
			ThumbnailQuality: DefaultThumbQuality,
			Naming:           DefaultFileNaming,
		},
		Admin: AdminConfig{
			Email:    "admin@example.com",
			Password: "change-your-password-here",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing
// file is not an error: the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN builds the connection string for the configured database.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
