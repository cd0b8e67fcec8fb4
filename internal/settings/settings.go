// Package settings provides read-only access to file-pipeline settings,
// grouped by collection name the way the settings table stores them.
package settings

import (
	"context"
	"strconv"
	"strings"
)

// Collection and key names used by the files pipeline.
const (
	CollectionFiles = "files"

	KeyThumbnailSize        = "thumbnail_size"
	KeyThumbnailQuality     = "thumbnail_quality"
	KeyThumbnailCropEnabled = "thumbnail_crop_enabled"
	KeyFileNaming           = "file_naming"
	KeyYouTubeAPIKey        = "youtube_api_key"
)

// File naming strategies.
const (
	NamingOriginal = "file_name"
	NamingHash     = "file_hash"
)

// Defaults applied when a key is missing from the provider.
const (
	DefaultThumbnailSize    = 200
	DefaultThumbnailQuality = 100
)

// Provider is a read-only key-value settings source.
type Provider interface {
	// Collection returns the requested keys of a settings collection.
	// Missing keys are simply absent from the result.
	Collection(ctx context.Context, name string, keys []string) (map[string]string, error)
}

// Files is the typed view of the "files" collection consumed by the
// ingestion pipeline.
type Files struct {
	ThumbnailSize        int
	ThumbnailQuality     int
	ThumbnailCropEnabled bool
	FileNaming           string
	YouTubeAPIKey        string
}

// FetchFiles loads the files collection from p and applies defaults for
// missing keys.
func FetchFiles(ctx context.Context, p Provider) (Files, error) {
	values, err := p.Collection(ctx, CollectionFiles, []string{
		KeyThumbnailSize,
		KeyThumbnailQuality,
		KeyThumbnailCropEnabled,
		KeyFileNaming,
		KeyYouTubeAPIKey,
	})
	if err != nil {
		return Files{}, err
	}
	fs := Files{
		ThumbnailSize:        intValue(values, KeyThumbnailSize, DefaultThumbnailSize),
		ThumbnailQuality:     intValue(values, KeyThumbnailQuality, DefaultThumbnailQuality),
		ThumbnailCropEnabled: boolValue(values, KeyThumbnailCropEnabled),
		FileNaming:           values[KeyFileNaming],
		YouTubeAPIKey:        values[KeyYouTubeAPIKey],
	}
	if strings.TrimSpace(fs.FileNaming) == "" {
		fs.FileNaming = NamingOriginal
	}
	return fs, nil
}

func intValue(values map[string]string, key string, fallback int) int {
	raw, ok := values[key]
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func boolValue(values map[string]string, key string) bool {
	switch strings.ToLower(strings.TrimSpace(values[key])) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
