package main

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetpipe/assetpipe/internal/asset"
	"github.com/assetpipe/assetpipe/internal/settings"
	"github.com/assetpipe/assetpipe/internal/thumbnail"
)

// regenExts is the set of extensions the batch pass handles; other
// qualifying formats only get thumbnails at ingestion time.
var regenExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
}

var thumbnailsCmd = &cobra.Command{
	Use:   "thumbnails",
	Short: "Generate missing thumbnails for stored assets",
	Long: `Scan the storage root and derive a thumbnail for every qualifying
asset that does not have one yet. Existing thumbnails are left alone.`,
	RunE: runThumbnails,
}

func runThumbnails(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	adapter, err := newAdapter()
	if err != nil {
		return err
	}
	provider, cleanup, err := newSettingsProvider(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	fs, err := settings.FetchFiles(ctx, provider)
	if err != nil {
		return fmt.Errorf("load file settings: %w", err)
	}
	opts := thumbnail.Options{
		MaxDimension: fs.ThumbnailSize,
		Quality:      fs.ThumbnailQuality,
		Crop:         fs.ThumbnailCropEnabled,
	}

	entries, err := os.ReadDir(adapter.RootPath())
	if err != nil {
		return fmt.Errorf("read storage root: %w", err)
	}

	var generated, skipped, existing, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if _, ok := regenExts[ext]; !ok {
			skipped++
			continue
		}

		thumbKey := asset.ThumbnailPrefix + name
		has, err := adapter.Has(ctx, thumbKey)
		if err != nil {
			return fmt.Errorf("check %s: %w", thumbKey, err)
		}
		if has {
			existing++
			continue
		}

		data, err := adapter.Read(ctx, name)
		if err != nil {
			log.Warn("read asset failed", slog.String("name", name), slog.Any("error", err))
			failed++
			continue
		}
		thumb, err := thumbnail.Generate(data, ext, opts)
		if err != nil {
			log.Warn("thumbnail generation failed", slog.String("name", name), slog.Any("error", err))
			failed++
			continue
		}
		if thumb == nil {
			skipped++
			continue
		}
		if err := adapter.Write(ctx, thumbKey, thumb); err != nil {
			log.Warn("thumbnail write failed", slog.String("name", name), slog.Any("error", err))
			failed++
			continue
		}
		generated++
	}

	fmt.Printf("generated %d, existing %d, skipped %d, failed %d\n",
		generated, existing, skipped, failed)
	return nil
}
