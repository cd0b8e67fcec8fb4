// Package files implements the ingestion pipeline: naming, metadata
// extraction, storage writes, thumbnail derivation and lifecycle events,
// behind one façade with three entry points (upload, inline data, remote
// link) plus deletion.
package files

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/assetpipe/assetpipe/internal/asset"
	"github.com/assetpipe/assetpipe/internal/events"
	"github.com/assetpipe/assetpipe/internal/link"
	"github.com/assetpipe/assetpipe/internal/settings"
	"github.com/assetpipe/assetpipe/internal/storage"
	"github.com/assetpipe/assetpipe/internal/thumbnail"
)

// Service is the ingestion orchestrator. It is stateless across calls;
// all state lives in the injected collaborators.
type Service struct {
	adapter  storage.Adapter
	settings settings.Provider
	bus      *events.Bus
	fetcher  *link.Fetcher
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the files façade. bus may be nil when no listeners
// are registered; fetcher may be nil to use a default remote fetcher.
func NewService(log *slog.Logger, adapter storage.Adapter, provider settings.Provider, bus *events.Bus, fetcher *link.Fetcher) *Service {
	if log == nil {
		log = slog.Default()
	}
	if fetcher == nil {
		fetcher = link.NewFetcher(log, link.Config{})
	}
	return &Service{
		adapter:  adapter,
		settings: provider,
		bus:      bus,
		fetcher:  fetcher,
		logger:   log.With(slog.String("service", "files")),
		now:      time.Now,
	}
}

// Upload ingests a file from a temporary path outside the storage
// namespace, under the desired name.
func (s *Service) Upload(ctx context.Context, tempPath, desiredName string) (asset.Record, error) {
	data, err := os.ReadFile(tempPath)
	if err != nil {
		return asset.Record{}, fmt.Errorf("%w: read %s: %v", asset.ErrSourceUnavailable, tempPath, err)
	}
	return s.ingest(ctx, data, desiredName, asset.TitleFromFileName(desiredName))
}

// SaveData ingests an inline payload under the desired name. A payload
// with a data-URL scheme is base64-decoded first; anything else is
// treated as raw bytes.
func (s *Service) SaveData(ctx context.Context, payload []byte, desiredName string) (asset.Record, error) {
	data, err := decodePayload(payload)
	if err != nil {
		return asset.Record{}, err
	}
	return s.ingest(ctx, data, desiredName, "")
}

// SaveEmbed persists the preview image of a provider-fetched partial
// record and merges the storage outcome back, preserving the
// provider-supplied metadata. A non-embed record yields ErrNotAnEmbed.
func (s *Service) SaveEmbed(ctx context.Context, partial asset.Record) (asset.Record, error) {
	if !partial.IsEmbed() {
		return asset.Record{}, asset.ErrNotAnEmbed
	}

	name := partial.Name
	if name == "" {
		// Time-based fallback when the provider supplied no name.
		name = fmt.Sprintf("%x", md5.Sum([]byte(strconv.FormatInt(s.now().Unix(), 10))))
	}

	saved, err := s.SaveData(ctx, []byte(partial.Data), name)
	if err != nil {
		return asset.Record{}, err
	}
	partial.Name = saved.Name
	partial.DateUploaded = saved.DateUploaded
	partial.StorageAdapter = saved.StorageAdapter
	return partial, nil
}

// Link resolves a remote URL into a partial asset record. Provider embeds
// are completed with SaveEmbed; generic links carry the fetched bytes as
// a data URL.
func (s *Service) Link(ctx context.Context, rawURL string) (asset.Record, error) {
	fs, err := settings.FetchFiles(ctx, s.settings)
	if err != nil {
		return asset.Record{}, fmt.Errorf("load file settings: %w", err)
	}
	return s.fetcher.Fetch(ctx, rawURL, link.Options{YouTubeAPIKey: fs.YouTubeAPIKey})
}

// Delete removes a record's primary asset and its thumbnail. The two
// deletions are independent: a missing primary does not prevent the
// thumbnail check, and a missing thumbnail is not an error.
func (s *Service) Delete(ctx context.Context, record asset.Record) error {
	exists, err := s.adapter.Has(ctx, record.Name)
	if err != nil {
		return fmt.Errorf("check %s: %w", record.Name, err)
	}
	if exists {
		payload := eventPayload(record.Name, record.Size)
		s.bus.Emit(events.FileDeleting, payload)
		if err := s.adapter.Delete(ctx, record.Name); err != nil {
			return fmt.Errorf("delete %s: %w", record.Name, err)
		}
		s.bus.Emit(events.FileDeleted, payload)
	}

	thumbKey := record.ThumbnailKey()
	if thumbKey == "" {
		return nil
	}
	exists, err = s.adapter.Has(ctx, thumbKey)
	if err != nil {
		return fmt.Errorf("check %s: %w", thumbKey, err)
	}
	if exists {
		payload := eventPayload(record.Name, record.Size)
		s.bus.Emit(events.ThumbnailDeleting, payload)
		if err := s.adapter.Delete(ctx, thumbKey); err != nil {
			return fmt.Errorf("delete %s: %w", thumbKey, err)
		}
		s.bus.Emit(events.ThumbnailDeleted, payload)
	}
	return nil
}

// ingest runs the shared pipeline: metadata, naming, storage write,
// best-effort thumbnail, record assembly. Exactly one primary write
// happens per successful call.
func (s *Service) ingest(ctx context.Context, data []byte, desiredName, title string) (asset.Record, error) {
	fs, err := settings.FetchFiles(ctx, s.settings)
	if err != nil {
		return asset.Record{}, fmt.Errorf("load file settings: %w", err)
	}

	meta, err := ExtractMetadata(data)
	if err != nil {
		return asset.Record{}, err
	}

	name, err := NewNameResolver(s.adapter, fs.FileNaming).Resolve(ctx, desiredName)
	if err != nil {
		return asset.Record{}, err
	}

	payload := eventPayload(name, int64(len(data)))
	s.bus.Emit(events.FileSaving, payload)
	if err := s.adapter.Write(ctx, name, data); err != nil {
		return asset.Record{}, fmt.Errorf("store %s: %w", name, err)
	}
	s.bus.Emit(events.FileSaved, payload)

	// Thumbnail derivation must never roll back the primary write.
	if err := s.writeThumbnail(ctx, name, data, fs); err != nil {
		s.logger.Warn("thumbnail generation failed",
			slog.String("name", name),
			slog.Any("error", err),
		)
	}

	if meta.Title != "" {
		title = meta.Title
	}
	if title == "" {
		title = asset.TitleFromFileName(name)
	}

	return asset.Record{
		Type:           meta.Type,
		Charset:        meta.Charset,
		Size:           meta.Size,
		Name:           name,
		Title:          title,
		Caption:        meta.Caption,
		Tags:           meta.Tags,
		Location:       meta.Location,
		Width:          meta.Width,
		Height:         meta.Height,
		DateUploaded:   s.now().UTC().Truncate(time.Second),
		StorageAdapter: s.adapter.Name(),
	}, nil
}

// writeThumbnail derives and stores the secondary asset when the name's
// extension qualifies. A skip (non-qualifying format) returns nil.
func (s *Service) writeThumbnail(ctx context.Context, name string, data []byte, fs settings.Files) error {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	thumb, err := thumbnail.Generate(data, ext, thumbnail.Options{
		MaxDimension: fs.ThumbnailSize,
		Quality:      fs.ThumbnailQuality,
		Crop:         fs.ThumbnailCropEnabled,
	})
	if err != nil {
		return err
	}
	if thumb == nil {
		return nil
	}

	payload := eventPayload(name, int64(len(thumb)))
	s.bus.Emit(events.ThumbnailSaving, payload)
	if err := s.adapter.Write(ctx, asset.ThumbnailPrefix+name, thumb); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}
	s.bus.Emit(events.ThumbnailSaved, payload)
	return nil
}

// decodePayload strips a data-URL scheme and base64-decodes the rest;
// payloads without the scheme pass through as raw bytes.
func decodePayload(payload []byte) ([]byte, error) {
	if !bytes.HasPrefix(payload, []byte("data:")) {
		return payload, nil
	}
	idx := bytes.IndexByte(payload, ',')
	if idx < 0 {
		return nil, fmt.Errorf("%w: malformed data url", asset.ErrUnidentifiableMedia)
	}
	decoded, err := base64.StdEncoding.DecodeString(string(payload[idx+1:]))
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64 payload: %v", asset.ErrUnidentifiableMedia, err)
	}
	return decoded, nil
}

func eventPayload(name string, size int64) map[string]any {
	return map[string]any{
		"name": name,
		"size": size,
	}
}
