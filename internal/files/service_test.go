package files

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/assetpipe/assetpipe/internal/asset"
	"github.com/assetpipe/assetpipe/internal/events"
	"github.com/assetpipe/assetpipe/internal/settings"
)

func newTestService(adapter *memAdapter, bus *events.Bus) *Service {
	provider := settings.NewStaticFiles(settings.Files{
		ThumbnailSize:    50,
		ThumbnailQuality: 90,
		FileNaming:       settings.NamingOriginal,
	})
	return NewService(nil, adapter, provider, bus, nil)
}

func recordEvents(bus *events.Bus) *[]string {
	var names []string
	bus.SubscribeAll(func(e events.Event) {
		names = append(names, e.Name)
	})
	return &names
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestUpload_JPEG(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	bus := events.NewBus(nil)
	emitted := recordEvents(bus)
	svc := newTestService(adapter, bus)

	data := jpegBytes(t, 200, 100)
	tempPath := writeTemp(t, "upload.jpg", data)

	record, err := svc.Upload(context.Background(), tempPath, "vacation photo.jpg")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if record.Type != "image/jpeg" {
		t.Errorf("Type = %q, want image/jpeg", record.Type)
	}
	if record.Name != "vacation_photo.jpg" {
		t.Errorf("Name = %q, want vacation_photo.jpg", record.Name)
	}
	if record.Width == nil || record.Height == nil {
		t.Fatal("image record must carry both dimensions")
	}
	if *record.Width != 200 || *record.Height != 100 {
		t.Errorf("dimensions = %dx%d, want 200x100", *record.Width, *record.Height)
	}
	if record.Title != "Vacation Photo" {
		t.Errorf("Title = %q, want %q", record.Title, "Vacation Photo")
	}
	if record.StorageAdapter != "memory" {
		t.Errorf("StorageAdapter = %q", record.StorageAdapter)
	}
	if record.DateUploaded.IsZero() || record.DateUploaded.Location() != record.DateUploaded.UTC().Location() {
		t.Error("DateUploaded must be a UTC timestamp")
	}
	if record.Caption != "" || record.Tags != "" || record.Location != "" {
		t.Error("descriptive fields must default to empty strings")
	}

	if !adapter.has("vacation_photo.jpg") {
		t.Error("primary asset not written")
	}
	if !adapter.has("thumbs/THUMB_vacation_photo.jpg") {
		t.Error("thumbnail not written at thumbs/THUMB_<name>")
	}

	want := []string{events.FileSaving, events.FileSaved, events.ThumbnailSaving, events.ThumbnailSaved}
	if len(*emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", *emitted, want)
	}
	for i, name := range want {
		if (*emitted)[i] != name {
			t.Errorf("event[%d] = %q, want %q", i, (*emitted)[i], name)
		}
	}
}

func TestUpload_TextHasNoThumbnailOrDimensions(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	svc := newTestService(adapter, events.NewBus(nil))

	tempPath := writeTemp(t, "notes.txt", []byte("some notes"))
	record, err := svc.Upload(context.Background(), tempPath, "notes.txt")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if record.Width != nil || record.Height != nil {
		t.Error("text record must have nil dimensions")
	}
	if adapter.has("thumbs/THUMB_notes.txt") {
		t.Error("no thumbnail must be written for text")
	}
	if !adapter.has("notes.txt") {
		t.Error("primary asset not written")
	}
}

func TestUpload_MissingSource(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemAdapter(), nil)

	_, err := svc.Upload(context.Background(), "/nonexistent/tmp/upload", "x.jpg")
	if !errors.Is(err, asset.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestUpload_CollisionGetsSuffix(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	adapter.put("pic.png", []byte("existing"))
	svc := newTestService(adapter, nil)

	tempPath := writeTemp(t, "pic.png", pngBytes(t, 8, 8))
	record, err := svc.Upload(context.Background(), tempPath, "pic.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if record.Name != "pic-1.png" {
		t.Errorf("Name = %q, want pic-1.png", record.Name)
	}
	if !bytes.Equal(adapter.objects["pic.png"], []byte("existing")) {
		t.Error("existing asset must not be overwritten")
	}
}

func TestSaveData_DataURLRoundTrip(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	svc := newTestService(adapter, nil)

	raw := pngBytes(t, 12, 12)
	payload := []byte("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))

	record, err := svc.SaveData(context.Background(), payload, "inline.png")
	if err != nil {
		t.Fatalf("SaveData failed: %v", err)
	}

	stored, err := adapter.Read(context.Background(), record.Name)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(stored, raw) {
		t.Error("stored bytes must equal the decoded payload")
	}
	if record.Type != "image/png" {
		t.Errorf("Type = %q", record.Type)
	}
}

func TestSaveData_RawBytes(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	svc := newTestService(adapter, nil)

	raw := []byte("raw text payload")
	record, err := svc.SaveData(context.Background(), raw, "note.txt")
	if err != nil {
		t.Fatalf("SaveData failed: %v", err)
	}
	stored, _ := adapter.Read(context.Background(), record.Name)
	if !bytes.Equal(stored, raw) {
		t.Error("raw payload must be stored verbatim")
	}
}

func TestSaveData_MalformedDataURL(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemAdapter(), nil)

	_, err := svc.SaveData(context.Background(), []byte("data:image/png;base64"), "x.png")
	if !errors.Is(err, asset.ErrUnidentifiableMedia) {
		t.Fatalf("expected ErrUnidentifiableMedia, got %v", err)
	}
}

func TestSaveEmbed_NotAnEmbed(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemAdapter(), nil)

	_, err := svc.SaveEmbed(context.Background(), asset.Record{Type: "image/png"})
	if !errors.Is(err, asset.ErrNotAnEmbed) {
		t.Fatalf("expected ErrNotAnEmbed, got %v", err)
	}
}

func TestSaveEmbed_PreservesProviderMetadata(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	svc := newTestService(adapter, nil)

	preview := jpegBytes(t, 480, 360)
	partial := asset.Record{
		Type:    "embed/youtube",
		Name:    "youtube_abc123.jpg",
		Title:   "Some Video",
		Caption: "provider description",
		Tags:    "a,b",
		Size:    93,
		URL:     "abc123",
		Width:   asset.IntPtr(560),
		Height:  asset.IntPtr(340),
		Data:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(preview),
	}

	record, err := svc.SaveEmbed(context.Background(), partial)
	if err != nil {
		t.Fatalf("SaveEmbed failed: %v", err)
	}

	if record.Title != "Some Video" || record.Caption != "provider description" || record.Tags != "a,b" {
		t.Error("provider metadata must be preserved, not overwritten")
	}
	if record.Size != 93 {
		t.Errorf("Size = %d, want provider duration 93", record.Size)
	}
	if record.StorageAdapter != "memory" {
		t.Errorf("StorageAdapter = %q, want merged value", record.StorageAdapter)
	}
	if record.DateUploaded.IsZero() {
		t.Error("DateUploaded must be merged from the save")
	}
	if !adapter.has("youtube_abc123.jpg") {
		t.Error("embed preview must be written under the provider name")
	}
}

func TestSaveEmbed_FallbackName(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	svc := newTestService(adapter, nil)

	record, err := svc.SaveEmbed(context.Background(), asset.Record{
		Type: "embed/vimeo",
		Data: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 6, 6)),
	})
	if err != nil {
		t.Fatalf("SaveEmbed failed: %v", err)
	}
	if record.Name == "" {
		t.Fatal("fallback name must be assigned")
	}
	if !adapter.has(record.Name) {
		t.Errorf("asset not stored under %q", record.Name)
	}
}

func TestDelete_Full(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	bus := events.NewBus(nil)
	emitted := recordEvents(bus)
	svc := newTestService(adapter, bus)

	adapter.put("gone.jpg", []byte("x"))
	adapter.put("thumbs/THUMB_gone.jpg", []byte("t"))

	if err := svc.Delete(context.Background(), asset.Record{Name: "gone.jpg", Size: 1}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if adapter.has("gone.jpg") || adapter.has("thumbs/THUMB_gone.jpg") {
		t.Error("both primary and thumbnail must be deleted")
	}

	want := []string{events.FileDeleting, events.FileDeleted, events.ThumbnailDeleting, events.ThumbnailDeleted}
	if len(*emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", *emitted, want)
	}
}

func TestDelete_MissingPrimaryStillChecksThumbnail(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	bus := events.NewBus(nil)
	emitted := recordEvents(bus)
	svc := newTestService(adapter, bus)

	// Primary is gone; the thumbnail remains.
	adapter.put("thumbs/THUMB_orphan.jpg", []byte("t"))

	if err := svc.Delete(context.Background(), asset.Record{Name: "orphan.jpg"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if adapter.has("thumbs/THUMB_orphan.jpg") {
		t.Error("thumbnail must be deleted independently of the primary")
	}

	want := []string{events.ThumbnailDeleting, events.ThumbnailDeleted}
	if len(*emitted) != len(want) {
		t.Fatalf("emitted %v, want %v (no primary delete pair)", *emitted, want)
	}
}

func TestDelete_NoExtensionSkipsThumbnail(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	adapter.put("README", []byte("x"))
	svc := newTestService(adapter, events.NewBus(nil))

	if err := svc.Delete(context.Background(), asset.Record{Name: "README"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if adapter.has("README") {
		t.Error("primary must be deleted")
	}
}

func TestIngest_ThumbnailFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	adapter := newMemAdapter()
	svc := newTestService(adapter, nil)

	// A .gif name qualifies for thumbnailing, but the payload is plain
	// text: thumbnail decode fails while the primary write succeeds.
	tempPath := writeTemp(t, "fake.gif", []byte("not an image at all"))
	record, err := svc.Upload(context.Background(), tempPath, "fake.gif")
	if err != nil {
		t.Fatalf("Upload must not fail on thumbnail errors: %v", err)
	}
	if !adapter.has(record.Name) {
		t.Error("primary asset must be written")
	}
	if adapter.has(asset.ThumbnailPrefix + record.Name) {
		t.Error("no partial thumbnail may be written")
	}
}
