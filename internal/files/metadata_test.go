package files

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/assetpipe/assetpipe/internal/asset"
)

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestExtractMetadata_JPEG(t *testing.T) {
	t.Parallel()
	meta, err := ExtractMetadata(jpegBytes(t, 320, 240))
	if err != nil {
		t.Fatalf("ExtractMetadata failed: %v", err)
	}
	if meta.Type != "image/jpeg" {
		t.Errorf("Type = %q, want image/jpeg", meta.Type)
	}
	if meta.Width == nil || meta.Height == nil {
		t.Fatal("image must have both dimensions")
	}
	if *meta.Width != 320 || *meta.Height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", *meta.Width, *meta.Height)
	}
	if meta.Size == 0 {
		t.Error("Size must be the buffer length")
	}
}

func TestExtractMetadata_PNG(t *testing.T) {
	t.Parallel()
	meta, err := ExtractMetadata(pngBytes(t, 10, 20))
	if err != nil {
		t.Fatalf("ExtractMetadata failed: %v", err)
	}
	if meta.Type != "image/png" {
		t.Errorf("Type = %q, want image/png", meta.Type)
	}
	if meta.Width == nil || *meta.Width != 10 || meta.Height == nil || *meta.Height != 20 {
		t.Errorf("unexpected dimensions: %+v", meta)
	}
}

func TestExtractMetadata_Text(t *testing.T) {
	t.Parallel()
	meta, err := ExtractMetadata([]byte("hello, plain text\n"))
	if err != nil {
		t.Fatalf("ExtractMetadata failed: %v", err)
	}
	if meta.Type != "text/plain" {
		t.Errorf("Type = %q, want text/plain", meta.Type)
	}
	if meta.Charset != "utf-8" {
		t.Errorf("Charset = %q, want utf-8", meta.Charset)
	}
	if meta.Width != nil || meta.Height != nil {
		t.Error("text must have no dimensions")
	}
	if meta.Caption != "" || meta.Tags != "" || meta.Location != "" {
		t.Error("text must have no descriptive metadata")
	}
}

func TestExtractMetadata_SizeIsBufferLength(t *testing.T) {
	t.Parallel()
	data := pngBytes(t, 4, 4)
	meta, err := ExtractMetadata(data)
	if err != nil {
		t.Fatalf("ExtractMetadata failed: %v", err)
	}
	if meta.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", meta.Size, len(data))
	}
}

func TestExtractMetadata_TruncatedImageIsError(t *testing.T) {
	t.Parallel()
	// A valid PNG signature with a truncated body: detected as image/png
	// but undecodable.
	data := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 16)...)
	_, err := ExtractMetadata(data)
	if !errors.Is(err, asset.ErrUnidentifiableMedia) {
		t.Fatalf("expected ErrUnidentifiableMedia, got %v", err)
	}
}
