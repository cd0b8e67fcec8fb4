// Package thumbnail derives resized re-encodings of qualifying primary
// assets. Generation is best-effort from the orchestrator's point of view:
// a non-qualifying format is a skip, never a failure.
package thumbnail

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	// PSD decoding support for image.Decode.
	_ "github.com/oov/psd"

	"github.com/assetpipe/assetpipe/internal/asset"
)

// Options control the derived image.
type Options struct {
	// MaxDimension is the target length of the longer edge.
	MaxDimension int
	// Quality is the re-encode quality (1-100) for lossy targets.
	Quality int
	// Crop center-crops to a MaxDimension square instead of preserving
	// the aspect ratio.
	Crop bool
}

// qualifying maps lowercase extensions to the thumbnail encode target.
// PDF qualifies but has no pure-Go rasterizer, so it maps to the skip
// sentinel and degrades to "no thumbnail".
var qualifying = map[string]imaging.Format{
	"jpg":  imaging.JPEG,
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
	"tif":  imaging.TIFF,
	"tiff": imaging.TIFF,
	"psd":  imaging.JPEG, // rasterized; JPEG chosen as the raster target
	"pdf":  formatNone,
}

const formatNone imaging.Format = -1

// Qualifies reports whether ext (with or without a leading dot, any case)
// belongs to the thumbnail-eligible format set.
func Qualifies(ext string) bool {
	_, ok := qualifying[normalizeExt(ext)]
	return ok
}

// Generate produces a resized re-encoding of data, or (nil, nil) when the
// extension does not qualify or cannot be rasterized. Decode failures are
// extraction faults; the caller must not write a partial thumbnail.
func Generate(data []byte, ext string, opts Options) ([]byte, error) {
	format, ok := qualifying[normalizeExt(ext)]
	if !ok || format == formatNone {
		return nil, nil
	}
	if opts.MaxDimension <= 0 {
		return nil, fmt.Errorf("max dimension must be positive")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode thumbnail source: %v", asset.ErrUnidentifiableMedia, err)
	}

	if opts.Crop {
		img = imaging.Fill(img, opts.MaxDimension, opts.MaxDimension, imaging.Center, imaging.Lanczos)
	} else {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
