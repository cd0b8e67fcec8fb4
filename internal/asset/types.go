// Package asset defines the canonical record produced by every ingestion
// path and the error taxonomy shared by the pipeline components.
package asset

import (
	"path"
	"strings"
	"time"
)

// ThumbnailPrefix is the key prefix under which derived thumbnails are
// stored. The thumbnail for a primary asset named N lives at
// ThumbnailPrefix + N.
const ThumbnailPrefix = "thumbs/THUMB_"

// Record is the canonical metadata result of one ingestion call. It is
// constructed fresh per call and never mutated after being returned; the
// caller owns its persistence.
type Record struct {
	// Type is the detected MIME type, or "embed/<provider>" for embeds.
	Type    string `json:"type"`
	Charset string `json:"charset"`
	// Size is the byte length of the stored asset. For video embeds it
	// holds the duration in seconds instead.
	Size int64 `json:"size"`
	// Name is the final storage key, unique within the adapter namespace.
	Name     string `json:"name"`
	Title    string `json:"title"`
	Caption  string `json:"caption"`
	Tags     string `json:"tags"`
	Location string `json:"location"`
	// Width and Height are set for image and video types only. They are
	// always both set or both nil.
	Width          *int      `json:"width"`
	Height         *int      `json:"height"`
	DateUploaded   time.Time `json:"date_uploaded"`
	StorageAdapter string    `json:"storage_adapter"`
	// URL holds the provider asset id for embeds, or the data URL of a
	// fetched remote image. Empty otherwise.
	URL string `json:"url,omitempty"`
	// Data is a base64 data URL of a preview image. Embeds only.
	Data string `json:"data,omitempty"`
}

// IsEmbed reports whether the record represents a remote video reference
// rather than locally authored bytes.
func (r Record) IsEmbed() bool {
	return strings.HasPrefix(r.Type, "embed/")
}

// ThumbnailKey returns the storage key of the record's derived thumbnail,
// or "" when the name carries no file extension.
func (r Record) ThumbnailKey() string {
	if path.Ext(r.Name) == "" {
		return ""
	}
	return ThumbnailPrefix + r.Name
}

// TitleFromFileName derives a human readable title from a file name:
// "my-photo_set.jpg" becomes "My Photo Set".
func TitleFromFileName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// IntPtr returns a pointer to v. Helper for the Width/Height fields.
func IntPtr(v int) *int {
	return &v
}
