package settings

import (
	"context"
	"strconv"
)

// Static serves settings from an in-memory map of collections. Used when
// the pipeline runs without a database, and by tests.
type Static struct {
	collections map[string]map[string]string
}

// NewStatic creates a static provider over the given collections.
func NewStatic(collections map[string]map[string]string) *Static {
	if collections == nil {
		collections = map[string]map[string]string{}
	}
	return &Static{collections: collections}
}

// NewStaticFiles creates a static provider holding only the files
// collection built from a typed Files value.
func NewStaticFiles(fs Files) *Static {
	values := map[string]string{
		KeyThumbnailSize:    strconv.Itoa(fs.ThumbnailSize),
		KeyThumbnailQuality: strconv.Itoa(fs.ThumbnailQuality),
		KeyFileNaming:       fs.FileNaming,
	}
	if fs.ThumbnailCropEnabled {
		values[KeyThumbnailCropEnabled] = "1"
	}
	if fs.YouTubeAPIKey != "" {
		values[KeyYouTubeAPIKey] = fs.YouTubeAPIKey
	}
	return NewStatic(map[string]map[string]string{CollectionFiles: values})
}

// Collection returns the requested keys of a collection.
func (s *Static) Collection(_ context.Context, name string, keys []string) (map[string]string, error) {
	source := s.collections[name]
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := source[key]; ok {
			result[key] = value
		}
	}
	return result, nil
}
