package files

import (
	"bytes"
	"fmt"
	"image"
	"mime"
	"strings"

	"github.com/dsoprea/go-iptc"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"github.com/gabriel-vasile/mimetype"

	// Image decoders for dimension extraction.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/assetpipe/assetpipe/internal/asset"
)

// Metadata is the result of content inspection over a raw byte buffer.
type Metadata struct {
	// Type is the MIME type derived from content signatures, never from
	// the file extension.
	Type    string
	Charset string
	// Size is the byte length of the buffer, not a filesystem stat.
	Size   int64
	Width  *int
	Height *int
	// Embedded IPTC descriptive fields. Empty when the container carries
	// none; absence is not an error.
	Caption  string
	Title    string
	Tags     string
	Location string
}

// IPTC record 2 datasets carrying the descriptive fields.
const (
	iptcObjectName  = 5   // title
	iptcKeywords    = 25  // tags
	iptcSublocation = 90  // location part 1
	iptcCity        = 95  // location part 2
	iptcCountry     = 101 // location part 3
	iptcCaption     = 120
)

// ExtractMetadata derives MIME type, charset, size, pixel dimensions and
// embedded descriptive metadata from data. A declared image that fails to
// decode is a hard error; the caller decides whether it aborts ingestion.
func ExtractMetadata(data []byte) (Metadata, error) {
	detected := mimetype.Detect(data)
	mediaType, params, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: parse media type: %v", asset.ErrUnidentifiableMedia, err)
	}
	charset := params["charset"]
	if charset == "" {
		charset = "binary"
	}

	meta := Metadata{
		Type:    mediaType,
		Charset: charset,
		Size:    int64(len(data)),
	}

	if strings.HasPrefix(mediaType, "image/") {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: decode %s: %v", asset.ErrUnidentifiableMedia, mediaType, err)
		}
		meta.Width = asset.IntPtr(cfg.Width)
		meta.Height = asset.IntPtr(cfg.Height)

		if mediaType == "image/jpeg" {
			extractIPTC(data, &meta)
		}
	}
	return meta, nil
}

// extractIPTC fills the descriptive fields from the JPEG's APP13 segment.
// Best-effort: any parse failure leaves the fields empty.
func extractIPTC(data []byte, meta *Metadata) {
	// The dsoprea parsers panic on some malformed segments.
	defer func() {
		_ = recover()
	}()

	mc, err := jpegstructure.NewJpegMediaParser().ParseBytes(data)
	if err != nil {
		return
	}
	segments, ok := mc.(*jpegstructure.SegmentList)
	if !ok {
		return
	}
	tags, err := segments.Iptc()
	if err != nil || len(tags) == 0 {
		return
	}

	meta.Caption = iptcFirst(tags, iptcCaption)
	if title := iptcFirst(tags, iptcObjectName); title != "" {
		meta.Title = title
	}
	if keywords := iptcAll(tags, iptcKeywords); len(keywords) > 0 {
		meta.Tags = strings.Join(keywords, ",")
	}

	var location []string
	for _, dataset := range []int{iptcSublocation, iptcCity, iptcCountry} {
		if part := iptcFirst(tags, dataset); part != "" {
			location = append(location, part)
		}
	}
	meta.Location = strings.Join(location, ", ")
}

func iptcFirst(tags map[iptc.StreamTagKey][]iptc.TagData, dataset int) string {
	values := iptcAll(tags, dataset)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func iptcAll(tags map[iptc.StreamTagKey][]iptc.TagData, dataset int) []string {
	key := iptc.StreamTagKey{RecordNumber: 2, DatasetNumber: uint8(dataset)}
	data, ok := tags[key]
	if !ok {
		return nil
	}
	values := make([]string, 0, len(data))
	for _, td := range data {
		if v := strings.TrimSpace(string(td)); v != "" {
			values = append(values, v)
		}
	}
	return values
}
