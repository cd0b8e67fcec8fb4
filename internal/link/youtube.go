package link

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/assetpipe/assetpipe/internal/asset"
)

type youtubeProvider struct {
	fetcher   *Fetcher
	apiBase   string
	imageBase string
}

// youtubeVideosResponse is the subset of the videos API response the
// pipeline consumes.
type youtubeVideosResponse struct {
	Items []struct {
		Snippet struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Tags        []string `json:"tags"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *youtubeProvider) fetch(ctx context.Context, raw string, opts Options) (asset.Record, error) {
	videoID := youtubeVideoID(raw)
	if videoID == "" {
		return asset.Record{}, &asset.ProviderIdentifierError{Provider: "YouTube"}
	}

	record := asset.Record{
		URL:          videoID,
		Type:         "embed/youtube",
		Name:         "youtube_" + videoID + ".jpg",
		Width:        asset.IntPtr(embedWidth),
		Height:       asset.IntPtr(embedHeight),
		DateUploaded: p.fetcher.now().UTC().Truncate(time.Second),
	}

	if opts.YouTubeAPIKey != "" {
		if err := p.fillFromAPI(ctx, &record, videoID, opts.YouTubeAPIKey); err != nil {
			return asset.Record{}, err
		}
	} else {
		record.Title = "YouTube video: " + videoID
		record.Size = 0
	}

	// Static preview image, embedded as a data URL. Failures degrade to
	// an absent preview.
	preview, err := p.fetcher.get(ctx, fmt.Sprintf("%s/vi/%s/0.jpg", p.imageBase, videoID))
	if err != nil {
		p.fetcher.logger.Warn("youtube preview fetch failed",
			slog.String("video_id", videoID),
			slog.Any("error", err),
		)
	} else {
		record.Data = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(preview)
	}
	return record, nil
}

// fillFromAPI queries the videos API. A payload-level error means the
// configured key was rejected; transport or shape failures degrade to a
// generic title and zero duration.
func (p *youtubeProvider) fillFromAPI(ctx context.Context, record *asset.Record, videoID, apiKey string) error {
	endpoint := fmt.Sprintf("%s/videos?id=%s&key=%s&part=snippet,contentDetails",
		p.apiBase, url.QueryEscape(videoID), url.QueryEscape(apiKey))

	degrade := func(reason error) {
		p.fetcher.logger.Warn("youtube metadata unavailable",
			slog.String("video_id", videoID),
			slog.Any("error", fmt.Errorf("%w: %v", asset.ErrProviderUnavailable, reason)),
		)
		record.Title = "Unable to retrieve YouTube title"
		record.Size = 0
	}

	body, err := p.fetcher.get(ctx, endpoint)
	if err != nil {
		degrade(err)
		return nil
	}
	var parsed youtubeVideosResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		degrade(err)
		return nil
	}

	switch {
	case len(parsed.Items) > 0:
		snippet := parsed.Items[0].Snippet
		record.Title = snippet.Title
		record.Caption = snippet.Description
		record.Tags = strings.Join(snippet.Tags, ",")
		record.Size = parseISODuration(parsed.Items[0].ContentDetails.Duration)
	case parsed.Error != nil:
		return &asset.ProviderCredentialError{Provider: "YouTube"}
	default:
		degrade(fmt.Errorf("empty items in response"))
	}
	return nil
}

func youtubeVideoID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseISODuration converts an ISO-8601 style duration ("PT1H2M3S") into
// whole seconds. Unparseable input yields zero.
func parseISODuration(value string) int64 {
	m := isoDuration.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0
	}
	units := []int64{86400, 3600, 60, 1}
	var total int64
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}
