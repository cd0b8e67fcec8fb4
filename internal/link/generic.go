package link

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/assetpipe/assetpipe/internal/asset"
)

// genericProvider handles arbitrary hyperlinks: response headers supply
// type and size, image bodies additionally yield pixel dimensions. Every
// failure is recoverable — the caller treats link info as unavailable.
type genericProvider struct {
	fetcher *Fetcher
}

func (p *genericProvider) fetch(ctx context.Context, raw string, _ Options) (asset.Record, error) {
	contentType, contentLength, err := p.head(ctx, raw)
	if err != nil {
		return asset.Record{}, fmt.Errorf("%w: %v", asset.ErrLinkUnavailable, err)
	}

	body, err := p.fetcher.get(ctx, raw)
	if err != nil {
		return asset.Record{}, fmt.Errorf("%w: %v", asset.ErrLinkUnavailable, err)
	}

	size := contentLength
	if size <= 0 {
		size = int64(len(body))
	}

	base := linkBaseName(raw)
	record := asset.Record{
		Type:    contentType,
		Name:    base,
		Title:   strings.TrimSuffix(base, path.Ext(base)),
		Charset: "binary",
		Size:    size,
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
	record.Data = dataURL

	if strings.HasPrefix(contentType, "image/") {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(body)); err == nil {
			record.Width = asset.IntPtr(cfg.Width)
			record.Height = asset.IntPtr(cfg.Height)
			// The url field carries the data URL only when dimensions
			// were determined.
			record.URL = dataURL
		}
	}
	return record, nil
}

func (p *genericProvider) head(ctx context.Context, raw string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.fetcher.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("head %s: %w", raw, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("head %s: status %d", raw, resp.StatusCode)
	}
	return resp.Header.Get("Content-Type"), resp.ContentLength, nil
}

func linkBaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "link"
	}
	return path.Base(u.Path)
}
