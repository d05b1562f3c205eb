package www

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/nmc"
)

type Downloader interface {
	Download(ctx context.Context, u string) ([]byte, string, error)
}

type cachedImage struct {
	url         string
	contentType string
	data        []byte
}

// imageCache holds the last downloaded bytes per image kind. An image is
// downloaded again only when the snapshot points at a new url.
type imageCache struct {
	mu      sync.Mutex
	dl      Downloader
	entries map[nmc.ImageKind]cachedImage
}

func newImageCache(dl Downloader) *imageCache {
	return &imageCache{dl: dl, entries: make(map[nmc.ImageKind]cachedImage)}
}

func (c *imageCache) get(ctx context.Context, img nmc.Image) (cachedImage, error) {
	c.mu.Lock()
	e, ok := c.entries[img.Kind]
	c.mu.Unlock()
	if ok && e.url == img.URL {
		return e, nil
	}

	data, contentType, err := c.dl.Download(ctx, img.URL)
	if err != nil {
		return cachedImage{}, err
	}
	e = cachedImage{url: img.URL, contentType: contentType, data: data}

	c.mu.Lock()
	c.entries[img.Kind] = e
	c.mu.Unlock()
	return e, nil
}

func NewImageHandler(logger *slog.Logger, coord *coordinator.Coordinator, dl Downloader) http.HandlerFunc {
	cache := newImageCache(dl)
	return func(w http.ResponseWriter, r *http.Request) {
		kind := nmc.ImageKind(r.PathValue("kind"))

		s := coord.Current()
		if s == nil {
			http.Error(w, "no weather data yet", http.StatusServiceUnavailable)
			return
		}
		img, ok := s.Image(kind)
		if !ok {
			http.NotFound(w, r)
			return
		}

		e, err := cache.get(r.Context(), img)
		if err != nil {
			logger.Error("downloading image", slog.String("kind", string(kind)), slog.Any("error", err))
			http.Error(w, "image unavailable", http.StatusBadGateway)
			return
		}

		if e.contentType != "" {
			w.Header().Set("Content-Type", e.contentType)
		}
		w.Header().Set("Cache-Control", "max-age=300")
		if _, err := w.Write(e.data); err != nil {
			logger.Debug("writing image", slog.Any("error", err))
		}
	}
}
