package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/IshaanNene/shelfwatch/internal/config"
	"github.com/IshaanNene/shelfwatch/internal/observability"
	"github.com/IshaanNene/shelfwatch/internal/types"
)

// copyChunkSize is the buffer size for streaming image bodies to disk.
const copyChunkSize = 8 * 1024

// ImageStore downloads product images into a local directory. Repeat
// downloads of the same URL are served from an LRU cache of resolved
// paths without touching the network.
type ImageStore struct {
	client  *http.Client
	dir     string
	cache   *lru.Cache[string, string]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewImageStore creates the image directory and the path cache.
func NewImageStore(cfg config.ImagesConfig, logger *slog.Logger, metrics *observability.Metrics) (*ImageStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create path cache: %w", err)
	}

	return &ImageStore{
		client:  &http.Client{Timeout: 60 * time.Second},
		dir:     cfg.Dir,
		cache:   cache,
		logger:  logger.With("component", "image_store"),
		metrics: metrics,
	}, nil
}

// Download fetches an image, streams it to disk in fixed-size chunks,
// and returns the local path. The filename combines the sanitized
// product title with a hash of the URL, so two products sharing a title
// never overwrite each other's image.
func (s *ImageStore) Download(ctx context.Context, imageURL, title string) (string, error) {
	if imageURL == "" {
		return "", &types.DownloadError{URL: imageURL, Err: fmt.Errorf("no image URL")}
	}

	if cached, ok := s.cache.Get(imageURL); ok {
		s.metrics.IncImageDownloaded("cached")
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		s.metrics.IncImageDownloaded("failed")
		return "", &types.DownloadError{URL: imageURL, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.IncImageDownloaded("failed")
		return "", &types.DownloadError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.metrics.IncImageDownloaded("failed")
		return "", &types.DownloadError{
			URL:        imageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	localPath := filepath.Join(s.dir, filename(title, imageURL, resp.Header.Get("Content-Type")))

	f, err := os.Create(localPath)
	if err != nil {
		s.metrics.IncImageDownloaded("failed")
		return "", &types.DownloadError{URL: imageURL, Err: fmt.Errorf("create file: %w", err)}
	}
	defer f.Close()

	size, err := io.CopyBuffer(f, resp.Body, make([]byte, copyChunkSize))
	if err != nil {
		os.Remove(localPath)
		s.metrics.IncImageDownloaded("failed")
		return "", &types.DownloadError{URL: imageURL, Err: fmt.Errorf("write file: %w", err)}
	}

	s.cache.Add(imageURL, localPath)
	s.metrics.IncImageDownloaded("ok")

	s.logger.Debug("image downloaded",
		"url", imageURL,
		"path", localPath,
		"size", size,
	)

	return localPath, nil
}

// Dir returns the image directory.
func (s *ImageStore) Dir() string {
	return s.dir
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// filename builds "<sanitized-title>-<url-hash><ext>".
func filename(title, imageURL, contentType string) string {
	base := sanitizeTitle(title)
	hash := sha256.Sum256([]byte(imageURL))
	return base + "-" + hex.EncodeToString(hash[:4]) + extensionFor(imageURL, contentType)
}

// sanitizeTitle reduces a product title to a safe filename stem.
func sanitizeTitle(title string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(title), "-")
	s = strings.Trim(s, "-.")
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-.")
	}
	if s == "" {
		return "image"
	}
	return s
}

// extensionFor picks a file extension from the URL path, falling back
// to the response Content-Type.
func extensionFor(imageURL, contentType string) string {
	if parsed, err := url.Parse(imageURL); err == nil {
		if ext := path.Ext(parsed.Path); ext != "" && len(ext) <= 5 {
			return ext
		}
	}

	switch ct := strings.ToLower(contentType); {
	case strings.HasPrefix(ct, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(ct, "image/png"):
		return ".png"
	case strings.HasPrefix(ct, "image/webp"):
		return ".webp"
	case strings.HasPrefix(ct, "image/gif"):
		return ".gif"
	}

	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}
