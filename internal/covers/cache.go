// Package covers materializes cover art on local disk. A cover can be a
// remote URL or a data URI produced by generation; either way the cover
// route serves a local file.
package covers

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vincent-petithory/dataurl"
)

// Cache handles local caching of book cover images.
type Cache struct {
	cacheDir   string
	httpClient *http.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Resolve returns the local path of a book's cover, materializing it on
// first access. Returns empty string when there is nothing to serve.
func (c *Cache) Resolve(bookID, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, c.coverFilename(bookID, coverURL))

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	var err error
	if strings.HasPrefix(coverURL, "data:") {
		err = c.decodeAndCache(coverURL, cachePath)
	} else {
		err = c.fetchAndCache(coverURL, cachePath)
	}
	if err != nil {
		return "", err
	}

	return cachePath, nil
}

// Invalidate removes all cached covers for a book. Called when the book is
// edited or deleted; the next access re-materializes the current cover.
func (c *Cache) Invalidate(bookID string) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%s_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// coverFilename generates a unique filename based on book ID and URL hash.
func (c *Cache) coverFilename(bookID, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%s_%x.img", bookID, hash[:8])
}

// decodeAndCache writes an inline data URI cover to the cache.
func (c *Cache) decodeAndCache(uri, cachePath string) error {
	du, err := dataurl.DecodeString(uri)
	if err != nil {
		return fmt.Errorf("decode cover data uri: %w", err)
	}
	return c.writeAtomic(cachePath, func(w io.Writer) error {
		_, err := w.Write(du.Data)
		return err
	})
}

// fetchAndCache downloads a cover image and saves it to the cache.
func (c *Cache) fetchAndCache(url, cachePath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Libris/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	return c.writeAtomic(cachePath, func(w io.Writer) error {
		_, err := io.Copy(w, resp.Body)
		return err
	})
}

// writeAtomic writes through a temp file in the cache dir and renames.
func (c *Cache) writeAtomic(cachePath string, fill func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if err := fill(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, cachePath)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
