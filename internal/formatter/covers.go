package formatter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/qbx/internal/models"
)

var coverNameReplacer = strings.NewReplacer(":", "-", "/", "-")

// CoverFilename returns "<artist> - <title>.<id>.jpg" with ':' and '/' replaced by '-'.
func CoverFilename(album models.Album) string {
	return coverNameReplacer.Replace(fmt.Sprintf("%s - %s.%s.jpg", album.Artist.Name, album.Title, album.ID))
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// SaveCover downloads the album cover of the given size into dir.
//
// It returns the file path and whether a download happened; an existing file is left untouched.
func SaveCover(ctx context.Context, client *http.Client, album models.Album, dir, size string) (string, bool, error) {
	path := filepath.Join(dir, CoverFilename(album))
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	data, err := DownloadImage(ctx, client, album.Image.URL(size))
	if err != nil {
		return path, false, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return path, false, fmt.Errorf("failed to create cover directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return path, false, fmt.Errorf("failed to save cover image: %w", err)
	}
	return path, true, nil
}
