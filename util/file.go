package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MaxSourceBytes bounds how much ReadSource accepts from a URL.
const MaxSourceBytes = 64 << 20

// IsURL reports whether src is an http(s) URL.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// ReadSource returns the raw bytes of a local file or an http(s) URL.
func ReadSource(ctx context.Context, src string) ([]byte, error) {
	if IsURL(src) {
		return download(ctx, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return data, nil
}

// SourceName returns the base name of src without its extension, for naming
// derived outputs.
func SourceName(src string) string {
	base := filepath.Base(src)
	if IsURL(src) {
		u := src
		if i := strings.IndexAny(u, "?#"); i >= 0 {
			u = u[:i]
		}
		base = path.Base(u)
	}
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	return name
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status code %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxSourceBytes {
		return nil, fmt.Errorf("download %s: larger than %d bytes", url, MaxSourceBytes)
	}
	return data, nil
}
