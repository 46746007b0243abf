// Package loader implements the fetch strategies behind pkg/modelfile: local
// files, fs.FS entries, and HTTP endpoints.
package loader

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// File reads a document from the local filesystem.
func File(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("modelfile loader: file path is required")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// FS reads a document from an fs.FS.
func FS(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("modelfile loader: fs path is required")
	}
	if files == nil {
		return nil, errors.New("modelfile loader: fs is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return fs.ReadFile(files, name)
}

// HTTP fetches a document from an HTTP/HTTPS endpoint.
func HTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	if client == nil {
		return nil, errors.New("modelfile loader: http client is not configured")
	}
	if url == "" {
		return nil, errors.New("modelfile loader: url is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("modelfile loader: unexpected status " + resp.Status)
	}

	return io.ReadAll(resp.Body)
}
