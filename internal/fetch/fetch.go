// Package fetch retrieves template content by reference.
//
// A reference is a slash-separated relative path such as "src/main.cpp" or
// "readme/run-vs.md". Every backend reports a missing reference as
// ErrNotFound so callers and Overlay can tell it apart from transport
// failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ErrNotFound is returned when a reference does not exist in a source.
var ErrNotFound = errors.New("template not found")

// Source retrieves the content behind a reference.
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

func checkRef(ref string) error {
	if !fs.ValidPath(ref) || ref == "." {
		return fmt.Errorf("invalid template reference %q", ref)
	}
	return nil
}

// ---------------------------------------------------------------------------
// File system
// ---------------------------------------------------------------------------

// FS reads references from a file system: a local template directory
// (os.DirFS) or an embedded tree.
type FS struct {
	FS fs.FS
}

func (s FS) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := fs.ReadFile(s.FS, ref)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------

// DefaultHTTPTimeout bounds a single template download.
const DefaultHTTPTimeout = 30 * time.Second

// HTTP downloads references relative to BaseURL.
type HTTP struct {
	BaseURL string
	Client  *http.Client // nil means a client with DefaultHTTPTimeout
}

func (s HTTP) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	u, err := url.JoinPath(s.BaseURL, ref)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", ref, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", ref, err)
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("get %s: status=%d body=%s", ref, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Google Cloud Storage
// ---------------------------------------------------------------------------

// GCS reads references as objects named Prefix+ref in a bucket.
type GCS struct {
	Bucket *storage.BucketHandle
	Prefix string
}

func (s GCS) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	key := s.Prefix + ref
	r, err := s.Bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open gs object %s: %w", key, err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs object %s: %w", key, err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Overlay
// ---------------------------------------------------------------------------

type overlay []Source

// Overlay returns a source that asks each source in turn and returns the
// first answer that is not ErrNotFound.
func Overlay(sources ...Source) Source {
	return overlay(sources)
}

func (o overlay) Fetch(ctx context.Context, ref string) ([]byte, error) {
	for _, s := range o {
		b, err := s.Fetch(ctx, ref)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return b, err
	}
	return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
}
