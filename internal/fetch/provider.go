package fetch

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Question describes a single configuration prompt for a provider.
type Question struct {
	Key      string
	Prompt   string
	Required bool
}

// Provider builds a Source from stored settings. Every template backend the
// CLI can be configured with implements it.
type Provider interface {
	// Name returns the provider's config identifier (e.g. "dir").
	Name() string

	// Configure returns the questions `scaffolder init` asks for this provider.
	Configure() []Question

	// Open validates settings and returns the source plus a cleanup func that
	// is always non-nil.
	Open(ctx context.Context, settings map[string]string) (Source, func(), error)
}

// providers is the registry of template backends.
var providers = map[string]Provider{
	"dir":  DirProvider{},
	"http": HTTPProvider{},
	"gcs":  GCSProvider{},
}

// Lookup returns the provider registered under name.
func Lookup(name string) (Provider, error) {
	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown template source %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open looks up the provider and opens it.
func Open(ctx context.Context, name string, settings map[string]string) (Source, func(), error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, noop, err
	}
	for _, q := range p.Configure() {
		if q.Required && strings.TrimSpace(settings[q.Key]) == "" {
			return nil, noop, fmt.Errorf("%s: missing required setting %q", name, q.Key)
		}
	}
	return p.Open(ctx, settings)
}

func noop() {}

// ---------------------------------------------------------------------------
// dir
// ---------------------------------------------------------------------------

// DirProvider serves templates from a local directory.
type DirProvider struct{}

func (DirProvider) Name() string { return "dir" }

func (DirProvider) Configure() []Question {
	return []Question{
		{Key: "root", Prompt: "Template directory", Required: true},
	}
}

func (DirProvider) Open(_ context.Context, settings map[string]string) (Source, func(), error) {
	root := settings["root"]
	info, err := os.Stat(root)
	if err != nil {
		return nil, noop, fmt.Errorf("dir: template root: %w", err)
	}
	if !info.IsDir() {
		return nil, noop, fmt.Errorf("dir: template root %s is not a directory", root)
	}
	return FS{FS: os.DirFS(root)}, noop, nil
}

// ---------------------------------------------------------------------------
// http
// ---------------------------------------------------------------------------

// HTTPProvider serves templates from a web server, the way the browser
// front-end fetched them.
type HTTPProvider struct{}

func (HTTPProvider) Name() string { return "http" }

func (HTTPProvider) Configure() []Question {
	return []Question{
		{Key: "base_url", Prompt: "Template base URL", Required: true},
	}
}

func (HTTPProvider) Open(_ context.Context, settings map[string]string) (Source, func(), error) {
	base := strings.TrimSpace(settings["base_url"])
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, noop, fmt.Errorf("http: base_url %q must start with http:// or https://", base)
	}
	return HTTP{BaseURL: base, Client: &http.Client{Timeout: DefaultHTTPTimeout}}, noop, nil
}

// ---------------------------------------------------------------------------
// gcs
// ---------------------------------------------------------------------------

// GCSProvider serves templates from a Cloud Storage bucket. Setting
// "endpoint" targets an emulator without authentication.
type GCSProvider struct{}

func (GCSProvider) Name() string { return "gcs" }

func (GCSProvider) Configure() []Question {
	return []Question{
		{Key: "bucket", Prompt: "GCS bucket name", Required: true},
		{Key: "prefix", Prompt: "Object prefix (optional, e.g. templates/)"},
		{Key: "endpoint", Prompt: "Emulator endpoint (optional)"},
	}
}

func (GCSProvider) Open(ctx context.Context, settings map[string]string) (Source, func(), error) {
	var opts []option.ClientOption
	if ep := strings.TrimRight(strings.TrimSpace(settings["endpoint"]), "/"); ep != "" {
		opts = append(opts, option.WithoutAuthentication(), option.WithEndpoint(ep+"/storage/v1/"))
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, noop, fmt.Errorf("gcs: create client: %w", err)
	}
	prefix := strings.TrimSpace(settings["prefix"])
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	src := GCS{Bucket: client.Bucket(settings["bucket"]), Prefix: prefix}
	return src, func() { _ = client.Close() }, nil
}
