package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"

	"scaffolder/internal/catalog"
	"scaffolder/internal/fetch"
	"scaffolder/internal/generate"
	"scaffolder/internal/manifest"
	"scaffolder/internal/templates"
)

func newTestRouter(t *testing.T, files fstest.MapFS) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gen := &generate.Generator{
		Source: fetch.Overlay(fetch.FS{FS: files}, fetch.FS{FS: templates.Readme}),
	}
	return NewRouter(RouterConfig{
		ScaffoldHandler: NewScaffoldHandler(gen),
		HealthHandler:   NewHealthHandler(),
		AllowedOrigins:  []string{"http://localhost:5173"},
	})
}

func templateFS(t *testing.T) fstest.MapFS {
	t.Helper()
	m := fstest.MapFS{}
	for _, combo := range catalog.Default().Combinations() {
		c, _ := manifest.FromSelections(combo)
		entries, err := manifest.Resolve(c)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			m[e.Source] = &fstest.MapFile{Data: []byte(e.Source)}
		}
	}
	return m
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return env.Error
}

func TestHealthCheck(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestStepsReplaysSelection(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/api/steps?selected=mac,vscode", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Selections []string `json:"selections"`
		Complete   bool     `json:"complete"`
		Steps      []struct {
			Index    int    `json:"index"`
			Selected string `json:"selected"`
			Options  []struct {
				ID       string `json:"id"`
				Disabled bool   `json:"disabled"`
			} `json:"options"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Complete || len(resp.Steps) != 3 {
		t.Fatalf("complete=%v steps=%d, want 3 visible steps", resp.Complete, len(resp.Steps))
	}
	if resp.Steps[0].Selected != "mac" || resp.Steps[1].Selected != "vscode" || resp.Steps[2].Selected != "" {
		t.Errorf("selected = %q %q %q", resp.Steps[0].Selected, resp.Steps[1].Selected, resp.Steps[2].Selected)
	}
	disabled := map[string]bool{}
	for _, o := range resp.Steps[2].Options {
		disabled[o.ID] = o.Disabled
	}
	want := map[string]bool{"msvc": true, "mingw": true, "apple-clang": false}
	for id, d := range want {
		if disabled[id] != d {
			t.Errorf("%s disabled = %v, want %v", id, disabled[id], d)
		}
	}
}

func TestStepsEmptySelection(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/api/steps", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp StepsResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Steps) != 1 {
		t.Errorf("visible steps = %d, want 1", len(resp.Steps))
	}
}

func TestStepsRejectsDisabledChoice(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/api/steps?selected=mac,vs", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "E_CONTRACT" {
		t.Errorf("code = %q", e.Code)
	}
}

func TestCombinations(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/api/combinations", "")
	var resp struct {
		Combinations [][]string `json:"combinations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Combinations) != 10 {
		t.Errorf("got %d combinations, want 10", len(resp.Combinations))
	}
}

func TestGenerateDownloadsArchive(t *testing.T) {
	r := newTestRouter(t, templateFS(t))
	rec := do(r, http.MethodPost, "/api/generate", `{"selections":["windows","vs","msvc","sln"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="mini_lisp.zip"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	blob := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"README.md", "mini-lisp.sln", "main.cpp", ".clang-format"} {
		if !names[want] {
			t.Errorf("archive missing %s", want)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	files := templateFS(t)
	delete(files, "configs/xmake.lua")
	r := newTestRouter(t, files)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"selections":`, http.StatusBadRequest, "E_CONTRACT"},
		{"missing selections", `{}`, http.StatusBadRequest, "E_CONTRACT"},
		{"illegal tuple", `{"selections":["mac","clion","apple-clang","xmake"]}`, http.StatusBadRequest, "E_CONTRACT"},
		{"missing template", `{"selections":["mac","vscode","apple-clang","xmake"]}`, http.StatusBadGateway, "E_RETRIEVAL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/generate", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.status, rec.Body.String())
			}
			if e := decodeError(t, rec); e.Code != tc.code {
				t.Errorf("code = %q, want %q", e.Code, tc.code)
			}
			if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/zip") {
				t.Error("failed generation must not deliver an archive")
			}
		})
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[generate.Kind]int{
		generate.EContract:               http.StatusBadRequest,
		generate.EUnsupportedCombination: http.StatusBadRequest,
		generate.ERetrieval:              http.StatusBadGateway,
		generate.EPackaging:              http.StatusInternalServerError,
		generate.EDelivery:               http.StatusInternalServerError,
		"":                               http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := statusFor(kind); got != want {
			t.Errorf("statusFor(%q) = %d, want %d", kind, got, want)
		}
	}
}
