// Package generate is the generation entry point: it turns a complete
// selection sequence into one zip archive and hands it to a delivery
// collaborator.
//
// A generation either yields a whole archive or fails with a single *Error;
// nothing is delivered on failure. Every call builds its own state, so one
// Generator may serve concurrent requests.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scaffolder/internal/archive"
	"scaffolder/internal/catalog"
	"scaffolder/internal/fetch"
	"scaffolder/internal/logger"
	"scaffolder/internal/manifest"
	"scaffolder/internal/readme"
	"scaffolder/internal/wizard"
)

const (
	DefaultArchiveName = "mini_lisp.zip"
	DefaultConcurrency = 8
)

// Generator assembles scaffolds. Only Source is required.
type Generator struct {
	Catalog     *catalog.Catalog // nil means catalog.Default()
	Source      fetch.Source
	Log         *logger.Logger // nil discards
	Concurrency int            // max parallel fetches; <= 0 means DefaultConcurrency
	ArchiveName string         // "" means DefaultArchiveName
}

// Artifact is a finished scaffold.
type Artifact struct {
	Name  string
	Blob  []byte
	Files []string // archive paths, sorted
	Tree  *archive.Tree
}

// Deliverer hands a finished archive to the user.
type Deliverer interface {
	Deliver(ctx context.Context, name string, blob []byte) error
}

func (g *Generator) catalog() *catalog.Catalog {
	if g.Catalog == nil {
		return catalog.Default()
	}
	return g.Catalog
}

func (g *Generator) log() *logger.Logger {
	if g.Log == nil {
		return logger.Nop()
	}
	return g.Log
}

func (g *Generator) name() string {
	if g.ArchiveName == "" {
		return DefaultArchiveName
	}
	return g.ArchiveName
}

// Generate builds the archive for selections, one option id per step in
// catalog order.
func (g *Generator) Generate(ctx context.Context, selections []string) (*Artifact, error) {
	start := time.Now()
	log := g.log().With("run_id", uuid.NewString())
	log.Info("generation started", "selections", selections)

	art, err := g.generate(ctx, log, selections)
	if err != nil {
		log.Error("generation failed", "kind", string(KindOf(err)), "error", err)
		return nil, err
	}
	log.Info("generation finished",
		"files", len(art.Files),
		"bytes", len(art.Blob),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return art, nil
}

func (g *Generator) generate(ctx context.Context, log *logger.Logger, selections []string) (*Artifact, error) {
	cat := g.catalog()
	if len(selections) != cat.Len() {
		return nil, wrap(EContract, fmt.Sprintf("want %d selections, got %d", cat.Len(), len(selections)), nil)
	}
	if _, err := wizard.Replay(cat, selections); err != nil {
		return nil, wrap(EContract, "invalid selection", err)
	}
	choice, err := manifest.FromSelections(selections)
	if err != nil {
		return nil, wrap(EContract, "invalid selection", err)
	}

	entries, err := manifest.Resolve(choice)
	if err != nil {
		return nil, wrap(EUnsupportedCombination, "resolve manifest", err)
	}
	if err := manifest.Validate(entries); err != nil {
		return nil, wrap(EPackaging, "validate manifest", err)
	}
	keys, err := readme.Compose(choice.IDE, choice.BuildTool)
	if err != nil {
		return nil, wrap(EUnsupportedCombination, "compose readme", err)
	}

	if g.Source == nil {
		return nil, wrap(ERetrieval, "no template source configured", nil)
	}
	refs := manifest.Sources(entries)
	for _, k := range keys {
		refs = append(refs, readme.Ref(k))
	}
	contents, err := g.fetchAll(ctx, log, refs)
	if err != nil {
		return nil, wrap(ERetrieval, "fetch templates", err)
	}

	fragments := make(map[string]string, len(keys))
	for _, k := range keys {
		fragments[k] = string(contents[readme.Ref(k)])
	}
	body, err := readme.Render(keys, fragments)
	if err != nil {
		return nil, wrap(EPackaging, "render readme", err)
	}

	tree := archive.NewTree()
	for _, e := range entries {
		if err := tree.Add(e.Dest, contents[e.Source]); err != nil {
			return nil, wrap(EPackaging, "assemble archive", err)
		}
	}
	if err := tree.Add(manifest.ReadmePath, []byte(body)); err != nil {
		return nil, wrap(EPackaging, "assemble archive", err)
	}
	blob, err := tree.Build()
	if err != nil {
		return nil, wrap(EPackaging, "build archive", err)
	}
	return &Artifact{Name: g.name(), Blob: blob, Files: tree.Paths(), Tree: tree}, nil
}

// fetchAll retrieves refs in parallel. Each task writes only its own slot;
// the first failure cancels the rest.
func (g *Generator) fetchAll(ctx context.Context, log *logger.Logger, refs []string) (map[string][]byte, error) {
	limit := g.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	slots := make([][]byte, len(refs))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, ref := range refs {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := g.Source.Fetch(gctx, ref)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Warn("template retrieval failed", "ref", ref, "error", err)
				}
				return fmt.Errorf("%s: %w", ref, err)
			}
			slots[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(refs))
	for i, ref := range refs {
		out[ref] = slots[i]
	}
	return out, nil
}

// Run generates the archive and delivers it. The deliverer is not invoked
// when generation fails.
func (g *Generator) Run(ctx context.Context, selections []string, d Deliverer) (*Artifact, error) {
	art, err := g.Generate(ctx, selections)
	if err != nil {
		return nil, err
	}
	if err := d.Deliver(ctx, art.Name, art.Blob); err != nil {
		g.log().Error("delivery failed", "archive", art.Name, "error", err)
		return nil, wrap(EDelivery, "deliver "+art.Name, err)
	}
	return art, nil
}

// DirDeliverer writes archives into a local directory.
type DirDeliverer struct {
	Dir string
}

// Path returns where an archive called name is written.
func (d DirDeliverer) Path(name string) string {
	return filepath.Join(d.Dir, name)
}

// Deliver writes blob to Dir/name through a temporary file, so an existing
// archive is replaced whole or not at all.
func (d DirDeliverer) Deliver(ctx context.Context, name string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(d.Dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.Path(name)); err != nil {
		return fmt.Errorf("move archive into place: %w", err)
	}
	return nil
}
