// Package readme composes the scaffold's README.md from prose fragments.
//
// Compose decides which fragments apply to an (IDE, build tool) pair; Render
// splices the fetched fragment bodies, verbatim, between fixed text segments.
// All conditioning happens in Compose.
package readme

import (
	"errors"
	"fmt"
)

// ErrMissingFragment is returned by Render when a key has no body.
var ErrMissingFragment = errors.New("missing fragment")

// UnsupportedError names an (IDE, build tool) pair outside the decision table.
type UnsupportedError struct {
	IDE       string
	BuildTool string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported combination: ide %q with build tool %q", e.IDE, e.BuildTool)
}

// segments surround the four fragments: compiler, install, prepare, run.
var segments = []string{
	"# `Mini-Lisp` Scaffold\n\n## Preparation\n\n",
	"",
	"",
	"\n## Build, Run and Debug\n\n",
	"",
}

const compilerKey = "compiler"

var installByTool = map[string]string{
	"sln":   "install-vs",
	"cmake": "install-cmake",
	"xmake": "install-xmake",
}

var prepareByIDE = map[string]string{
	"vs":    "prepare-vs",
	"clion": "prepare-clion",
}

// vscodePrepareByTool covers VS Code, whose integration depends on the build tool.
var vscodePrepareByTool = map[string]string{
	"cmake": "prepare-vscode-cmake",
	"xmake": "prepare-vscode-xmake",
}

var runByIDE = map[string]string{
	"vs":     "run-vs",
	"clion":  "run-clion",
	"vscode": "run-vscode",
}

type pair struct{ ide, buildTool string }

// supported lists the (IDE, build tool) pairs a scaffold exists for.
var supported = map[pair]bool{
	{"vs", "sln"}:       true,
	{"vscode", "cmake"}: true,
	{"vscode", "xmake"}: true,
	{"clion", "cmake"}:  true,
}

// Compose returns the fragment keys for ide and buildTool in render order.
func Compose(ide, buildTool string) ([]string, error) {
	unsupported := &UnsupportedError{IDE: ide, BuildTool: buildTool}
	if !supported[pair{ide, buildTool}] {
		return nil, unsupported
	}

	run, ok := runByIDE[ide]
	if !ok {
		return nil, unsupported
	}
	install, ok := installByTool[buildTool]
	if !ok {
		return nil, unsupported
	}
	prepare, ok := prepareByIDE[ide]
	if ide == "vscode" {
		prepare, ok = vscodePrepareByTool[buildTool]
	}
	if !ok {
		return nil, unsupported
	}
	return []string{compilerKey, install, prepare, run}, nil
}

// Ref returns the retrieval reference of a fragment key.
func Ref(key string) string {
	return "readme/" + key + ".md"
}

// Render concatenates the static segments with the bodies of keys, looked up
// in fragments by key.
func Render(keys []string, fragments map[string]string) (string, error) {
	if len(keys) != len(segments)-1 {
		return "", fmt.Errorf("render: want %d fragments, got %d", len(segments)-1, len(keys))
	}
	size := 0
	for _, s := range segments {
		size += len(s)
	}
	bodies := make([]string, len(keys))
	for i, k := range keys {
		body, ok := fragments[k]
		if !ok {
			return "", fmt.Errorf("render: %w %q", ErrMissingFragment, k)
		}
		bodies[i] = body
		size += len(body)
	}

	buf := make([]byte, 0, size)
	for i, s := range segments {
		buf = append(buf, s...)
		if i < len(bodies) {
			buf = append(buf, bodies[i]...)
		}
	}
	return string(buf), nil
}
