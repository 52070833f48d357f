// Package manifest maps a complete set of wizard choices to the files that
// make up the scaffold: where each file is read from and where it lands in
// the archive. It performs no I/O.
package manifest

import (
	"errors"
	"fmt"
	"path"
	"sort"
)

// ReadmePath is the archive path reserved for the composed README.
const ReadmePath = "README.md"

var (
	// ErrUnmapped is returned when a choice has no entry in a lookup table.
	ErrUnmapped = errors.New("no mapping")
	// ErrDuplicateDest is returned when two entries land on the same path.
	ErrDuplicateDest = errors.New("duplicate destination")
)

// Choice is a complete selection in catalog order.
type Choice struct {
	OS        string
	IDE       string
	Compiler  string
	BuildTool string
}

// FromSelections converts a four-element selection sequence to a Choice.
func FromSelections(ids []string) (Choice, error) {
	if len(ids) != 4 {
		return Choice{}, fmt.Errorf("want 4 selections, got %d", len(ids))
	}
	return Choice{OS: ids[0], IDE: ids[1], Compiler: ids[2], BuildTool: ids[3]}, nil
}

// Entry maps a source reference to a destination path relative to the
// archive root. Both use forward slashes.
type Entry struct {
	Source string `json:"source" yaml:"source"`
	Dest   string `json:"dest" yaml:"dest"`
}

// ---------------------------------------------------------------------------
// Lookup tables
// ---------------------------------------------------------------------------

var sourceFiles = []string{
	"error.h",
	"token.h",
	"tokenizer.h",
	"main.cpp",
	"token.cpp",
	"tokenizer.cpp",
}

// sourceDestByTool is the directory source files land in, per build tool.
var sourceDestByTool = map[string]string{
	"sln":   "",
	"cmake": "src",
	"xmake": "src",
}

var ideFiles = map[string][]string{
	"vs":     {"mini-lisp.sln", "mini-lisp.vcxproj", "mini-lisp.vcxproj.filters"},
	"clion":  {".gitignore", ".name", "mini-lisp.iml", "misc.xml", "modules.xml"},
	"vscode": {"tasks.json", "launch.json", "c_cpp_properties.json"},
}

var ideDest = map[string]string{
	"vs":     "",
	"clion":  ".idea",
	"vscode": ".vscode",
}

// toolConfigFiles lists the build-tool configuration, per build tool.
var toolConfigFiles = map[string][]string{
	"sln":   nil,
	"cmake": {"CMakeLists.txt"},
	"xmake": {"xmake.lua"},
}

var commonConfigFiles = []string{".clang-format", ".gitignore", ".editorconfig"}

// ideSourceDir returns the template folder the IDE files are read from. VS
// Code settings differ per build tool and compiler, so its folder is
// parameterized as "<tool>.<compiler>.vscode".
func ideSourceDir(c Choice) (string, error) {
	switch c.IDE {
	case "vs", "clion":
		return c.IDE, nil
	case "vscode":
		return fmt.Sprintf("%s.%s.vscode", c.BuildTool, c.Compiler), nil
	default:
		return "", fmt.Errorf("ide %q: %w", c.IDE, ErrUnmapped)
	}
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

// Resolve returns the manifest for c: source files, IDE files, build-tool
// configuration and common configuration, in that order.
func Resolve(c Choice) ([]Entry, error) {
	srcDest, ok := sourceDestByTool[c.BuildTool]
	if !ok {
		return nil, fmt.Errorf("build tool %q: %w", c.BuildTool, ErrUnmapped)
	}
	toolFiles, ok := toolConfigFiles[c.BuildTool]
	if !ok {
		return nil, fmt.Errorf("build tool %q: %w", c.BuildTool, ErrUnmapped)
	}
	ideDir, err := ideSourceDir(c)
	if err != nil {
		return nil, err
	}
	files, ok := ideFiles[c.IDE]
	if !ok {
		return nil, fmt.Errorf("ide %q: %w", c.IDE, ErrUnmapped)
	}
	dest, ok := ideDest[c.IDE]
	if !ok {
		return nil, fmt.Errorf("ide %q: %w", c.IDE, ErrUnmapped)
	}

	var entries []Entry
	entries = appendGroup(entries, "src", sourceFiles, srcDest)
	entries = appendGroup(entries, ideDir, files, dest)
	entries = appendGroup(entries, "configs", toolFiles, "")
	entries = appendGroup(entries, "configs", commonConfigFiles, "")
	return entries, nil
}

func appendGroup(entries []Entry, srcDir string, names []string, destDir string) []Entry {
	for _, name := range names {
		entries = append(entries, Entry{
			Source: path.Join(srcDir, name),
			Dest:   path.Join(destDir, name),
		})
	}
	return entries
}

// Validate checks that every destination is unique and none collides with
// the README.
func Validate(entries []Entry) error {
	seen := map[string]string{ReadmePath: "<readme>"}
	for _, e := range entries {
		if prev, ok := seen[e.Dest]; ok {
			return fmt.Errorf("%w %q: %s and %s", ErrDuplicateDest, e.Dest, prev, e.Source)
		}
		seen[e.Dest] = e.Source
	}
	return nil
}

// Sources returns the distinct source references of entries, sorted.
func Sources(entries []Entry) []string {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Source] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
