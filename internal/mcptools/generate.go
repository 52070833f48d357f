package mcptools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"scaffolder/internal/generate"
)

// GenerateTool handles the scaffold_generate MCP tool.
// It builds the archive for a complete choice and writes it to disk.
type GenerateTool struct {
	gen       *generate.Generator
	outputDir string
}

// NewGenerateTool creates a GenerateTool. outputDir is used when the call
// does not name one.
func NewGenerateTool(gen *generate.Generator, outputDir string) *GenerateTool {
	return &GenerateTool{gen: gen, outputDir: outputDir}
}

// Definition returns the MCP tool definition for registration.
func (t *GenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("scaffold_generate",
		mcp.WithDescription(
			"Build the Mini-Lisp project scaffold zip for one complete choice of "+
				"operating system, IDE, compiler and build tool, and write it to disk. "+
				"Use scaffold_steps first to find a legal combination.",
		),
		mcp.WithString("os", mcp.Required(), mcp.Description("Operating system id: windows or mac")),
		mcp.WithString("ide", mcp.Required(), mcp.Description("IDE id: vs, vscode or clion")),
		mcp.WithString("compiler", mcp.Required(), mcp.Description("Compiler id: msvc, mingw or apple-clang")),
		mcp.WithString("build_tool", mcp.Required(), mcp.Description("Build tool id: sln, xmake or cmake")),
		mcp.WithString("output_dir", mcp.Description("Directory to write the archive to. Defaults to the configured output.")),
	)
}

// Handle processes the scaffold_generate tool call.
func (t *GenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel := []string{
		strings.TrimSpace(req.GetString("os", "")),
		strings.TrimSpace(req.GetString("ide", "")),
		strings.TrimSpace(req.GetString("compiler", "")),
		strings.TrimSpace(req.GetString("build_tool", "")),
	}
	for i, name := range []string{"os", "ide", "compiler", "build_tool"} {
		if sel[i] == "" {
			return mcp.NewToolResultError(fmt.Sprintf("'%s' is required", name)), nil
		}
	}

	dir := strings.TrimSpace(req.GetString("output_dir", ""))
	if dir == "" {
		dir = t.outputDir
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		dir = wd
	}

	d := generate.DirDeliverer{Dir: dir}
	art, err := t.gen.Run(ctx, sel, d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Wrote %s (%d bytes)\n\nFiles:\n", d.Path(art.Name), len(art.Blob))
	for _, f := range art.Files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return mcp.NewToolResultText(b.String()), nil
}
