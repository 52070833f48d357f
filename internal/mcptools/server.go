// Package mcptools exposes the scaffold wizard to AI coding agents over MCP.
package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"scaffolder/internal/catalog"
	"scaffolder/internal/generate"
)

// New builds the MCP server with the scaffold tools registered.
func New(version string, gen *generate.Generator, outputDir string) *server.MCPServer {
	cat := gen.Catalog
	if cat == nil {
		cat = catalog.Default()
	}

	s := server.NewMCPServer(
		"scaffolder",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	stepsTool := NewStepsTool(cat)
	s.AddTool(stepsTool.Definition(), stepsTool.Handle)

	generateTool := NewGenerateTool(gen, outputDir)
	s.AddTool(generateTool.Definition(), generateTool.Handle)

	return s
}

const instructions = `Scaffolder builds a ready-to-open Mini-Lisp C++ project for one
operating system, IDE, compiler and build tool. Walk the steps with
scaffold_steps, adding one option id per step; disabled options cannot be
chosen. Once all four steps are chosen, call scaffold_generate.`
