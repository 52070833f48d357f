package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"scaffolder/internal/catalog"
	"scaffolder/internal/wizard"
)

// StepsTool handles the scaffold_steps MCP tool.
// It shows which wizard steps are open and which options they allow.
type StepsTool struct {
	cat *catalog.Catalog
}

// NewStepsTool creates a StepsTool over cat.
func NewStepsTool(cat *catalog.Catalog) *StepsTool {
	return &StepsTool{cat: cat}
}

// Definition returns the MCP tool definition for registration.
func (t *StepsTool) Definition() mcp.Tool {
	return mcp.NewTool("scaffold_steps",
		mcp.WithDescription(
			"Show the Mini-Lisp scaffold wizard after the given choices. "+
				"Lists every visible step with its options; options that conflict "+
				"with earlier choices are marked disabled. Call it with no selection "+
				"to start, then add one option id per step in order.",
		),
		mcp.WithString("selected",
			mcp.Description("Comma-separated option ids chosen so far, in step order. Example: 'windows,vscode'"),
		),
	)
}

// Handle processes the scaffold_steps tool call.
func (t *StepsTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := wizard.ParseIDs(req.GetString("selected", ""))
	s, err := wizard.Replay(t.cat, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(renderSteps(s)), nil
}

func renderSteps(s *wizard.Session) string {
	var b strings.Builder
	b.WriteString("# Scaffold wizard\n")
	for _, v := range s.View() {
		fmt.Fprintf(&b, "\n## Step %d: %s\n\n", v.Index+1, v.Title)
		for _, o := range v.Options {
			mark := " "
			if o.ID == v.Selected {
				mark = "x"
			}
			line := fmt.Sprintf("- [%s] `%s` %s", mark, o.ID, o.Label)
			if o.Disabled {
				line += " (disabled)"
			}
			b.WriteString(line + "\n")
		}
	}
	if s.Complete() {
		fmt.Fprintf(&b, "\nAll steps chosen: %s. Call scaffold_generate to build the archive.\n",
			strings.Join(s.Selections(), ", "))
	}
	return b.String()
}
