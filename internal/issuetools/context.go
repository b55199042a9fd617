package issuetools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/autorelate/internal/store"
)

// ContextTool handles the issue_context MCP tool.
type ContextTool struct {
	store *store.Store
}

// NewContextTool creates a ContextTool with the given store.
func NewContextTool(s *store.Store) *ContextTool {
	return &ContextTool{store: s}
}

// Definition returns the MCP tool definition for issue_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_context",
		mcp.WithDescription(
			"Walk the relation graph from an issue, following relations in both directions, "+
				"and list every connected issue with the relation that reached it.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Issue ID to start from"),
		),
		mcp.WithNumber("depth",
			mcp.Description(fmt.Sprintf("How many levels deep to walk (default: 2, max: %d)", t.store.Config().MaxContextDepth)),
		),
	)
}

// Handle processes the issue_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	result, err := t.store.Neighborhood(ctx, id, intArg(req, "depth", 2))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}

	return mcp.NewToolResultText(formatContextResult(result)), nil
}

// formatContextResult renders a ContextResult as readable markdown.
func formatContextResult(r *store.ContextResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Relation graph for #%d: %q\n\n", r.Root.ID, r.Root.Subject)

	if len(r.Connected) == 0 {
		b.WriteString("No relations found for this issue.\n")
		return b.String()
	}

	byDepth := make(map[int][]store.ContextNode)
	for _, n := range r.Connected {
		byDepth[n.Depth] = append(byDepth[n.Depth], n)
	}

	for d := 1; d <= r.MaxDepth; d++ {
		nodes := byDepth[d]
		if len(nodes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## Depth %d\n\n", d)
		for _, n := range nodes {
			arrow := "→"
			if n.Direction == "incoming" {
				arrow = "←"
			}
			fmt.Fprintf(&b, "- %s #%d %q (%s, via #%d)\n", arrow, n.ID, n.Subject, n.RelationType, n.Via)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Total:** %d connected issue(s) across %d level(s)\n", r.TotalNodes, r.MaxDepth)
	return b.String()
}
