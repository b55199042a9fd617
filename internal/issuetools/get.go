package issuetools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/autorelate/internal/issue"
	"github.com/HendryAvila/autorelate/internal/store"
)

// GetTool handles the issue_get MCP tool.
type GetTool struct {
	store *store.Store
}

// NewGetTool creates a GetTool with the given store.
func NewGetTool(s *store.Store) *GetTool {
	return &GetTool{store: s}
}

// Definition returns the MCP tool definition for issue_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_get",
		mcp.WithDescription("Show an issue with its parent, relations and journal history."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Issue ID"),
		),
	)
}

// Handle processes the issue_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	it, err := t.store.GetIssue(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get issue: %v", err)), nil
	}
	edges, err := t.store.Relations(ctx, it.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get relations: %v", err)), nil
	}
	journals, err := t.store.Journals(ctx, it.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get journals: %v", err)), nil
	}

	return mcp.NewToolResultText(formatIssue(it, edges, journals)), nil
}

func formatIssue(it *issue.Issue, edges issue.Edges, journals []issue.Journal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# #%d: %s\n\n", it.ID, it.Subject)
	if it.ParentID != nil {
		fmt.Fprintf(&b, "**Parent:** #%d\n", *it.ParentID)
	}
	fmt.Fprintf(&b, "**Created:** %s\n**Updated:** %s\n\n", it.CreatedAt, it.UpdatedAt)

	if it.Description != "" {
		b.WriteString(it.Description)
		b.WriteString("\n\n")
	}

	if len(edges.Outgoing)+len(edges.Incoming) > 0 {
		b.WriteString("## Relations\n\n")
		for _, r := range edges.Outgoing {
			fmt.Fprintf(&b, "- → #%d (%s) [relation %d]\n", r.ToID, r.Type, r.ID)
		}
		for _, r := range edges.Incoming {
			fmt.Fprintf(&b, "- ← #%d (%s) [relation %d]\n", r.FromID, r.Type, r.ID)
		}
		b.WriteString("\n")
	}

	if len(journals) > 0 {
		b.WriteString("## History\n\n")
		for _, j := range journals {
			fmt.Fprintf(&b, "- %s", j.CreatedAt)
			if j.DescriptionChanged {
				b.WriteString(" (description updated)")
			}
			if j.Notes != "" {
				fmt.Fprintf(&b, ": %s", j.Notes)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
