package issuetools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/autorelate/internal/store"
)

// CreateTool handles the issue_create MCP tool.
type CreateTool struct {
	store *store.Store
}

// NewCreateTool creates a CreateTool with the given store.
func NewCreateTool(s *store.Store) *CreateTool {
	return &CreateTool{store: s}
}

// Definition returns the MCP tool definition for issue_create.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_create",
		mcp.WithDescription(
			"Create a new issue. References like #12 in the initial description are not linked; "+
				"use issue_resync afterwards if they should be.",
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Short one-line summary"),
		),
		mcp.WithString("description",
			mcp.Description("Longer description (markdown)"),
		),
		mcp.WithNumber("parent_id",
			mcp.Description("Optional parent issue ID"),
		),
	)
}

// Handle processes the issue_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject := req.GetString("subject", "")
	if subject == "" {
		return mcp.NewToolResultError("'subject' is required"), nil
	}

	params := store.CreateIssueParams{
		Subject:     subject,
		Description: req.GetString("description", ""),
	}
	pid, err := idArg(req, "parent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if pid > 0 {
		params.ParentID = &pid
	}

	id, err := t.store.CreateIssue(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create issue: %v", err)), nil
	}

	msg := fmt.Sprintf("Issue #%d created: %q", id, subject)
	if params.ParentID != nil {
		msg += fmt.Sprintf("\nParent: #%d", *params.ParentID)
	}
	return mcp.NewToolResultText(msg), nil
}
