package issuetools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/autorelate/internal/issue"
	"github.com/HendryAvila/autorelate/internal/store"
)

// ─── RelateTool ─────────────────────────────────────────────────────────────

// RelateTool handles the issue_relate MCP tool.
type RelateTool struct {
	store *store.Store
}

// NewRelateTool creates a RelateTool with the given store.
func NewRelateTool(s *store.Store) *RelateTool {
	return &RelateTool{store: s}
}

func relationTypeNames() string {
	names := make([]string, len(issue.RelationTypes))
	for i, t := range issue.RelationTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Definition returns the MCP tool definition for issue_relate.
func (t *RelateTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_relate",
		mcp.WithDescription(
			"Create a typed relation between two issues by hand. "+
				"Any type other than 'relates' stops the automatic linker from adding a 'relates' link between the same pair.",
		),
		mcp.WithNumber("from_id",
			mcp.Required(),
			mcp.Description("Source issue ID"),
		),
		mcp.WithNumber("to_id",
			mcp.Required(),
			mcp.Description("Target issue ID"),
		),
		mcp.WithString("relation_type",
			mcp.Required(),
			mcp.Description("One of: "+relationTypeNames()),
		),
	)
}

// Handle processes the issue_relate tool call.
func (t *RelateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromID, err := idArg(req, "from_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toID, err := idArg(req, "to_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if fromID == 0 {
		return mcp.NewToolResultError("'from_id' is required"), nil
	}
	if toID == 0 {
		return mcp.NewToolResultError("'to_id' is required"), nil
	}

	relType := issue.RelationType(req.GetString("relation_type", ""))
	if relType == "" {
		return mcp.NewToolResultError("'relation_type' is required"), nil
	}

	id, err := t.store.CreateRelation(ctx, fromID, toID, relType)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create relation: %v", err)), nil
	}

	return mcp.NewToolResultText(
		fmt.Sprintf("Relation created: #%d → #%d (%s)\nRelation ID: %d", fromID, toID, relType, id),
	), nil
}

// ─── UnrelateTool ───────────────────────────────────────────────────────────

// UnrelateTool handles the issue_unrelate MCP tool.
type UnrelateTool struct {
	store *store.Store
}

// NewUnrelateTool creates an UnrelateTool with the given store.
func NewUnrelateTool(s *store.Store) *UnrelateTool {
	return &UnrelateTool{store: s}
}

// Definition returns the MCP tool definition for issue_unrelate.
func (t *UnrelateTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_unrelate",
		mcp.WithDescription(
			"Remove a relation by its ID. Use issue_get to find relation IDs first.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Relation ID to remove"),
		),
	)
}

// Handle processes the issue_unrelate tool call.
func (t *UnrelateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if err := t.store.RemoveRelation(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to remove relation: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Relation %d removed.", id)), nil
}
