package issuetools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/autorelate/internal/store"
)

// ─── NoteTool ───────────────────────────────────────────────────────────────

// NoteTool handles the issue_note MCP tool.
type NoteTool struct {
	store  *store.Store
	linker Linker
}

// NewNoteTool creates a NoteTool.
func NewNoteTool(s *store.Store, linker Linker) *NoteTool {
	return &NoteTool{store: s, linker: linker}
}

// Definition returns the MCP tool definition for issue_note.
func (t *NoteTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_note",
		mcp.WithDescription(
			"Add a journal note to an issue. Every #123 reference in the note becomes a "+
				"'relates' link to that issue unless a relation already connects them, "+
				"the link would close a cycle, or the issues are parent and child.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Issue ID"),
		),
		mcp.WithString("notes",
			mcp.Required(),
			mcp.Description("Note text"),
		),
	)
}

// Handle processes the issue_note tool call.
func (t *NoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	notes := req.GetString("notes", "")
	if notes == "" {
		return mcp.NewToolResultError("'notes' is required"), nil
	}

	ev, err := t.store.Edit(ctx, id, store.EditParams{Notes: notes})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add note: %v", err)), nil
	}

	report := t.linker.OnItemTextChanged(ctx, *ev)
	return mcp.NewToolResultText(
		fmt.Sprintf("Note added to #%d.\n\n%s", id, formatReport(report)),
	), nil
}

// ─── EditTool ───────────────────────────────────────────────────────────────

// EditTool handles the issue_edit MCP tool.
type EditTool struct {
	store  *store.Store
	linker Linker
}

// NewEditTool creates an EditTool.
func NewEditTool(s *store.Store, linker Linker) *EditTool {
	return &EditTool{store: s, linker: linker}
}

// Definition returns the MCP tool definition for issue_edit.
func (t *EditTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_edit",
		mcp.WithDescription(
			"Replace an issue's description, optionally with a journal note. "+
				"References in the new description are linked only when the description actually changed.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Issue ID"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("New full description"),
		),
		mcp.WithString("notes",
			mcp.Description("Optional note recorded with the edit"),
		),
	)
}

// Handle processes the issue_edit tool call.
func (t *EditTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	desc := optionalString(req, "description")
	if desc == nil {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	ev, err := t.store.Edit(ctx, id, store.EditParams{
		Notes:       req.GetString("notes", ""),
		Description: desc,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to edit issue: %v", err)), nil
	}

	status := fmt.Sprintf("Issue #%d updated.", id)
	if !ev.DescriptionChanged {
		status = fmt.Sprintf("Issue #%d: description unchanged, note recorded.", id)
	}

	report := t.linker.OnItemTextChanged(ctx, *ev)
	return mcp.NewToolResultText(status + "\n\n" + formatReport(report)), nil
}

// ─── ResyncTool ─────────────────────────────────────────────────────────────

// ResyncTool handles the issue_resync MCP tool.
type ResyncTool struct {
	linker Linker
}

// NewResyncTool creates a ResyncTool.
func NewResyncTool(linker Linker) *ResyncTool {
	return &ResyncTool{linker: linker}
}

// Definition returns the MCP tool definition for issue_resync.
func (t *ResyncTool) Definition() mcp.Tool {
	return mcp.NewTool("issue_resync",
		mcp.WithDescription(
			"Rescan an issue's current description for #123 references and create any missing 'relates' links. "+
				"Safe to repeat: existing links are left alone.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Issue ID"),
		),
	)
}

// Handle processes the issue_resync tool call.
func (t *ResyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	report := t.linker.Resync(ctx, id)
	if report.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resync issue: %v", report.Err)), nil
	}
	return mcp.NewToolResultText(formatReport(report)), nil
}
