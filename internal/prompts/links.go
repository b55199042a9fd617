// Package prompts implements MCP prompt handlers for the issue tracker.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// LinksPrompt handles the issue-links MCP prompt.
// It asks the AI to review an issue's relations and fill in missing links.
type LinksPrompt struct{}

// NewLinksPrompt creates a LinksPrompt.
func NewLinksPrompt() *LinksPrompt {
	return &LinksPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *LinksPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("issue-links",
		mcp.WithPromptDescription(
			"Review how an issue is connected to the rest of the tracker. "+
				"Resyncs its references, then walks the relation graph around it.",
		),
		mcp.WithArgument("issue_id",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("ID of the issue to review"),
		),
	)
}

// Handle processes the issue-links prompt request.
func (p *LinksPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	raw := req.Params.Arguments["issue_id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("issue_id must be a positive integer, got %q", raw)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review links for issue #%d", id),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please review how issue #%d is linked.\n\n"+
						"1. Run `issue_get` with id=%d and read its description and history\n"+
						"2. Run `issue_resync` with id=%d so every #reference in the description is linked\n"+
						"3. Run `issue_context` with id=%d and depth=2\n"+
						"4. Summarize the neighbourhood. For each reference the linker skipped as a cycle or conflict, "+
						"tell me which existing relation caused the skip and whether it still looks right\n"+
						"5. Suggest any stronger relation (blocks, precedes, duplicates) that should replace a plain 'relates' link, "+
						"but do not create it until I confirm",
					id, id, id, id,
				)),
			},
		},
	}, nil
}
