// Package resources implements MCP resource handlers for the issue tracker.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (autorelate://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/autorelate/internal/store"
)

// StatsURI addresses the tracker statistics resource.
const StatsURI = "autorelate://stats"

// StatsSource reports aggregate tracker counts.
type StatsSource interface {
	Stats(ctx context.Context) (*store.Stats, error)
}

// Handler manages resource endpoints.
type Handler struct {
	stats StatsSource
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(stats StatsSource) *Handler {
	return &Handler{stats: stats}
}

// StatsResource returns the MCP resource definition for tracker statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		StatsURI,
		"Issue Tracker Statistics",
		mcp.WithResourceDescription("Issue, journal and relation counts, with relations broken down by type"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the current statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.stats.Stats(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
