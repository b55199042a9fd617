// Package issuetools provides MCP tool handlers for the issue tracker.
//
// Each tool follows the same shape:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Edit tools hand the resulting change event to a Linker, which keeps the
// relates graph in step with the references the edit introduced.
package issuetools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/autorelate/internal/autolink"
	"github.com/HendryAvila/autorelate/internal/issue"
)

// Linker runs synchronization passes after edits.
type Linker interface {
	OnItemTextChanged(ctx context.Context, ev issue.ChangeEvent) *autolink.Report
	Resync(ctx context.Context, issueID int64) *autolink.Report
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// maxID is the largest id a JSON number carries exactly.
const maxID = 1 << 53

// idArg reads an issue or relation id. A missing key yields 0 with no error;
// anything other than a positive whole number is an error.
func idArg(req mcp.CallToolRequest, key string) (int64, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return 0, nil
	}
	v, ok := raw.(float64)
	if !ok || v != math.Trunc(v) || v <= 0 || v > maxID {
		return 0, fmt.Errorf("'%s' must be a positive whole number, got %v", key, raw)
	}
	return int64(v), nil
}

// optionalString returns a pointer to a string argument, or nil when the
// key is absent. An empty string is a valid value.
func optionalString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

var outcomeLabels = map[autolink.Outcome]string{
	autolink.OutcomeCreated:  "linked",
	autolink.OutcomeNotFound: "no such issue",
	autolink.OutcomeSelf:     "self reference",
	autolink.OutcomeExists:   "already related",
	autolink.OutcomeCycle:    "would create a cycle",
	autolink.OutcomeConflict: "conflicting relation",
	autolink.OutcomeRejected: "rejected",
	autolink.OutcomeFailed:   "failed",
}

// formatReport renders a synchronization pass as markdown.
func formatReport(r *autolink.Report) string {
	var b strings.Builder
	b.WriteString("## Auto-relates\n\n")

	if r.Err != nil {
		fmt.Fprintf(&b, "Linking skipped: %v\n", r.Err)
		return b.String()
	}
	if len(r.Candidates) == 0 {
		b.WriteString("No issue references found.\n")
		return b.String()
	}

	for _, res := range r.Results {
		fmt.Fprintf(&b, "- #%d: %s", res.CandidateID, outcomeLabels[res.Outcome])
		if res.RelationID != 0 {
			fmt.Fprintf(&b, " (relation %d)", res.RelationID)
		}
		if res.Err != nil {
			fmt.Fprintf(&b, ": %v", res.Err)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n**Created:** %d of %d reference(s)\n", len(r.Created()), len(r.Candidates))
	return b.String()
}
