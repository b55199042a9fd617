// Package relgraph answers read-only questions about the existing relation
// graph: whether a new edge would close a cycle, and whether two issues are
// already joined by a relation that rules out a plain "relates" link.
//
// The Inspector holds no state between calls. Every query reads fresh edges
// from the injected Graph.
package relgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/autorelate/internal/issue"
)

// DefaultMaxNodes bounds the cycle search when no explicit budget is given.
const DefaultMaxNodes = 10000

// ErrTraversalLimit is returned when the cycle search visits more issues
// than the configured budget without reaching a verdict.
var ErrTraversalLimit = errors.New("relation graph traversal limit exceeded")

// Graph is the read side of the relation store the Inspector needs.
type Graph interface {
	Relations(ctx context.Context, issueID int64) (issue.Edges, error)
}

// Inspector runs reachability and conflict queries over a Graph.
type Inspector struct {
	graph    Graph
	maxNodes int
}

// NewInspector creates an Inspector. A non-positive maxNodes selects
// DefaultMaxNodes.
func NewInspector(g Graph, maxNodes int) *Inspector {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	return &Inspector{graph: g, maxNodes: maxNodes}
}

// WouldCycle reports whether origin is reachable from candidate over the
// existing relation edges, followed in both directions. If so, an edge
// origin → candidate would close a loop. Parent/child links are not
// traversed.
//
// The search is breadth-first with a visited set keyed by issue ID, so each
// issue is expanded at most once.
func (in *Inspector) WouldCycle(ctx context.Context, origin, candidate *issue.Issue) (bool, error) {
	if origin.ID == candidate.ID {
		return true, nil
	}

	visited := map[int64]bool{candidate.ID: true}
	queue := []int64{candidate.ID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := in.graph.Relations(ctx, current)
		if err != nil {
			return false, fmt.Errorf("relations of #%d: %w", current, err)
		}

		for _, next := range neighbours(current, edges) {
			if next == origin.ID {
				return true, nil
			}
			if visited[next] {
				continue
			}
			if len(visited) >= in.maxNodes {
				return false, fmt.Errorf("searching from #%d for #%d: %w", candidate.ID, origin.ID, ErrTraversalLimit)
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return false, nil
}

// HasConflictingRelation reports whether origin and candidate are parent
// and child (either way round), or whether an edge origin → candidate or
// candidate → origin already carries a type from the conflict vocabulary.
func (in *Inspector) HasConflictingRelation(ctx context.Context, origin, candidate *issue.Issue) (bool, error) {
	if origin.IsParentOf(candidate) || candidate.IsParentOf(origin) {
		return true, nil
	}

	edges, err := in.graph.Relations(ctx, origin.ID)
	if err != nil {
		return false, fmt.Errorf("relations of #%d: %w", origin.ID, err)
	}

	for _, rel := range edges.Outgoing {
		if rel.ToID == candidate.ID && rel.Type.ConflictsWithRelates() {
			return true, nil
		}
	}
	for _, rel := range edges.Incoming {
		if rel.FromID == candidate.ID && rel.Type.ConflictsWithRelates() {
			return true, nil
		}
	}
	return false, nil
}

// neighbours returns the far endpoint of every edge incident to id.
func neighbours(id int64, edges issue.Edges) []int64 {
	out := make([]int64, 0, len(edges.Outgoing)+len(edges.Incoming))
	for _, rel := range edges.Outgoing {
		if rel.ToID != id {
			out = append(out, rel.ToID)
		}
	}
	for _, rel := range edges.Incoming {
		if rel.FromID != id {
			out = append(out, rel.FromID)
		}
	}
	return out
}
