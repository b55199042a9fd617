package store

import (
	"context"
	"fmt"

	"github.com/HendryAvila/autorelate/internal/issue"
)

// ─── Relations ───────────────────────────────────────────────────────────────

// RelationExists reports whether any edge, of any type, leads from fromID
// to toID.
func (s *Store) RelationExists(ctx context.Context, fromID, toID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM relations WHERE from_id = ? AND to_id = ?)`,
		fromID, toID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking relation #%d → #%d: %w", fromID, toID, err)
	}
	return exists, nil
}

// CreateRelation stores a typed directed edge and returns its ID.
// Constraint violations (self relation, unknown type, missing endpoint,
// duplicate edge) are reported as *issue.ValidationError.
func (s *Store) CreateRelation(ctx context.Context, fromID, toID int64, typ issue.RelationType) (int64, error) {
	if fromID == toID {
		return 0, issue.NewValidationError(fmt.Sprintf("cannot relate issue #%d to itself", fromID))
	}

	if typ == "" {
		typ = issue.Relates
	}
	if !typ.IsValid() {
		return 0, issue.NewValidationError(fmt.Sprintf("unknown relation type %q", typ))
	}

	for _, id := range []int64{fromID, toID} {
		if _, err := s.GetIssue(ctx, id); err != nil {
			if isNotFound(err) {
				return 0, issue.NewValidationError(fmt.Sprintf("issue #%d does not exist", id))
			}
			return 0, err
		}
	}

	res, err := s.execHook(ctx, s.db,
		`INSERT INTO relations (from_id, to_id, type) VALUES (?, ?, ?)`,
		fromID, toID, string(typ),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, issue.NewValidationError(fmt.Sprintf("relation already exists: #%d → #%d (%s)", fromID, toID, typ))
		}
		return 0, fmt.Errorf("creating relation: %w", err)
	}
	return res.LastInsertId()
}

// RemoveRelation hard-deletes a relation by its ID.
func (s *Store) RemoveRelation(ctx context.Context, id int64) error {
	res, err := s.execHook(ctx, s.db, `DELETE FROM relations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting relation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("relation %d: %w", id, issue.ErrNotFound)
	}
	return nil
}

// Relations returns every edge incident to an issue, split into outgoing
// and incoming, each ordered by creation.
func (s *Store) Relations(ctx context.Context, issueID int64) (issue.Edges, error) {
	rows, err := s.queryHook(ctx, s.db,
		`SELECT id, from_id, to_id, type, created_at
		 FROM relations
		 WHERE from_id = ? OR to_id = ?
		 ORDER BY id ASC`,
		issueID, issueID,
	)
	if err != nil {
		return issue.Edges{}, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	var edges issue.Edges
	for rows.Next() {
		var r issue.Relation
		if err := rows.Scan(&r.ID, &r.FromID, &r.ToID, &r.Type, &r.CreatedAt); err != nil {
			return issue.Edges{}, fmt.Errorf("scanning relation: %w", err)
		}
		if r.FromID == issueID {
			edges.Outgoing = append(edges.Outgoing, r)
		}
		if r.ToID == issueID {
			edges.Incoming = append(edges.Incoming, r)
		}
	}
	return edges, rows.Err()
}

// ─── Neighbourhood ───────────────────────────────────────────────────────────

// ContextNode is one issue reached while walking the relation graph.
type ContextNode struct {
	ID           int64              `json:"id"`
	Subject      string             `json:"subject"`
	RelationType issue.RelationType `json:"relation_type"`
	Direction    string             `json:"direction"` // "outgoing" or "incoming"
	Via          int64              `json:"via"`
	Depth        int                `json:"depth"`
}

// ContextResult holds a neighbourhood walk.
type ContextResult struct {
	Root       issue.Issue   `json:"root"`
	Connected  []ContextNode `json:"connected"`
	TotalNodes int           `json:"total_nodes"`
	MaxDepth   int           `json:"max_depth"`
}

// Neighborhood walks the relation graph breadth-first from an issue,
// following edges in both directions, up to maxDepth levels. Depth is
// clamped to [1, Config.MaxContextDepth]; non-positive values select 2.
func (s *Store) Neighborhood(ctx context.Context, issueID int64, maxDepth int) (*ContextResult, error) {
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if maxDepth > s.cfg.MaxContextDepth {
		maxDepth = s.cfg.MaxContextDepth
	}

	root, err := s.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	type queueItem struct {
		id    int64
		depth int
	}

	visited := map[int64]bool{issueID: true}
	queue := []queueItem{{id: issueID, depth: 0}}
	var connected []ContextNode
	actualMaxDepth := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}

		edges, err := s.Relations(ctx, current.id)
		if err != nil {
			return nil, fmt.Errorf("getting relations for #%d: %w", current.id, err)
		}

		visit := func(rel issue.Relation, otherID int64, direction string) error {
			if visited[otherID] {
				return nil
			}
			visited[otherID] = true

			other, err := s.GetIssue(ctx, otherID)
			if err != nil {
				if isNotFound(err) {
					return nil // deleted between queries
				}
				return err
			}

			nodeDepth := current.depth + 1
			connected = append(connected, ContextNode{
				ID:           other.ID,
				Subject:      other.Subject,
				RelationType: rel.Type,
				Direction:    direction,
				Via:          current.id,
				Depth:        nodeDepth,
			})
			if nodeDepth > actualMaxDepth {
				actualMaxDepth = nodeDepth
			}
			queue = append(queue, queueItem{id: otherID, depth: nodeDepth})
			return nil
		}

		for _, rel := range edges.Outgoing {
			if err := visit(rel, rel.ToID, "outgoing"); err != nil {
				return nil, err
			}
		}
		for _, rel := range edges.Incoming {
			if err := visit(rel, rel.FromID, "incoming"); err != nil {
				return nil, err
			}
		}
	}

	return &ContextResult{
		Root:       *root,
		Connected:  connected,
		TotalNodes: len(connected),
		MaxDepth:   actualMaxDepth,
	}, nil
}
