// Package issue defines the tracked work items and the typed relation
// edges between them. The types are immutable snapshots: stores return
// fresh copies on every read and never hand out live references.
package issue

// ─── Relation types ─────────────────────────────────────────────────────────

// RelationType is the tag carried by a relation edge.
type RelationType string

const (
	Relates    RelationType = "relates"
	Duplicates RelationType = "duplicates"
	Duplicated RelationType = "duplicated"
	Blocks     RelationType = "blocks"
	Blocked    RelationType = "blocked"
	Precedes   RelationType = "precedes"
	Follows    RelationType = "follows"
	CopiedTo   RelationType = "copied_to"
	CopiedFrom RelationType = "copied_from"
)

// RelationTypes lists the full vocabulary in display order.
var RelationTypes = []RelationType{
	Relates, Duplicates, Duplicated, Blocks, Blocked,
	Precedes, Follows, CopiedTo, CopiedFrom,
}

// IsValid reports whether t belongs to the relation vocabulary.
func (t RelationType) IsValid() bool {
	for _, v := range RelationTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ConflictsWithRelates reports whether an existing edge of type t rules out
// adding a plain "relates" link between the same two issues. Every type
// except relates itself is in the conflict vocabulary.
func (t RelationType) ConflictsWithRelates() bool {
	return t != Relates && t.IsValid()
}

// ─── Records ────────────────────────────────────────────────────────────────

// Issue is a tracked unit of work.
type Issue struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// IsParentOf reports whether i is the direct parent of other.
func (i *Issue) IsParentOf(other *Issue) bool {
	return other.ParentID != nil && *other.ParentID == i.ID
}

// Relation is a typed directed edge between two issues.
type Relation struct {
	ID        int64        `json:"id"`
	FromID    int64        `json:"from_id"`
	ToID      int64        `json:"to_id"`
	Type      RelationType `json:"type"`
	CreatedAt string       `json:"created_at"`
}

// Edges holds the relations incident to one issue, split by direction.
type Edges struct {
	Outgoing []Relation `json:"outgoing"`
	Incoming []Relation `json:"incoming"`
}

// Journal is one accepted edit of an issue.
type Journal struct {
	ID                 int64  `json:"id"`
	IssueID            int64  `json:"issue_id"`
	Notes              string `json:"notes,omitempty"`
	DescriptionChanged bool   `json:"description_changed"`
	CreatedAt          string `json:"created_at"`
}

// ChangeEvent is delivered for every accepted edit. Notes is the newly
// added free-text note (empty when the edit carried none). Description is
// only meaningful when DescriptionChanged is set.
type ChangeEvent struct {
	IssueID            int64  `json:"issue_id"`
	Notes              string `json:"notes,omitempty"`
	DescriptionChanged bool   `json:"description_changed"`
	Description        string `json:"description,omitempty"`
}
