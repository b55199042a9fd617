// Package autolink keeps the explicit relation graph in step with the
// issue references written in notes and descriptions.
//
// On every accepted edit the Synchronizer extracts "#123" references from
// the new note (and from the description, when the edit changed it), then
// creates a "relates" edge from the edited issue to each referenced issue
// unless that edge would be a duplicate, would close a cycle, or would
// contradict a relation that already joins the pair.
//
// A synchronization pass never fails. Every skip and every store error is
// reported per candidate through the returned Report and the injected Sink,
// so the edit that triggered the pass always succeeds.
package autolink

import (
	"context"
	"errors"
	"sync"

	"github.com/HendryAvila/autorelate/internal/issue"
	"github.com/HendryAvila/autorelate/internal/refs"
	"github.com/HendryAvila/autorelate/internal/relgraph"
)

// ItemStore is the read side of the issue store.
type ItemStore interface {
	GetIssue(ctx context.Context, id int64) (*issue.Issue, error)
	Relations(ctx context.Context, issueID int64) (issue.Edges, error)
}

// RelationStore is the write side of the relation graph.
type RelationStore interface {
	RelationExists(ctx context.Context, fromID, toID int64) (bool, error)
	CreateRelation(ctx context.Context, fromID, toID int64, typ issue.RelationType) (int64, error)
}

// Synchronizer runs synchronization passes. It caches nothing between
// passes and is safe for concurrent use: passes run one at a time, so a
// cycle check and the edge it admits are never interleaved with another
// pass.
type Synchronizer struct {
	mu        sync.Mutex
	items     ItemStore
	relations RelationStore
	inspector *relgraph.Inspector
	sink      Sink
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithSink routes per-candidate outcomes to s.
func WithSink(s Sink) Option {
	return func(sy *Synchronizer) {
		if s != nil {
			sy.sink = s
		}
	}
}

// WithMaxTraversal bounds the cycle search to n issues.
func WithMaxTraversal(n int) Option {
	return func(sy *Synchronizer) {
		sy.inspector = relgraph.NewInspector(sy.items, n)
	}
}

// New creates a Synchronizer over the given stores.
func New(items ItemStore, relations RelationStore, opts ...Option) *Synchronizer {
	sy := &Synchronizer{
		items:     items,
		relations: relations,
		inspector: relgraph.NewInspector(items, 0),
		sink:      NopSink{},
	}
	for _, opt := range opts {
		opt(sy)
	}
	return sy
}

// OnItemTextChanged is the entry point called by the host after an edit is
// saved. It loads the edited issue and runs one synchronization pass. An
// edited issue that cannot be loaded yields a report with no candidates.
func (sy *Synchronizer) OnItemTextChanged(ctx context.Context, ev issue.ChangeEvent) *Report {
	it, err := sy.items.GetIssue(ctx, ev.IssueID)
	if err != nil {
		report := &Report{IssueID: ev.IssueID, Err: err}
		sy.sink.PassCompleted(report)
		return report
	}
	return sy.Synchronize(ctx, it, ev)
}

// Resync rescans an issue's current description as though it had just
// changed. Earlier notes are not replayed.
func (sy *Synchronizer) Resync(ctx context.Context, issueID int64) *Report {
	it, err := sy.items.GetIssue(ctx, issueID)
	if err != nil {
		report := &Report{IssueID: issueID, Err: err}
		sy.sink.PassCompleted(report)
		return report
	}
	return sy.Synchronize(ctx, it, issue.ChangeEvent{
		IssueID:            it.ID,
		DescriptionChanged: true,
		Description:        it.Description,
	})
}

// Candidates returns the identifiers a change event refers to: references
// in the note, followed by references in the description when it changed,
// deduplicated across both sources.
func Candidates(ev issue.ChangeEvent) []int64 {
	fromNotes := refs.Extract(ev.Notes)
	if !ev.DescriptionChanged {
		return refs.Merge(fromNotes)
	}
	return refs.Merge(fromNotes, refs.Extract(ev.Description))
}

// Synchronize runs one pass for an already loaded issue. Candidates are
// processed in extraction order; a failure on one never stops the rest.
func (sy *Synchronizer) Synchronize(ctx context.Context, it *issue.Issue, ev issue.ChangeEvent) *Report {
	sy.mu.Lock()
	defer sy.mu.Unlock()

	report := &Report{IssueID: it.ID, DescriptionScanned: ev.DescriptionChanged}
	report.Candidates = Candidates(ev)

	for _, id := range report.Candidates {
		res := sy.process(ctx, it, id)
		report.Results = append(report.Results, res)
		sy.sink.CandidateProcessed(it.ID, res)
	}

	sy.sink.PassCompleted(report)
	return report
}

func (sy *Synchronizer) process(ctx context.Context, it *issue.Issue, candidateID int64) Result {
	res := Result{CandidateID: candidateID}

	candidate, err := sy.items.GetIssue(ctx, candidateID)
	if errors.Is(err, issue.ErrNotFound) {
		res.Outcome = OutcomeNotFound
		return res
	}
	if err != nil {
		return res.fail(err)
	}

	if candidate.ID == it.ID {
		res.Outcome = OutcomeSelf
		return res
	}

	exists, err := sy.relations.RelationExists(ctx, it.ID, candidate.ID)
	if err != nil {
		return res.fail(err)
	}
	if exists {
		res.Outcome = OutcomeExists
		return res
	}

	cycle, err := sy.inspector.WouldCycle(ctx, it, candidate)
	if err != nil {
		return res.fail(err)
	}
	if cycle {
		res.Outcome = OutcomeCycle
		return res
	}

	conflict, err := sy.inspector.HasConflictingRelation(ctx, it, candidate)
	if err != nil {
		return res.fail(err)
	}
	if conflict {
		res.Outcome = OutcomeConflict
		return res
	}

	relID, err := sy.relations.CreateRelation(ctx, it.ID, candidate.ID, issue.Relates)
	if err != nil {
		if issue.IsValidation(err) {
			res.Outcome = OutcomeRejected
			res.Err = err
			return res
		}
		return res.fail(err)
	}

	res.Outcome = OutcomeCreated
	res.RelationID = relID
	return res
}
