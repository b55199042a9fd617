package autolink

// Outcome classifies what happened to one candidate reference.
type Outcome string

const (
	// OutcomeCreated means a new relates edge was stored.
	OutcomeCreated Outcome = "created"
	// OutcomeNotFound means the referenced issue does not exist.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeSelf means the issue referenced itself.
	OutcomeSelf Outcome = "self"
	// OutcomeExists means an edge from the issue to the candidate is already stored.
	OutcomeExists Outcome = "exists"
	// OutcomeCycle means the edge would close a loop in the relation graph.
	OutcomeCycle Outcome = "cycle"
	// OutcomeConflict means a parent/child link or a stronger relation already joins the pair.
	OutcomeConflict Outcome = "conflict"
	// OutcomeRejected means the relation store refused the edge.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means a store read failed or the cycle search hit its limit.
	OutcomeFailed Outcome = "failed"
)

// Outcomes lists every outcome, in processing order.
var Outcomes = []Outcome{
	OutcomeCreated, OutcomeNotFound, OutcomeSelf, OutcomeExists,
	OutcomeCycle, OutcomeConflict, OutcomeRejected, OutcomeFailed,
}

// Result is the outcome for a single candidate.
type Result struct {
	CandidateID int64   `json:"candidate_id"`
	Outcome     Outcome `json:"outcome"`
	RelationID  int64   `json:"relation_id,omitempty"`
	Err         error   `json:"-"`
}

func (r Result) fail(err error) Result {
	r.Outcome = OutcomeFailed
	r.Err = err
	return r
}

// Report summarizes one synchronization pass.
type Report struct {
	IssueID            int64    `json:"issue_id"`
	DescriptionScanned bool     `json:"description_scanned"`
	Candidates         []int64  `json:"candidates"`
	Results            []Result `json:"results"`
	// Err is set only when the edited issue itself could not be loaded.
	Err error `json:"-"`
}

// Created returns the IDs of the issues that received a new edge.
func (r *Report) Created() []int64 {
	var ids []int64
	for _, res := range r.Results {
		if res.Outcome == OutcomeCreated {
			ids = append(ids, res.CandidateID)
		}
	}
	return ids
}

// Count returns how many candidates ended with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Sink observes synchronization passes. Implementations must not block.
type Sink interface {
	CandidateProcessed(issueID int64, res Result)
	PassCompleted(report *Report)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) CandidateProcessed(int64, Result) {}
func (NopSink) PassCompleted(*Report)            {}
