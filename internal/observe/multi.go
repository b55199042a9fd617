package observe

import "github.com/HendryAvila/autorelate/internal/autolink"

// Multi fans events out to several sinks in order. Nil entries are dropped.
func Multi(sinks ...autolink.Sink) autolink.Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []autolink.Sink

func (m multi) CandidateProcessed(issueID int64, res autolink.Result) {
	for _, s := range m {
		s.CandidateProcessed(issueID, res)
	}
}

func (m multi) PassCompleted(report *autolink.Report) {
	for _, s := range m {
		s.PassCompleted(report)
	}
}

var (
	_ autolink.Sink = (*ZapSink)(nil)
	_ autolink.Sink = (*Metrics)(nil)
	_ autolink.Sink = multi(nil)
)
