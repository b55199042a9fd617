// Package observe turns synchronization outcomes into log lines and
// Prometheus metrics.
package observe

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HendryAvila/autorelate/internal/autolink"
)

// ZapSink logs one line per candidate and one per pass.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink returns a sink writing to log. A nil logger discards output.
func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapSink{log: log.Named("autolink")}
}

// CandidateProcessed implements autolink.Sink.
func (s *ZapSink) CandidateProcessed(issueID int64, res autolink.Result) {
	level, msg := describe(res.Outcome)
	fields := []zap.Field{
		zap.Int64("issue_id", issueID),
		zap.Int64("candidate_id", res.CandidateID),
		zap.String("outcome", string(res.Outcome)),
	}
	if res.RelationID != 0 {
		fields = append(fields, zap.Int64("relation_id", res.RelationID))
	}
	if res.Err != nil {
		fields = append(fields, zap.Error(res.Err))
	}
	if ce := s.log.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// PassCompleted implements autolink.Sink.
func (s *ZapSink) PassCompleted(report *autolink.Report) {
	if report.Err != nil {
		s.log.Warn("edited issue could not be loaded",
			zap.Int64("issue_id", report.IssueID),
			zap.Error(report.Err),
		)
		return
	}
	s.log.Debug("sync pass finished",
		zap.Int64("issue_id", report.IssueID),
		zap.Bool("description_scanned", report.DescriptionScanned),
		zap.Int("candidates", len(report.Candidates)),
		zap.Int64s("created", report.Created()),
	)
}

func describe(o autolink.Outcome) (zapcore.Level, string) {
	switch o {
	case autolink.OutcomeCreated:
		return zapcore.InfoLevel, "relates link created"
	case autolink.OutcomeExists:
		return zapcore.InfoLevel, "relation already exists, skipping"
	case autolink.OutcomeCycle:
		return zapcore.InfoLevel, "circular relation detected, skipping"
	case autolink.OutcomeConflict:
		return zapcore.InfoLevel, "conflicting relation exists, skipping"
	case autolink.OutcomeRejected:
		return zapcore.ErrorLevel, "relation rejected by store"
	case autolink.OutcomeFailed:
		return zapcore.WarnLevel, "candidate could not be processed"
	case autolink.OutcomeNotFound:
		return zapcore.DebugLevel, "referenced issue not found"
	case autolink.OutcomeSelf:
		return zapcore.DebugLevel, "issue references itself"
	default:
		return zapcore.WarnLevel, "unknown outcome"
	}
}
