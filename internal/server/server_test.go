package server

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HendryAvila/autorelate/internal/config"
	"github.com/HendryAvila/autorelate/internal/issue"
	"github.com/HendryAvila/autorelate/internal/observe"
	"github.com/HendryAvila/autorelate/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:         t.TempDir(),
		Environment:     "development",
		LogLevel:        "debug",
		MaxTraversal:    100,
		MaxContextDepth: 3,
	}
}

func TestNew_RegistersEverything(t *testing.T) {
	s, cleanup, err := New(testConfig(t), zap.NewNop(), nil)
	require.NoError(t, err)
	defer cleanup()

	tools := s.ListTools()
	for _, name := range []string{
		"issue_create", "issue_get", "issue_note", "issue_edit",
		"issue_resync", "issue_relate", "issue_unrelate", "issue_context",
	} {
		assert.Contains(t, tools, name)
	}
	assert.Len(t, tools, 8)
}

func TestNew_BadDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataDir = "/dev/null/autorelate"

	_, cleanup, err := New(cfg, zap.NewNop(), nil)
	assert.Error(t, err)
	assert.NotNil(t, cleanup)
}

func TestOpenEngine_WiresSinks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observe.NewMetrics("autorelate")

	engine, err := OpenEngine(testConfig(t), zap.New(core), metrics)
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	a, err := engine.Store.CreateIssue(ctx, store.CreateIssueParams{Subject: "A"})
	require.NoError(t, err)
	_, err = engine.Store.CreateIssue(ctx, store.CreateIssueParams{Subject: "B"})
	require.NoError(t, err)

	ev, err := engine.Store.Edit(ctx, a, store.EditParams{Notes: "see #2"})
	require.NoError(t, err)
	report := engine.Linker.OnItemTextChanged(ctx, *ev)

	assert.Equal(t, []int64{2}, report.Created())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Created))
	assert.Equal(t, 1, logs.FilterMessage("relates link created").Len())

	ok, err := engine.Store.RelationExists(ctx, a, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	edges, err := engine.Store.Relations(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, issue.Relates, edges.Outgoing[0].Type)
}

func TestOpenEngine_TraversalLimitFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxTraversal = 1

	engine, err := OpenEngine(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	for _, subj := range []string{"A", "B", "C"} {
		_, err := engine.Store.CreateIssue(ctx, store.CreateIssueParams{Subject: subj})
		require.NoError(t, err)
	}
	_, err = engine.Store.CreateRelation(ctx, 2, 3, issue.Blocks)
	require.NoError(t, err)

	ev, err := engine.Store.Edit(ctx, 1, store.EditParams{Notes: "#2"})
	require.NoError(t, err)
	report := engine.Linker.OnItemTextChanged(ctx, *ev)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "failed", string(report.Results[0].Outcome))
}

func TestServerInstructions_MentionTools(t *testing.T) {
	text := serverInstructions()
	for _, name := range []string{"issue_note", "issue_edit", "issue_resync", "issue_relate"} {
		assert.Contains(t, text, name)
	}
}
