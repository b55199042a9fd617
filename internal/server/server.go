// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools, prompts and resources that depend on
// them. No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/autorelate/internal/autolink"
	"github.com/HendryAvila/autorelate/internal/config"
	"github.com/HendryAvila/autorelate/internal/issuetools"
	"github.com/HendryAvila/autorelate/internal/observe"
	"github.com/HendryAvila/autorelate/internal/prompts"
	"github.com/HendryAvila/autorelate/internal/resources"
	"github.com/HendryAvila/autorelate/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Engine bundles the store with the synchronizer that keeps its
// relates graph current.
type Engine struct {
	Store  *store.Store
	Linker *autolink.Synchronizer
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// OpenEngine opens the store described by cfg and attaches a synchronizer
// that reports to log and, when non-nil, to metrics.
func OpenEngine(cfg *config.Config, log *zap.Logger, metrics *observe.Metrics) (*Engine, error) {
	st, err := store.New(cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	sinks := []autolink.Sink{observe.NewZapSink(log)}
	if metrics != nil {
		sinks = append(sinks, metrics)
	}

	linker := autolink.New(st, st,
		autolink.WithSink(observe.Multi(sinks...)),
		autolink.WithMaxTraversal(cfg.MaxTraversal),
	)
	return &Engine{Store: st, Linker: linker}, nil
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the store and must be called on
// shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, log *zap.Logger, metrics *observe.Metrics) (*server.MCPServer, func(), error) {
	engine, err := OpenEngine(cfg, log, metrics)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		if err := engine.Close(); err != nil {
			log.Warn("closing store", zap.Error(err))
		}
	}

	s := server.NewMCPServer(
		"autorelate",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerIssueTools(s, engine)

	// --- Register prompts ---

	linksPrompt := prompts.NewLinksPrompt()
	s.AddPrompt(linksPrompt.Definition(), linksPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(engine.Store)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	log.Info("mcp server ready",
		zap.String("version", Version),
		zap.String("data_dir", cfg.DataDir),
	)
	return s, cleanup, nil
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// registerIssueTools registers the issue tracker tools with the server.
func registerIssueTools(s *server.MCPServer, e *Engine) {
	createTool := issuetools.NewCreateTool(e.Store)
	s.AddTool(createTool.Definition(), createTool.Handle)

	getTool := issuetools.NewGetTool(e.Store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	noteTool := issuetools.NewNoteTool(e.Store, e.Linker)
	s.AddTool(noteTool.Definition(), noteTool.Handle)

	editTool := issuetools.NewEditTool(e.Store, e.Linker)
	s.AddTool(editTool.Definition(), editTool.Handle)

	resyncTool := issuetools.NewResyncTool(e.Linker)
	s.AddTool(resyncTool.Definition(), resyncTool.Handle)

	relateTool := issuetools.NewRelateTool(e.Store)
	s.AddTool(relateTool.Definition(), relateTool.Handle)

	unrelateTool := issuetools.NewUnrelateTool(e.Store)
	s.AddTool(unrelateTool.Definition(), unrelateTool.Handle)

	contextTool := issuetools.NewContextTool(e.Store)
	s.AddTool(contextTool.Definition(), contextTool.Handle)
}

func serverInstructions() string {
	return `You have access to autorelate, an issue tracker that keeps its relation graph in step with what people write.

## HOW LINKING WORKS

Whenever you add a note (issue_note) or change a description (issue_edit),
every #123 reference in the new text becomes a 'relates' link from the edited
issue to issue 123. A reference is skipped when:
- issue 123 does not exist, or is the edited issue itself
- a relation of any type already leads from the edited issue to 123
- the link would close a loop in the relation graph
- the two issues are parent and child, or already joined by a stronger
  relation (blocks, precedes, duplicates, copied_to and their inverses)

Each reply lists what happened to every reference. Skips are normal and
never make the edit fail.

## TOOLS

- issue_create: new issue. Creation alone does not link references.
- issue_get: issue, parent, relations and history.
- issue_note / issue_edit: record an edit and link its references.
- issue_resync: rescan the current description, e.g. after issue_create.
- issue_relate / issue_unrelate: manage typed relations by hand.
- issue_context: walk the relation graph around an issue.

Prefer issue_relate with a specific type when you know the dependency
direction; the linker only ever adds the neutral 'relates' type.`
}
