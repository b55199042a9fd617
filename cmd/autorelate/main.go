// autorelate: issue tracker MCP server with automatic "relates" links.
//
// Every #123 reference written in an issue note or description becomes a
// "relates" link to issue 123, unless it would duplicate, loop back on or
// contradict an existing relation.
//
// Usage:
//
//	autorelate serve        # Start MCP server (stdio transport)
//	autorelate sync <id>    # Rescan one issue's description and link its references
//	autorelate version      # Print the version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/autorelate/internal/autolink"
	"github.com/HendryAvila/autorelate/internal/config"
	"github.com/HendryAvila/autorelate/internal/logging"
	"github.com/HendryAvila/autorelate/internal/observe"
	arserver "github.com/HendryAvila/autorelate/internal/server"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "autorelate",
		Short:         "Issue tracker MCP server with automatic relates links",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newSyncCommand(), newVersionCommand())
	return root
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logging.Sync(log)
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *observe.Metrics
	if cfg.MetricsAddr != "" {
		metrics = observe.NewMetrics("autorelate")
	}

	s, cleanup, err := arserver.New(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	g, gctx := errgroup.WithContext(ctx)

	// stdout carries the MCP stdio transport; logs go to stderr.
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(log.Named("stdio")))
	g.Go(func() error {
		defer stop()
		if err := stdio.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	})

	if metrics != nil {
		srv := metricsServer(cfg.MetricsAddr, metrics)
		g.Go(func() error {
			log.Info("metrics listener started", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// metricsServer exposes /metrics on addr.
func metricsServer(addr string, metrics *observe.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <issue-id>",
		Short: "Rescan an issue's description and create missing relates links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid issue id %q", args[0])
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logging.Sync(log)

			engine, err := arserver.OpenEngine(cfg, log, nil)
			if err != nil {
				return err
			}
			defer engine.Close()

			report := engine.Linker.Resync(cmd.Context(), id)
			if report.Err != nil {
				return report.Err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printReport(w io.Writer, r *autolink.Report) {
	if len(r.Candidates) == 0 {
		fmt.Fprintf(w, "#%d: no references\n", r.IssueID)
		return
	}
	for _, res := range r.Results {
		fmt.Fprintf(w, "#%d -> #%d: %s", r.IssueID, res.CandidateID, res.Outcome)
		if res.RelationID != 0 {
			fmt.Fprintf(w, " (relation %d)", res.RelationID)
		}
		if res.Err != nil {
			fmt.Fprintf(w, ": %v", res.Err)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d created\n", len(r.Created()))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "autorelate v%s\n", arserver.Version)
		},
	}
}
