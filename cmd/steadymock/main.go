// Command steadymock loads an OpenAPI document and serves a mock HTTP API
// over it: request validation, schema-driven response synthesis, and the
// diagnostics/observability headers described by the core library under
// internal/. It owns every external-I/O seam the core treats as out of
// scope (spec.md §1): CLI parsing, file/URL loading, structured logging,
// and graceful shutdown.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgellow/steady/internal/analyzer"
	"github.com/dgellow/steady/internal/config"
	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/refgraph"
	"github.com/dgellow/steady/internal/registry"
	"github.com/dgellow/steady/internal/server"
	"github.com/dgellow/steady/internal/validator"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Default()
	var queryArrayFormat, queryObjectFormat, modeFlag, logLevelFlag string

	cmd := &cobra.Command{
		Use:   "steadymock <spec-path-or-url>",
		Short: "Serve a mock HTTP API synthesized from an OpenAPI document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SpecPath = args[0]

			if mode, ok := config.ParseMode(modeFlag); ok {
				cfg.Mode = mode
			} else {
				return errors.Errorf("invalid --mode %q: want strict or relaxed", modeFlag)
			}
			cfg.LogLevel = config.LogLevel(logLevelFlag)

			if queryArrayFormat != "" {
				cfg.QueryArrayFormat = validator.QueryArrayFormat(queryArrayFormat)
			}
			if queryObjectFormat != "" {
				cfg.QueryObjectFormat = validator.QueryObjectFormat(queryObjectFormat)
			}

			return serve(cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "host to bind to")
	cmd.Flags().StringVar(&modeFlag, "mode", string(cfg.Mode), "default request strictness: strict or relaxed")
	cmd.Flags().StringVar(&logLevelFlag, "log-level", string(cfg.LogLevel), "summary, details, or full")
	cmd.Flags().BoolVar(&cfg.LogBodies, "log-bodies", cfg.LogBodies, "stored in the config; request logging does not attach bodies")
	cmd.Flags().BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "print the shutdown session summary as a styled line instead of a structured log entry")
	cmd.Flags().StringVar(&queryArrayFormat, "validator-query-array-format", "", "auto, repeat, comma, space, pipe, or brackets")
	cmd.Flags().StringVar(&queryObjectFormat, "validator-query-object-format", "", "auto, flat, flat-comma, brackets, or dots")
	cmd.Flags().BoolVar(&cfg.StrictOneOf, "validator-strict-oneof", cfg.StrictOneOf, "require exactly one oneOf branch to match instead of any")
	cmd.Flags().IntVar(&cfg.ArrayMin, "array-min", cfg.ArrayMin, "minimum generated array length (-1 for no override)")
	cmd.Flags().IntVar(&cfg.ArrayMax, "array-max", cfg.ArrayMax, "maximum generated array length (-1 for no override)")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "deterministic generator seed")

	cmd.SilenceUsage = true
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

// exitCode lets serve communicate a clean-vs-error shutdown back to run
// without cobra's RunE error path (which always implies a startup error),
// since a signal-driven shutdown is not itself a failure (spec.md §6
// "Exit codes").
var exitCode int

func serve(cfg config.Config) error {
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer logger.Sync()

	data, err := loadSpecBytes(cfg.SpecPath)
	if err != nil {
		return errors.Wrap(err, "loading spec document")
	}

	doc, err := openapi.Load(data)
	if err != nil {
		return errors.Wrap(err, "parsing spec document")
	}

	graph := refgraph.Build(doc.RawRoot())
	reg := registry.New(doc, graph)

	diags := analyzer.Run(reg, analyzer.Default(analyzer.DefaultOptions()), logger)

	coll := diagnostics.New()
	coll.SetStatic(diags)

	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			logger.Error("startup analysis found a spec error", zap.String("code", d.Code), zap.String("message", d.Message))
		}
	}

	srv := server.New(doc, reg, cfg, coll, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("spec", cfg.SpecPath), zap.String("mode", string(cfg.Mode)))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			exitCode = 1
			return errors.Wrap(err, "serving")
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}

	logSessionSummary(logger, coll, cfg.Interactive)
	exitCode = 0
	return nil
}

func buildLogger(level config.LogLevel) (*zap.Logger, error) {
	cfgZap := zap.NewProductionConfig()
	switch level {
	case config.LogFull, config.LogDetails:
		cfgZap.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		cfgZap.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfgZap.Encoding = "console"
	cfgZap.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return cfgZap.Build()
}

// loadSpecBytes reads path either as a local file or, when it looks like
// an HTTP(S) URL, fetches it — the one place this module's external-I/O
// boundary (spec.md §1) touches the network.
func loadSpecBytes(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("fetching spec: unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(path)
}

var summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

// logSessionSummary emits the diagnostic collector's full summary once at
// shutdown (spec.md §5 "a session summary is emitted"), styled with
// lipgloss when --interactive was requested.
func logSessionSummary(logger *zap.Logger, coll *diagnostics.Collector, interactive bool) {
	summary := coll.Summary()
	stats := summary.Stats

	if interactive {
		fmt.Println(summaryStyle.Render(fmt.Sprintf(
			"session: %d requests, %d succeeded, %d failed",
			stats.RequestCount, stats.SuccessCount, stats.FailedCount,
		)))
		return
	}

	logger.Info("session summary",
		zap.Int64("requests", stats.RequestCount),
		zap.Int64("succeeded", stats.SuccessCount),
		zap.Int64("failed", stats.FailedCount),
		zap.Int64("duration_ms", stats.DurationMs),
		zap.Int("top_codes", len(summary.TopCodes)),
	)
}
