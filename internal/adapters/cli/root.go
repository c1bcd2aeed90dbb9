// Package cli implements deckctl, the command-line front end of the pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/deck-pipeline/internal/bootstrap"
	"github.com/kirillkom/deck-pipeline/internal/config"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
	"github.com/kirillkom/deck-pipeline/internal/observability/logging"
)

// Purger removes the stage artifacts of a project immediately.
type Purger interface {
	Purge(ctx context.Context, projectID string) error
}

// Services are the use cases the commands drive.
type Services struct {
	Pipeline  ports.PipelineRunner
	Artifacts ports.ArtifactRetriever
	Purger    Purger
	Close     func()
}

// Factory builds the services once flags are parsed.
type Factory func(ctx context.Context, logger *slog.Logger) (*Services, error)

// errFatalRun marks a run that produced only an error report; it maps to exit code 1
// without printing usage.
var errFatalRun = errors.New("pipeline run failed")

type globalOptions struct {
	projectID string
	logLevel  string
}

type root struct {
	factory Factory
	opts    globalOptions
	stderr  io.Writer
}

func NewRootCommand(factory Factory) *cobra.Command {
	r := &root{factory: factory}
	cmd := &cobra.Command{
		Use:   "deckctl",
		Short: "Turn project documents into an investor deck",
		Long: `deckctl runs the document-to-deck pipeline on a project workspace.

Upload documents into <PROJECTS_ROOT>/<project>/raw_docs, then run the full
pipeline or a single stage. Every stage falls back to a placeholder artifact
when it cannot complete, so a run only fails when no artifact can be written.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			r.stderr = cmd.ErrOrStderr()
		},
	}

	cmd.PersistentFlags().StringVarP(&r.opts.projectID, "project", "p", "", "project id")
	cmd.PersistentFlags().StringVar(&r.opts.logLevel, "log-level", "", "log level (debug|info|warn|error), defaults to LOG_LEVEL")
	_ = cmd.MarkPersistentFlagRequired("project")

	cmd.AddCommand(
		newRunCommand(r),
		newFetchCommand(r),
		newPurgeCommand(r),
	)
	for _, spec := range stageCommands {
		cmd.AddCommand(newStageCommand(r, spec))
	}
	return cmd
}

// services builds the use cases with a logger writing to stderr.
func (r *root) services(cmd *cobra.Command) (*Services, error) {
	stderr := r.stderr
	if stderr == nil {
		stderr = cmd.ErrOrStderr()
	}
	level := r.opts.logLevel
	if level == "" {
		level = config.Load().LogLevel
	}
	logger := logging.NewJSONLoggerTo(stderr, "deckctl", level)
	slog.SetDefault(logger)

	svc, err := r.factory(cmd.Context(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if svc.Close == nil {
		svc.Close = func() {}
	}
	return svc, nil
}

// DefaultFactory wires the services from environment configuration.
func DefaultFactory(ctx context.Context, logger *slog.Logger) (*Services, error) {
	app, err := bootstrap.New(ctx, config.Load(), bootstrap.Options{Service: "deckctl", Logger: logger})
	if err != nil {
		return nil, err
	}
	return &Services{
		Pipeline:  app.Pipeline,
		Artifacts: app.Artifacts,
		Purger:    app.Workspace,
		Close:     app.Close,
	}, nil
}

// Execute runs deckctl and returns the process exit code: 0 when an artifact was produced
// (fallbacks included), 1 otherwise.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, DefaultFactory, args, stdout, stderr)
}

func execute(ctx context.Context, factory Factory, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(factory)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFatalRun) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
