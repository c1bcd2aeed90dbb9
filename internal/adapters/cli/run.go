package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

type runOptions struct {
	sector    string
	territory string
	audience  string
	question  string
}

func (o runOptions) request(projectID string) domain.RunRequest {
	return domain.RunRequest{
		ProjectID: projectID,
		Sector:    o.sector,
		Territory: o.territory,
		Audience:  o.audience,
		Question:  o.question,
	}
}

func newRunCommand(r *root) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every pipeline stage in order",
		Example: `  deckctl run --project acme --sector "Solar energy" --territory Kenya
  deckctl run -p acme --sector Agriculture --territory Senegal --audience lenders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			run, err := svc.Pipeline.Run(cmd.Context(), opts.request(r.opts.projectID))
			if run != nil {
				printRun(cmd.OutOrStdout(), run)
			}
			if err != nil {
				return err
			}
			if run.Fatal() {
				return errFatalRun
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.sector, "sector", "", "project sector")
	cmd.Flags().StringVar(&opts.territory, "territory", "", "project territory")
	cmd.Flags().StringVar(&opts.audience, "audience", "", "deck audience (default DEFAULT_AUDIENCE, else investors)")
	cmd.Flags().StringVar(&opts.question, "question", "", "override the reasoning question")
	_ = cmd.MarkFlagRequired("sector")
	_ = cmd.MarkFlagRequired("territory")
	return cmd
}

func printRun(w io.Writer, run *domain.PipelineRun) {
	for _, stage := range run.Stages {
		printStage(w, stage)
	}
	fmt.Fprintf(w, "run %s %s\n", run.ID, run.Status)
	if run.FinalArtifactPath != "" {
		fmt.Fprintln(w, run.FinalArtifactPath)
	}
}

func printStage(w io.Writer, result domain.StageResult) {
	line := fmt.Sprintf("%-18s %-9s", result.Stage, result.Status)
	if result.Artifact != "" {
		line += " " + result.Artifact
	}
	if result.Error != "" {
		line += " (" + result.Error + ")"
	}
	fmt.Fprintln(w, line)
}
