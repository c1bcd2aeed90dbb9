package cli

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

type stageCommand struct {
	use   string
	stage domain.StageName
	short string
}

var stageCommands = []stageCommand{
	{"standardize", domain.StageStandardize, "Convert raw documents to markdown"},
	{"insights", domain.StageExtractInsights, "Extract key insights from standardized documents"},
	{"reason", domain.StageReason, "Ask the investment reasoning question"},
	{"structure", domain.StageBuildStructure, "Draft the structure overview memo"},
	{"financials", domain.StageExtractFinancials, "Normalize the financial spreadsheet"},
	{"charts", domain.StageRenderCharts, "Render the revenue and EBITDA chart"},
	{"assemble", domain.StageAssembleDeck, "Assemble the deck markdown"},
	{"render", domain.StageRenderSlides, "Render the deck into a presentation"},
}

func newStageCommand(r *root, spec stageCommand) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			result, err := svc.Pipeline.RunStage(cmd.Context(), spec.stage, opts.request(r.opts.projectID))
			if err != nil {
				return err
			}
			printStage(cmd.OutOrStdout(), result)
			if result.Status == domain.StageFatal {
				return errFatalRun
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.sector, "sector", "", "project sector")
	cmd.Flags().StringVar(&opts.territory, "territory", "", "project territory")
	cmd.Flags().StringVar(&opts.audience, "audience", "", "deck audience (default DEFAULT_AUDIENCE, else investors)")
	cmd.Flags().StringVar(&opts.question, "question", "", "override the reasoning question")
	return cmd
}
