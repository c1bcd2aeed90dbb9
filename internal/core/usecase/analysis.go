package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

// AnalysisUseCase runs the text-generation backed stages: project reasoning and the
// structure overview memo.
type AnalysisUseCase struct {
	workspace ports.ProjectWorkspace
	generator ports.TextGenerator
}

func NewAnalysisUseCase(workspace ports.ProjectWorkspace, generator ports.TextGenerator) *AnalysisUseCase {
	return &AnalysisUseCase{workspace: workspace, generator: generator}
}

func DefaultReasoningQuestion(sector, territory string) string {
	return fmt.Sprintf(
		"Based on the document analysis, what are the key investment considerations for this %s project in %s?",
		sector, territory,
	)
}

func FallbackReasoning(sector, territory string) string {
	return fmt.Sprintf("Project analysis for %s in %s", sector, territory)
}

func FallbackStructure(sector, territory string) string {
	return fmt.Sprintf("# Structure Overview\n\n%s project in %s\n", sector, territory)
}

// Reason asks the generator the question and persists the answer as the project reasoning.
func (uc *AnalysisUseCase) Reason(ctx context.Context, projectID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "reason", fmt.Errorf("question is required"))
	}
	answer, err := uc.generator.Ask(ctx, question)
	if err != nil {
		return "", fmt.Errorf("ask reasoning question: %w", err)
	}
	if err := uc.workspace.WriteText(ctx, uc.workspace.Layout(projectID).ReasoningFile(), answer); err != nil {
		return "", fmt.Errorf("write reasoning: %w", err)
	}
	return answer, nil
}

// BuildStructure derives the structure overview memo from the insights file.
func (uc *AnalysisUseCase) BuildStructure(ctx context.Context, projectID string) (string, error) {
	layout := uc.workspace.Layout(projectID)
	insights, err := uc.workspace.ReadText(ctx, layout.InsightsFile())
	if err != nil {
		return "", fmt.Errorf("read insights: %w", err)
	}
	answer, err := uc.generator.Ask(ctx, buildStructurePrompt(insights))
	if err != nil {
		return "", fmt.Errorf("ask structure overview: %w", err)
	}
	if err := uc.workspace.WriteText(ctx, layout.StructureFile(), answer); err != nil {
		return "", fmt.Errorf("write structure overview: %w", err)
	}
	return answer, nil
}

func buildStructurePrompt(insights string) string {
	return `Based on the following insights, describe:
- Legal structure
- Governance
- Economics
- Market opportunities
- Competitive landscape
- Financial projections
- KPIs
- Funding requirements
- Key constraints

Insights:
` + insights
}
