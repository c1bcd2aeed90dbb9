package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

func TestAnalysisReasonPersistsAnswer(t *testing.T) {
	ws := newMemWorkspace()
	generator := &generatorFake{answer: "Grid access is the main constraint."}

	answer, err := NewAnalysisUseCase(ws, generator).Reason(context.Background(), "p1", DefaultReasoningQuestion("Energy", "Kenya"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored, _ := ws.get(ws.Layout("p1").ReasoningFile()); stored != answer {
		t.Fatalf("reasoning not persisted: %q", stored)
	}

	if _, err := NewAnalysisUseCase(ws, generator).Reason(context.Background(), "p1", " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an empty question, got %v", err)
	}
}

func TestAnalysisBuildStructure(t *testing.T) {
	ws := newMemWorkspace()
	layout := ws.Layout("p1")
	ws.put(layout.InsightsFile(), "# Key Insights\n- Market: demand")
	generator := &generatorFake{answer: "SPV owned by the sponsor."}

	if _, err := NewAnalysisUseCase(ws, generator).BuildStructure(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(generator.prompts[0], "Insights:\n# Key Insights\n- Market: demand") {
		t.Fatalf("insights missing from prompt: %q", generator.prompts[0])
	}
	if stored, _ := ws.get(layout.StructureFile()); stored != "SPV owned by the sponsor." {
		t.Fatalf("structure not persisted: %q", stored)
	}
}

func TestAnalysisBuildStructureRequiresInsights(t *testing.T) {
	generator := &generatorFake{answer: "x"}
	if _, err := NewAnalysisUseCase(newMemWorkspace(), generator).BuildStructure(context.Background(), "p1"); err == nil {
		t.Fatalf("expected an error without insights")
	}
	if len(generator.prompts) != 0 {
		t.Fatalf("generator must not be called without insights")
	}
}
