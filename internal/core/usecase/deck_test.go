package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

func assertAnchorOrder(t *testing.T, md string, anchors []string) {
	t.Helper()
	last := -1
	for _, anchor := range anchors {
		idx := strings.Index(md, "\n## "+anchor+"\n")
		if idx < 0 {
			t.Fatalf("missing anchor %q in:\n%s", anchor, md)
		}
		if idx <= last {
			t.Fatalf("anchor %q out of order", anchor)
		}
		last = idx
	}
}

func TestAssembleDeckWithoutInputsUsesPlaceholders(t *testing.T) {
	deck := AssembleDeck(DeckInput{ProjectID: "p1"})

	if !strings.HasPrefix(deck.Markdown, "# Business Investment Deck\n") {
		t.Fatalf("unexpected title: %q", deck.Markdown[:40])
	}
	assertAnchorOrder(t, deck.Markdown, DeckAnchors)
	for _, placeholder := range []string{placeholderInsights, placeholderStructure, placeholderFinancials, placeholderAnalysis} {
		if !strings.Contains(deck.Markdown, placeholder) {
			t.Fatalf("missing placeholder %q", placeholder)
		}
	}
	if strings.Contains(deck.Markdown, AnchorStrategicAssessment) {
		t.Fatalf("strategic assessment must be absent without reasoning")
	}
	if len(deck.Sections) != 0 {
		t.Fatalf("expected no sections, got %v", deck.Sections)
	}
}

func TestAssembleDeckWithAllInputs(t *testing.T) {
	summary := domain.DefaultFinancialSummary()
	summary.ProjectInfo = &domain.ProjectInfo{Sector: "Energy", Territory: "Kenya", ProjectID: "p1"}
	deck := AssembleDeck(DeckInput{
		ProjectID:  "p1",
		Insights:   "# Key Insights\n- Market: demand",
		Structure:  "Holding company",
		Memos:      []Memo{{Title: "A", Content: "a"}, {Title: "B", Content: "b"}, {Title: "C", Content: "c"}, {Title: "D", Content: "d"}},
		Financials: &summary,
		Reasoning:  strings.Repeat("r", 600),
	})

	if !strings.HasPrefix(deck.Markdown, "# Energy Investment Deck\n") {
		t.Fatalf("sector must be recovered from project info: %q", deck.Markdown[:40])
	}
	anchors := []string{
		AnchorProjectOverview, AnchorExecutiveSummary, AnchorDocumentInsights, AnchorBusinessStructure,
		AnchorFinancialProjections, AnchorDetailedAnalysis, AnchorStrategicAssessment, AnchorInvestmentRecommendation,
	}
	assertAnchorOrder(t, deck.Markdown, anchors)
	if !strings.Contains(deck.Markdown, "- Year 1: $1,250,000") {
		t.Fatalf("missing formatted revenue")
	}
	if !strings.Contains(deck.Markdown, strings.Repeat("r", maxReasoningChars)+"...") {
		t.Fatalf("reasoning must be truncated with an ellipsis")
	}
	if strings.Contains(deck.Markdown, "### D\n") {
		t.Fatalf("at most %d memos are included", maxMemos)
	}
	want := []string{"document_insights", "structure", "financials", "memos", "reasoning"}
	if strings.Join(deck.Sections, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected sections: %v", deck.Sections)
	}
}

func TestFormatFinancialsSkipsZeroYears(t *testing.T) {
	out := FormatFinancials(domain.FinancialSummary{Revenue: domain.YearlyFigures{Year1: 1000, Year3: 999}})
	want := "### Revenue Projections\n- Year 1: $1,000\n- Year 3: $999"
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if FormatFinancials(domain.FinancialSummary{}) != "" {
		t.Fatalf("expected empty output for an empty summary")
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := map[int64]string{0: "$0", 12: "$12", 1234567: "$1,234,567", -4500: "-$4,500"}
	for in, want := range cases {
		if got := FormatCurrency(in); got != want {
			t.Fatalf("FormatCurrency(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMemoTitle(t *testing.T) {
	if got := MemoTitle("/x/memo/market_study.md"); got != "Market Study" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestDeckAssembleProjectWritesDeckAndSummary(t *testing.T) {
	ws := newMemWorkspace()
	layout := ws.Layout("p1")
	ws.put(layout.InsightsFile(), "# Key Insights\n- Market: demand (a.md)")
	ws.put(layout.StructureFile(), "Holding company")
	ws.put(layout.MemoDir()+"/market_study.md", "Market memo")

	uc := NewDeckUseCase(ws, NewFinancialsUseCase(ws, &sheetReaderFake{}))
	deck, err := uc.AssembleProject(context.Background(), "p1", "Energy", "Kenya")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(deck.Markdown, "### Market Study") != 1 {
		t.Fatalf("memo missing or structure overview treated as memo:\n%s", deck.Markdown)
	}
	if strings.Contains(deck.Markdown, "### Structure Overview") {
		t.Fatalf("structure overview must not be listed as a memo")
	}
	written, _ := ws.get(layout.DeckFile())
	if written != deck.Markdown {
		t.Fatalf("deck markdown not persisted")
	}
	summary, ok := ws.get(layout.DeckSummaryFile())
	if !ok || !strings.Contains(summary, "Sections included: document_insights, structure, memos") {
		t.Fatalf("unexpected deck summary:\n%s", summary)
	}
}

func TestBasicDeckParsesIntoSlides(t *testing.T) {
	slides := CleanSlides(ParseOutline(BasicDeck("p1", "Energy", "Kenya")))
	if len(slides) != 5 || slides[0].Title != "Energy Investment Deck - p1" {
		t.Fatalf("unexpected slides: %#v", slides)
	}
}
