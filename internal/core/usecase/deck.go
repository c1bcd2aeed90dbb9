package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

const (
	AnchorProjectOverview          = "Project Overview"
	AnchorExecutiveSummary         = "Executive Summary"
	AnchorDocumentInsights         = "Document Insights"
	AnchorBusinessStructure        = "Business Structure"
	AnchorFinancialProjections     = "Financial Projections"
	AnchorDetailedAnalysis         = "Detailed Analysis"
	AnchorStrategicAssessment      = "Strategic Assessment"
	AnchorInvestmentRecommendation = "Investment Recommendation"
)

// DeckAnchors are the fixed sections of every deck, in order.
var DeckAnchors = []string{
	AnchorProjectOverview,
	AnchorExecutiveSummary,
	AnchorDocumentInsights,
	AnchorBusinessStructure,
	AnchorFinancialProjections,
	AnchorDetailedAnalysis,
	AnchorInvestmentRecommendation,
}

const (
	maxMemos          = 3
	maxMemoChars      = 300
	maxReasoningChars = 500
	currencyPrefix    = "$"
)

const (
	placeholderInsights   = "Document analysis reveals market opportunities, competitive landscape, and key risks from the uploaded materials."
	placeholderStructure  = "Business structure analysis provides the foundation for growth strategy and operational execution."
	placeholderFinancials = "Financial projections indicate strong growth potential with positive unit economics. Detailed models available upon request."
	placeholderAnalysis   = "Supplementary analysis memos were not provided for this project."
)

type Memo struct {
	Title   string
	Content string
}

// DeckInput carries every content source of the deck; all but the project id are optional.
type DeckInput struct {
	ProjectID  string
	Sector     string
	Territory  string
	Insights   string
	Structure  string
	Memos      []Memo
	Financials *domain.FinancialSummary
	Reasoning  string
}

// DeckDocument is the assembled markdown plus the content sources that were present.
type DeckDocument struct {
	Markdown string
	Sections []string
}

// AssembleDeck never fails: every absent input is replaced by its placeholder sentence and
// every anchor is written in the fixed order.
func AssembleDeck(in DeckInput) DeckDocument {
	sector := strings.TrimSpace(in.Sector)
	territory := strings.TrimSpace(in.Territory)
	if in.Financials != nil && in.Financials.ProjectInfo != nil {
		if sector == "" {
			sector = in.Financials.ProjectInfo.Sector
		}
		if territory == "" {
			territory = in.Financials.ProjectInfo.Territory
		}
	}

	var (
		b        strings.Builder
		sections []string
	)
	section := func(anchor, body string) {
		fmt.Fprintf(&b, "\n## %s\n%s\n", anchor, strings.TrimRight(body, "\n"))
	}

	fmt.Fprintf(&b, "# %s Investment Deck\n", orDefault(sector, "Business"))

	section(AnchorProjectOverview, fmt.Sprintf(
		"**Project:** %s\n**Sector:** %s\n**Territory:** %s\n**Status:** Generated from comprehensive pipeline analysis",
		in.ProjectID, orDefault(sector, "Analysis in progress"), orDefault(territory, "Target markets"),
	))

	section(AnchorExecutiveSummary, fmt.Sprintf(
		"This investment deck presents an opportunity in the **%s** sector with operations in **%s**. "+
			"The analysis is based on uploaded documents, market research, and financial projections.",
		orDefault(sector, "target"), orDefault(territory, "key markets"),
	))

	insights := strings.TrimSpace(in.Insights)
	if insights != "" {
		sections = append(sections, "document_insights")
	}
	section(AnchorDocumentInsights, orDefault(insights, placeholderInsights))

	structure := strings.TrimSpace(in.Structure)
	if structure != "" {
		sections = append(sections, "structure")
	}
	section(AnchorBusinessStructure, orDefault(structure, placeholderStructure))

	financials := ""
	if in.Financials != nil {
		financials = FormatFinancials(*in.Financials)
	}
	if financials != "" {
		sections = append(sections, "financials")
	}
	section(AnchorFinancialProjections, orDefault(financials, placeholderFinancials))

	analysis := formatMemos(in.Memos)
	if analysis != "" {
		sections = append(sections, "memos")
	}
	section(AnchorDetailedAnalysis, orDefault(analysis, placeholderAnalysis))

	if reasoning := strings.TrimSpace(in.Reasoning); reasoning != "" {
		sections = append(sections, "reasoning")
		section(AnchorStrategicAssessment, truncateWithEllipsis(reasoning, maxReasoningChars))
	}

	financialStrength := "Solid financial foundation"
	if financials != "" {
		financialStrength = "Positive projections with clear growth trajectory"
	}
	section(AnchorInvestmentRecommendation, fmt.Sprintf(`### Key Strengths
1. **Market Position**: Strong opportunity in %s sector
2. **Financials**: %s
3. **Documents**: Comprehensive analysis supports investment case

### Considerations
- Market dynamics in %s
- Execution timeline and resource requirements
- Competitive landscape evolution

### Next Steps
1. **Due Diligence**: Comprehensive review of all findings
2. **Financial Modeling**: Refine projections based on latest data
3. **Investment Committee**: Present findings for approval
4. **Legal & Compliance**: Finalize documentation

---
*This deck was automatically generated from uploaded documents and analysis.*`,
		orDefault(sector, "the target"), financialStrength, orDefault(territory, "target regions"),
	))

	return DeckDocument{Markdown: b.String(), Sections: sections}
}

// FormatFinancials renders revenue and EBITDA bullets; zero years are omitted.
func FormatFinancials(summary domain.FinancialSummary) string {
	var lines []string
	appendSeries := func(heading string, figures domain.YearlyFigures) {
		var bullets []string
		for i, value := range figures.Values() {
			if value == 0 {
				continue
			}
			bullets = append(bullets, fmt.Sprintf("- Year %d: %s", i+1, FormatCurrency(value)))
		}
		if len(bullets) == 0 {
			return
		}
		lines = append(lines, "### "+heading)
		lines = append(lines, bullets...)
	}
	appendSeries("Revenue Projections", summary.Revenue)
	appendSeries("EBITDA Projections", summary.EBITDA)
	return strings.Join(lines, "\n")
}

// FormatCurrency renders an amount with thousands separators, e.g. $1,250,000.
func FormatCurrency(value int64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	digits := strconv.FormatInt(value, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + currencyPrefix + b.String()
}

func formatMemos(memos []Memo) string {
	var parts []string
	for _, memo := range memos {
		if len(parts) == maxMemos {
			break
		}
		content := strings.TrimSpace(memo.Content)
		if content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("### %s\n%s", memo.Title, truncateWithEllipsis(content, maxMemoChars)))
	}
	return strings.Join(parts, "\n\n")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// MemoTitle derives a display title from a memo filename: "market_study.md" -> "Market Study".
func MemoTitle(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return cases.Title(language.English).String(strings.ReplaceAll(stem, "_", " "))
}

type DeckUseCase struct {
	workspace  ports.ProjectWorkspace
	financials *FinancialsUseCase
}

func NewDeckUseCase(workspace ports.ProjectWorkspace, financials *FinancialsUseCase) *DeckUseCase {
	return &DeckUseCase{workspace: workspace, financials: financials}
}

// AssembleProject gathers every available content source of a project, writes the deck
// markdown and its generation summary.
func (uc *DeckUseCase) AssembleProject(ctx context.Context, projectID, sector, territory string) (DeckDocument, error) {
	layout := uc.workspace.Layout(projectID)
	in := DeckInput{
		ProjectID: projectID,
		Sector:    sector,
		Territory: territory,
		Insights:  uc.readOptional(ctx, layout.InsightsFile()),
		Structure: uc.readOptional(ctx, layout.StructureFile()),
		Reasoning: uc.readOptional(ctx, layout.ReasoningFile()),
	}

	memoFiles, err := uc.workspace.List(ctx, layout.MemoDir(), ".md")
	if err == nil {
		for _, path := range memoFiles {
			if filepath.Base(path) == domain.StructureMemoName {
				continue
			}
			in.Memos = append(in.Memos, Memo{Title: MemoTitle(path), Content: uc.readOptional(ctx, path)})
		}
	}

	if uc.workspace.Exists(layout.FinancialSummaryFile()) {
		if summary, err := uc.financials.Load(ctx, projectID); err == nil {
			in.Financials = &summary
		}
	}

	deck := AssembleDeck(in)
	if err := uc.workspace.WriteText(ctx, layout.DeckFile(), deck.Markdown); err != nil {
		return DeckDocument{}, fmt.Errorf("write deck markdown: %w", err)
	}
	if err := uc.workspace.WriteText(ctx, layout.DeckSummaryFile(), deckSummary(in, deck, layout.DeckFile())); err != nil {
		return DeckDocument{}, fmt.Errorf("write deck summary: %w", err)
	}
	return deck, nil
}

func (uc *DeckUseCase) readOptional(ctx context.Context, path string) string {
	if !uc.workspace.Exists(path) {
		return ""
	}
	text, err := uc.workspace.ReadText(ctx, path)
	if err != nil {
		return ""
	}
	return text
}

func deckSummary(in DeckInput, deck DeckDocument, deckPath string) string {
	sections := "Basic template"
	if len(deck.Sections) > 0 {
		sections = strings.Join(deck.Sections, ", ")
	}
	return fmt.Sprintf(`Deck Generation Summary
=======================
Project: %s
Sector: %s
Territory: %s
Generated: %d characters
Sections included: %s
Output file: %s

Content Preview:
%s
`, in.ProjectID, in.Sector, in.Territory, utf8.RuneCountInString(deck.Markdown), sections, deckPath,
		truncateWithEllipsis(deck.Markdown, 500))
}

// BasicDeck is the stand-in deck written when assembly fails.
func BasicDeck(projectID, sector, territory string) string {
	return fmt.Sprintf(`# %s Investment Deck - %s

## Project Overview
**Sector:** %s
**Territory:** %s

## Executive Summary
Investment opportunity based on document analysis.

## Document Insights
Review the uploaded documents for detailed analysis.

## Financial Summary
See attached financial projections.

## Investment Opportunity
Compelling opportunity with growth potential.
`, orDefault(sector, "Business"), projectID, sector, territory)
}
