package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

const (
	minDocumentChars       = 300
	minBlockChars          = 120
	maxExcerptChars        = 500
	maxInsightsPerDocument = 5
	highlightChars         = 140
)

// Keywords are matched as lower-case substrings, so stems like "concurr" cover inflections.
var insightKeywords = map[domain.InsightType][]string{
	domain.InsightMarket: {
		"market", "marché", "demand", "demande", "competition", "concurr",
		"growth", "croissance",
	},
	domain.InsightRegulation: {
		"regulation", "réglement", "law", "loi", "autorité", "authority",
		"compliance", "licence", "approval",
	},
	domain.InsightOperations: {
		"operation", "process", "manufactur", "supply", "production",
		"distribution", "logistics",
	},
	domain.InsightFinancial: {
		"revenue", "cost", "margin", "profit", "expense",
		"chiffre", "coût", "rentabilité",
	},
	domain.InsightRisk: {
		"risk", "risque", "challenge", "threat", "uncertainty",
		"contraint", "exposure",
	},
}

var (
	blankLineSplit = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	sourceLine     = regexp.MustCompile(`Source:\s*([^\n]+\.md)`)
)

// ExtractInsights classifies the blocks of one document. It is purely extractive: every
// excerpt is a verbatim prefix of a source block.
func ExtractInsights(text, documentName string) ([]domain.InsightBlock, error) {
	trimmed := strings.TrimSpace(normalizeNewlines(text))
	if n := utf8.RuneCountInString(trimmed); n < minDocumentChars {
		return nil, domain.WrapError(
			domain.ErrInputTooShort,
			"extract insights",
			fmt.Errorf("document %q has %d characters, need at least %d", documentName, n, minDocumentChars),
		)
	}

	var out []domain.InsightBlock
	for _, block := range splitBlocks(trimmed) {
		insightType, ok := classifyBlock(block)
		if !ok {
			continue
		}
		out = append(out, domain.InsightBlock{
			Type:            insightType,
			SourceDocument:  documentName,
			Excerpt:         excerpt(block),
			ImplicationText: domain.Implication(insightType),
		})
		if len(out) >= maxInsightsPerDocument {
			break
		}
	}

	if len(out) == 0 {
		return nil, domain.WrapError(
			domain.ErrNoRelevantContent,
			"extract insights",
			fmt.Errorf("no investment-relevant content found in %q", documentName),
		)
	}
	return out, nil
}

func splitBlocks(text string) []string {
	parts := blankLineSplit.Split(text, -1)
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		block := strings.TrimSpace(part)
		if utf8.RuneCountInString(block) > minBlockChars {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func classifyBlock(block string) (domain.InsightType, bool) {
	lower := strings.ToLower(block)
	for _, insightType := range domain.InsightTypes {
		for _, keyword := range insightKeywords[insightType] {
			if strings.Contains(lower, keyword) {
				return insightType, true
			}
		}
	}
	return "", false
}

func excerpt(block string) string {
	return strings.ReplaceAll(truncateRunes(block, maxExcerptChars), `"`, "'")
}

// DocumentInsights groups the blocks extracted from one standardized document.
type DocumentInsights struct {
	Name   string
	Blocks []domain.InsightBlock
}

// FormatInsights renders the insights markdown file.
func FormatInsights(docs []DocumentInsights) string {
	var b strings.Builder
	b.WriteString("# Key Insights\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "\n## From %s\n", doc.Name)
		for _, block := range doc.Blocks {
			fmt.Fprintf(&b, "\n### Insight\nType: %s\nSource: %s\nExcerpt: \"%s\"\nImplication: %s\n",
				block.Type, block.SourceDocument, quoteContinuation(block.Excerpt), block.ImplicationText)
			fmt.Fprintf(&b, "- %s: %s (%s)\n", block.Type, highlight(block.Excerpt), block.SourceDocument)
		}
	}
	return b.String()
}

// quoteContinuation prefixes excerpt continuation lines with "> " so that headings or bullets
// inside an excerpt never become deck structure.
func quoteContinuation(excerpt string) string {
	return strings.ReplaceAll(excerpt, "\n", "\n> ")
}

func highlight(excerpt string) string {
	flat := strings.Join(strings.Fields(excerpt), " ")
	if utf8.RuneCountInString(flat) <= highlightChars {
		return flat
	}
	return truncateRunes(flat, highlightChars) + "..."
}

// ParseInsightSources returns the sorted, de-duplicated source filenames of an insights file.
func ParseInsightSources(insights string) []string {
	seen := make(map[string]struct{})
	for _, match := range sourceLine.FindAllStringSubmatch(insights, -1) {
		seen[strings.TrimSpace(match[1])] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseInsightBullets returns up to limit bullet lines of an insights file, markers stripped.
func ParseInsightBullets(insights string, limit int) []string {
	var out []string
	for _, line := range strings.Split(normalizeNewlines(insights), "\n") {
		item, ok := bulletText(line)
		if !ok {
			continue
		}
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out
}

type InsightsUseCase struct {
	workspace ports.ProjectWorkspace
}

func NewInsightsUseCase(workspace ports.ProjectWorkspace) *InsightsUseCase {
	return &InsightsUseCase{workspace: workspace}
}

// ExtractProject classifies every standardized document of a project and writes the insights
// file. Any document failing its preconditions aborts the whole step.
func (uc *InsightsUseCase) ExtractProject(ctx context.Context, projectID string) ([]DocumentInsights, error) {
	layout := uc.workspace.Layout(projectID)
	files, err := uc.workspace.List(ctx, layout.StandardizedDocsDir(), ".md")
	if err != nil {
		return nil, fmt.Errorf("list standardized documents: %w", err)
	}
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrNoDocuments, "extract insights",
			fmt.Errorf("no markdown documents in %s", layout.StandardizedDocsDir()))
	}

	docs := make([]DocumentInsights, 0, len(files))
	for _, path := range files {
		text, err := uc.workspace.ReadText(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read standardized document: %w", err)
		}
		name := filepath.Base(path)
		blocks, err := ExtractInsights(text, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, DocumentInsights{Name: name, Blocks: blocks})
	}

	if err := uc.workspace.WriteText(ctx, layout.InsightsFile(), FormatInsights(docs)); err != nil {
		return nil, fmt.Errorf("write insights: %w", err)
	}
	return docs, nil
}
