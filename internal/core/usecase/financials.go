package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

const summarySheet = "Summary"

var spreadsheetExts = []string{".xlsx", ".xlsm", ".xls"}

var yearColumns = [3]string{"Year 1", "Year 2", "Year 3"}

var errSummaryTableMissing = errors.New("summary sheet has no Revenue or EBITDA figures")

// FinancialOutcome is a normalized summary plus where it came from. Cause explains why
// defaults were used and is nil when the spreadsheet supplied the figures.
type FinancialOutcome struct {
	Summary     domain.FinancialSummary
	Source      domain.FinancialSource
	Spreadsheet string
	Cause       error
}

type FinancialsUseCase struct {
	workspace ports.ProjectWorkspace
	reader    ports.SpreadsheetReader
}

func NewFinancialsUseCase(workspace ports.ProjectWorkspace, reader ports.SpreadsheetReader) *FinancialsUseCase {
	return &FinancialsUseCase{workspace: workspace, reader: reader}
}

// Normalize never fails: a missing spreadsheet, a missing Summary table or a read error all
// yield the default dataset, and each missing or blank cell falls back to its own default.
func (uc *FinancialsUseCase) Normalize(ctx context.Context, spreadsheetPath string) FinancialOutcome {
	if spreadsheetPath == "" {
		return FinancialOutcome{
			Summary: domain.DefaultFinancialSummary(),
			Source:  domain.FinancialFromDefaults,
			Cause:   errors.New("no financial spreadsheet found"),
		}
	}

	rows, err := uc.reader.ReadSheet(ctx, spreadsheetPath, summarySheet)
	if err != nil {
		return FinancialOutcome{
			Summary:     domain.DefaultFinancialSummary(),
			Source:      domain.FinancialFromDefaults,
			Spreadsheet: spreadsheetPath,
			Cause:       fmt.Errorf("read %s sheet: %w", summarySheet, err),
		}
	}

	summary, found := NormalizeSummaryRows(rows)
	if found == 0 {
		return FinancialOutcome{
			Summary:     summary,
			Source:      domain.FinancialFromDefaults,
			Spreadsheet: spreadsheetPath,
			Cause:       errSummaryTableMissing,
		}
	}
	return FinancialOutcome{
		Summary:     summary,
		Source:      domain.FinancialFromSpreadsheet,
		Spreadsheet: spreadsheetPath,
	}
}

// ExtractProject normalizes the project's first spreadsheet, stamps project info and persists
// the canonical summary JSON. Only a failed write is returned as an error.
func (uc *FinancialsUseCase) ExtractProject(ctx context.Context, projectID string, info *domain.ProjectInfo) (FinancialOutcome, error) {
	layout := uc.workspace.Layout(projectID)

	spreadsheet := ""
	files, err := uc.workspace.List(ctx, layout.RawDocsDir(), spreadsheetExts...)
	if err == nil && len(files) > 0 {
		spreadsheet = files[0]
	}

	outcome := uc.Normalize(ctx, spreadsheet)
	outcome.Summary.ProjectInfo = info
	if err := uc.Persist(ctx, projectID, outcome.Summary); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (uc *FinancialsUseCase) Persist(ctx context.Context, projectID string, summary domain.FinancialSummary) error {
	raw, err := MarshalFinancialSummary(summary)
	if err != nil {
		return err
	}
	if err := uc.workspace.WriteText(ctx, uc.workspace.Layout(projectID).FinancialSummaryFile(), string(raw)); err != nil {
		return fmt.Errorf("write financial summary: %w", err)
	}
	return nil
}

// Load reads the persisted summary of a project.
func (uc *FinancialsUseCase) Load(ctx context.Context, projectID string) (domain.FinancialSummary, error) {
	raw, err := uc.workspace.ReadText(ctx, uc.workspace.Layout(projectID).FinancialSummaryFile())
	if err != nil {
		return domain.FinancialSummary{}, fmt.Errorf("read financial summary: %w", err)
	}
	return UnmarshalFinancialSummary([]byte(raw))
}

// MarshalFinancialSummary is deterministic: the same summary always yields the same bytes.
func MarshalFinancialSummary(summary domain.FinancialSummary) ([]byte, error) {
	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal financial summary: %w", err)
	}
	return append(raw, '\n'), nil
}

func UnmarshalFinancialSummary(raw []byte) (domain.FinancialSummary, error) {
	var summary domain.FinancialSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.FinancialSummary{}, domain.WrapError(domain.ErrInvalidInput, "decode financial summary", err)
	}
	return summary, nil
}

// NormalizeSummaryRows looks up the Revenue and EBITDA rows against the Year 1..3 header
// columns. It returns the summary and how many cells came from the sheet.
func NormalizeSummaryRows(rows [][]string) (domain.FinancialSummary, int) {
	summary := domain.DefaultFinancialSummary()
	if len(rows) == 0 {
		return summary, 0
	}

	var columns [3]int
	for i, name := range yearColumns {
		columns[i] = headerIndex(rows[0], name)
	}

	found := 0
	found += fillFigures(&summary.Revenue, findRow(rows[1:], "Revenue"), columns)
	found += fillFigures(&summary.EBITDA, findRow(rows[1:], "EBITDA"), columns)
	return summary, found
}

func fillFigures(figures *domain.YearlyFigures, row []string, columns [3]int) int {
	if row == nil {
		return 0
	}
	targets := [3]*int64{&figures.Year1, &figures.Year2, &figures.Year3}
	found := 0
	for i, col := range columns {
		if col < 0 || col >= len(row) {
			continue
		}
		value, ok := parseAmount(row[col])
		if !ok {
			continue
		}
		*targets[i] = value
		found++
	}
	return found
}

func headerIndex(header []string, name string) int {
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return i
		}
	}
	return -1
}

func findRow(rows [][]string, label string) []string {
	for _, row := range rows {
		if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), label) {
			return row
		}
	}
	return nil
}

// parseAmount accepts plain or formatted numbers ("1,250,000", "$ 1250000.4"). Blank, zero,
// negative, unparsable and out-of-range cells are rejected so the caller keeps the default.
func parseAmount(cell string) (int64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '€', '£', ' ', '\u00a0':
			return -1
		default:
			return r
		}
	}, cell)
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, false
	}
	rounded := math.Round(value)
	if rounded >= math.MaxInt64 {
		return 0, false
	}
	return int64(rounded), true
}
