package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

func TestNormalizeSummaryRowsPerFieldFallback(t *testing.T) {
	rows := [][]string{
		{"Metric", "Year 1", "year 2", "Year 3"},
		{"Revenue", "2,000,000", "", "$ 9,000,000.4"},
		{"EBITDA", "-5", "abc", "700000"},
	}

	summary, found := NormalizeSummaryRows(rows)
	if found != 3 {
		t.Fatalf("expected 3 cells from the sheet, got %d", found)
	}
	wantRevenue := domain.YearlyFigures{Year1: 2000000, Year2: domain.DefaultRevenue().Year2, Year3: 9000000}
	if summary.Revenue != wantRevenue {
		t.Fatalf("unexpected revenue: %+v", summary.Revenue)
	}
	wantEBITDA := domain.YearlyFigures{Year1: domain.DefaultEBITDA().Year1, Year2: domain.DefaultEBITDA().Year2, Year3: 700000}
	if summary.EBITDA != wantEBITDA {
		t.Fatalf("unexpected EBITDA: %+v", summary.EBITDA)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		cell string
		want int64
		ok   bool
	}{
		{cell: "1,250,000", want: 1250000, ok: true},
		{cell: "$ 1250000.4", want: 1250000, ok: true},
		{cell: "1.5e6", want: 1500000, ok: true},
		{cell: "", ok: false},
		{cell: "0", ok: false},
		{cell: "-5", ok: false},
		{cell: "abc", ok: false},
		{cell: "NaN", ok: false},
		{cell: "1e20", ok: false},
		{cell: "9223372036854775807", ok: false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(tc.cell)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseAmount(%q) = %d, %v; want %d, %v", tc.cell, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeSummaryRowsKeepsDefaultForHugeValues(t *testing.T) {
	rows := [][]string{
		{"Metric", "Year 1", "Year 2", "Year 3"},
		{"Revenue", "1e20", "", ""},
	}

	summary, found := NormalizeSummaryRows(rows)
	if found != 0 {
		t.Fatalf("an out-of-range cell must not count as found, got %d", found)
	}
	if summary.Revenue != domain.DefaultRevenue() {
		t.Fatalf("expected default revenue, got %+v", summary.Revenue)
	}
}

func TestNormalizeSummaryRowsWithoutTable(t *testing.T) {
	summary, found := NormalizeSummaryRows([][]string{{"nothing"}})
	if found != 0 {
		t.Fatalf("expected nothing found, got %d", found)
	}
	if summary.Revenue != domain.DefaultRevenue() || summary.EBITDA != domain.DefaultEBITDA() {
		t.Fatalf("expected defaults, got %+v", summary)
	}
}

func TestNormalizeNeverFails(t *testing.T) {
	uc := NewFinancialsUseCase(newMemWorkspace(), &sheetReaderFake{err: errors.New("corrupt workbook")})

	outcome := uc.Normalize(context.Background(), "/projects/p1/raw_docs/model.xlsx")
	if outcome.Source != domain.FinancialFromDefaults || outcome.Cause == nil {
		t.Fatalf("expected defaults with a cause, got %+v", outcome)
	}
	if outcome.Summary.Revenue != domain.DefaultRevenue() {
		t.Fatalf("unexpected revenue: %+v", outcome.Summary.Revenue)
	}

	outcome = uc.Normalize(context.Background(), "")
	if outcome.Source != domain.FinancialFromDefaults {
		t.Fatalf("expected defaults without spreadsheet, got %+v", outcome)
	}
}

func TestFinancialsExtractProjectPersistsIdempotently(t *testing.T) {
	ws := newMemWorkspace()
	layout := ws.Layout("p1")
	ws.put(layout.RawDocsDir()+"/model.xlsx", "")
	reader := &sheetReaderFake{rows: [][]string{
		{"", "Year 1", "Year 2", "Year 3"},
		{"Revenue", "10", "20", "30"},
		{"EBITDA", "1", "2", "3"},
	}}
	uc := NewFinancialsUseCase(ws, reader)
	info := &domain.ProjectInfo{Sector: "Energy", Territory: "Kenya", ProjectID: "p1"}

	outcome, err := uc.ExtractProject(context.Background(), "p1", info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Source != domain.FinancialFromSpreadsheet || outcome.Cause != nil {
		t.Fatalf("expected spreadsheet source, got %+v", outcome)
	}
	first, _ := ws.get(layout.FinancialSummaryFile())

	if _, err := uc.ExtractProject(context.Background(), "p1", info); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := ws.get(layout.FinancialSummaryFile())
	if first != second {
		t.Fatalf("summary is not idempotent:\n%s\n%s", first, second)
	}

	loaded, err := uc.Load(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Revenue.Year3 != 30 || loaded.ProjectInfo == nil || loaded.ProjectInfo.Territory != "Kenya" {
		t.Fatalf("unexpected loaded summary: %+v", loaded)
	}
}

func TestMarshalFinancialSummaryIsDeterministic(t *testing.T) {
	summary := domain.DefaultFinancialSummary()
	a, err := MarshalFinancialSummary(summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := MarshalFinancialSummary(summary)
	if !bytes.Equal(a, b) {
		t.Fatalf("marshal output differs")
	}
	if !bytes.Contains(a, []byte(`"year_1"`)) || !bytes.Contains(a, []byte(`"ebitda"`)) {
		t.Fatalf("unexpected JSON: %s", a)
	}
}
