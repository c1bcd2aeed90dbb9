package domain

const (
	DefaultRevenueYear1 int64 = 1_250_000
	DefaultRevenueYear2 int64 = 1_680_000
	DefaultRevenueYear3 int64 = 2_250_000

	DefaultEBITDAYear1 int64 = 250_000
	DefaultEBITDAYear2 int64 = 420_000
	DefaultEBITDAYear3 int64 = 630_000
)

type YearlyFigures struct {
	Year1 int64 `json:"year_1"`
	Year2 int64 `json:"year_2"`
	Year3 int64 `json:"year_3"`
}

// Values returns the figures in year order.
func (y YearlyFigures) Values() [3]int64 {
	return [3]int64{y.Year1, y.Year2, y.Year3}
}

type ProjectInfo struct {
	Sector    string `json:"sector"`
	Territory string `json:"territory"`
	ProjectID string `json:"project_id"`
}

// FinancialSummary is the canonical 3-year revenue/EBITDA dataset.
type FinancialSummary struct {
	Revenue     YearlyFigures `json:"revenue"`
	EBITDA      YearlyFigures `json:"ebitda"`
	ProjectInfo *ProjectInfo  `json:"project_info,omitempty"`
}

func DefaultRevenue() YearlyFigures {
	return YearlyFigures{Year1: DefaultRevenueYear1, Year2: DefaultRevenueYear2, Year3: DefaultRevenueYear3}
}

func DefaultEBITDA() YearlyFigures {
	return YearlyFigures{Year1: DefaultEBITDAYear1, Year2: DefaultEBITDAYear2, Year3: DefaultEBITDAYear3}
}

func DefaultFinancialSummary() FinancialSummary {
	return FinancialSummary{
		Revenue: DefaultRevenue(),
		EBITDA:  DefaultEBITDA(),
	}
}

// FinancialSource tells where a summary's figures came from.
type FinancialSource string

const (
	FinancialFromSpreadsheet FinancialSource = "spreadsheet"
	FinancialFromDefaults    FinancialSource = "defaults"
)
