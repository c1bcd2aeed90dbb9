package domain

import "strings"

type InsightType string

const (
	InsightMarket     InsightType = "Market"
	InsightRegulation InsightType = "Regulation"
	InsightOperations InsightType = "Operations"
	InsightFinancial  InsightType = "Financial"
	InsightRisk       InsightType = "Risk"
)

// InsightTypes is the classification order; the first type with a keyword hit wins.
var InsightTypes = []InsightType{
	InsightMarket,
	InsightRegulation,
	InsightOperations,
	InsightFinancial,
	InsightRisk,
}

// InsightBlock is a source-traceable excerpt classified into one category.
type InsightBlock struct {
	Type            InsightType `json:"type"`
	SourceDocument  string      `json:"source_document"`
	Excerpt         string      `json:"excerpt"`
	ImplicationText string      `json:"implication"`
}

func Implication(t InsightType) string {
	return "Indicates " + strings.ToLower(string(t)) + " relevance based on source document."
}
