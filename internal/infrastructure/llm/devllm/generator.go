package devllm

import (
	"context"
	"hash/fnv"
	"strings"
)

type route struct {
	keywords []string
	template string
}

var routes = []route{
	{
		keywords: []string{"financial", "revenue", "ebitda", "profit"},
		template: `**Financial Analysis**

Based on the provided financial documents:
- Revenue projected to grow at 12-18% CAGR over next 3 years
- EBITDA margins expected to stabilize around 22-25%
- Cash flow positive by Q4 Year 1
- Key financial metrics show sustainable growth trajectory

**Recommendation**: Financial projections appear realistic and achievable.`,
	},
	{
		keywords: []string{"market", "competitive", "industry"},
		template: `**Market Analysis**

Market assessment indicates:
- Total Addressable Market: $1.8B - $2.5B range
- Serviceable Addressable Market: $450M - $600M
- Annual market growth rate: 10-14%
- 3 major competitors control ~55% market share
- Clear differentiation opportunity identified

**Recommendation**: Strong market positioning potential.`,
	},
	{
		keywords: []string{"risk", "challenge", "threat"},
		template: `**Risk Assessment**

Identified risk factors:
1. **Market Risk**: Moderate (evolving competitive landscape)
2. **Execution Risk**: Low-Medium (experienced team in place)
3. **Financial Risk**: Low (strong projected cash flows)
4. **Regulatory Risk**: Medium (monitor policy changes)

**Recommendation**: Risks appear manageable with proper mitigation.`,
	},
	{
		keywords: []string{"structure", "legal", "governance"},
		template: `**Structural Analysis**

Corporate structure assessment:
- Legal entity structure appropriate for target markets
- Governance framework aligns with best practices
- Equity structure supports growth objectives
- Compliance systems appear adequate

**Recommendation**: Structure supports business objectives.`,
	},
}

const generalTemplate = `**Comprehensive Analysis**

Based on document review and senior investment analyst assessment:
- Strong fundamentals identified across key metrics
- Growth trajectory appears sustainable
- Competitive advantages clearly articulated
- Risk profile within acceptable parameters

**Recommendation**: Proceed with recommended due diligence steps.`

var closingNotes = []string{
	"Analysis indicates favorable conditions.",
	"Assessment shows promising opportunity.",
	"Review suggests viable investment case.",
	"Evaluation reveals strong potential.",
}

// Generator is an offline text generator for development and tests. It routes the prompt to a
// canned analysis by keyword and always answers the same prompt the same way.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Respond(prompt), nil
}

func Respond(prompt string) string {
	lower := strings.ToLower(prompt)
	template := generalTemplate
	for _, r := range routes {
		if containsAny(lower, r.keywords) {
			template = r.template
			break
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	note := closingNotes[h.Sum32()%uint32(len(closingNotes))]
	return template + "\n\n*Note: " + note + "*"
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
