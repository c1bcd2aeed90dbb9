package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

const (
	maxSlideBullets     = 8
	maxSummaryInsights  = 3
	AppendixSourceTitle = "Appendix — Sources"
)

var financialTitleKeywords = []string{"financial", "revenue", "ebitda"}

var (
	coverSubtitleBox = domain.Box{X: domain.Inches(1), Y: domain.Inches(1.5), W: domain.Inches(8), H: domain.Inches(0.5)}
	fallbackBodyBox  = domain.Box{X: domain.Inches(1), Y: domain.Inches(1.75), W: domain.Inches(8), H: domain.Inches(4.5)}
	chartBox         = domain.Box{X: domain.Inches(1), Y: domain.Inches(2), W: domain.Inches(8)}
)

// SelectLayout picks the layout role of the slide at index with the given title.
func SelectLayout(index int, title string) domain.LayoutRole {
	if index == 0 {
		return domain.LayoutTitle
	}
	lower := strings.ToLower(title)
	for _, keyword := range financialTitleKeywords {
		if strings.Contains(lower, keyword) {
			return domain.LayoutFinancial
		}
	}
	return domain.LayoutContent
}

type RenderInput struct {
	Slides         []domain.SlideRecord
	Financials     *domain.FinancialSummary
	Sources        []string
	Template       *domain.BrandTemplate
	Sector         string
	Territory      string
	InsightBullets []string
	// ChartPath is embedded on financial slides; empty when no chart exists on disk.
	ChartPath string
	Date      time.Time
}

// RenderSlides maps slide records onto template layouts and appends the sources appendix.
func RenderSlides(in RenderInput) *domain.Presentation {
	tpl := in.Template
	pres := domain.NewPresentation(tpl)

	for idx, record := range in.Slides {
		role := SelectLayout(idx, record.Title)
		slide := pres.AddSlide(tpl.LayoutFor(role), role)
		slide.SetTitle(record.Title)

		if idx == 0 && in.Territory != "" {
			setCoverSubtitle(slide, in.Territory)
		}

		switch strings.ToLower(strings.TrimSpace(record.Title)) {
		case "project overview":
			if sentence := overviewSentence(record.BodyLines, in.Sector, in.Territory); sentence != "" {
				bodyRegion(slide).SetText(sentence)
			}
			continue
		case "executive summary":
			bodyRegion(slide).SetBullets(executiveSummaryBullets(in))
			continue
		}

		bullets := slideBullets(record.BodyLines)
		// A financial slide without bullets of its own shows the canonical figures.
		if len(bullets) == 0 && role == domain.LayoutFinancial && in.Financials != nil {
			bullets = slideBullets(strings.Split(FormatFinancials(*in.Financials), "\n"))
		}
		if len(bullets) > 0 {
			bodyRegion(slide).SetBullets(bullets)
		}

		if role == domain.LayoutFinancial && in.ChartPath != "" {
			slide.AddPicture(in.ChartPath, chartBox)
		}
	}

	if len(in.Sources) > 0 {
		slide := pres.AddSlide(tpl.LayoutFor(domain.LayoutContent), domain.LayoutContent)
		slide.SetTitle(AppendixSourceTitle)
		bodyRegion(slide).SetBullets(uniqueSorted(in.Sources))
	}
	return pres
}

// setCoverSubtitle writes the territory into the cover's secondary region, or into a new text
// box when the layout has none.
func setCoverSubtitle(slide *domain.Slide, territory string) {
	if region, ok := slide.FirstTextRegion(); ok {
		region.SetText(territory)
		return
	}
	slide.AddTextBox(coverSubtitleBox).SetText(territory)
}

// bodyRegion is the capability query for body text with its text-box alternate path.
func bodyRegion(slide *domain.Slide) *domain.Region {
	if region, ok := slide.FirstTextRegion(); ok {
		return region
	}
	return slide.AddTextBox(fallbackBodyBox)
}

func overviewSentence(body []string, sector, territory string) string {
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return plainText(trimmed)
	}
	if sector != "" && territory != "" {
		return fmt.Sprintf("A %s project targeting %s, assessed from the uploaded project documents.", sector, territory)
	}
	return ""
}

func executiveSummaryBullets(in RenderInput) []string {
	var bullets []string
	if in.Sector != "" {
		bullets = append(bullets, "Sector: "+in.Sector)
	}
	if in.Territory != "" {
		bullets = append(bullets, "Territory: "+in.Territory)
	}
	bullets = append(bullets, "Date: "+in.Date.Format("2006-01-02"))
	for i, item := range in.InsightBullets {
		if i == maxSummaryInsights {
			break
		}
		bullets = append(bullets, plainText(item))
	}
	return bullets
}

func slideBullets(body []string) []string {
	var bullets []string
	for _, line := range body {
		item, ok := bulletText(line)
		if !ok {
			continue
		}
		bullets = append(bullets, plainText(item))
		if len(bullets) == maxSlideBullets {
			break
		}
	}
	return bullets
}

// plainText drops markdown emphasis markers.
func plainText(s string) string {
	return strings.NewReplacer("**", "", "__", "").Replace(s)
}

func uniqueSorted(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

type SlidesUseCase struct {
	workspace ports.ProjectWorkspace
	templates ports.TemplateLoader
	writer    ports.PresentationWriter
	clock     func() time.Time
}

func NewSlidesUseCase(workspace ports.ProjectWorkspace, templates ports.TemplateLoader, writer ports.PresentationWriter) *SlidesUseCase {
	return &SlidesUseCase{
		workspace: workspace,
		templates: templates,
		writer:    writer,
		clock:     time.Now,
	}
}

// RenderProject renders the project's deck markdown into the binary presentation artifact.
func (uc *SlidesUseCase) RenderProject(ctx context.Context, projectID, audience, sector, territory string) (string, error) {
	layout := uc.workspace.Layout(projectID)
	markdown, err := uc.workspace.ReadText(ctx, layout.DeckFile())
	if err != nil {
		return "", fmt.Errorf("read deck markdown: %w", err)
	}

	tpl, err := uc.templates.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load brand template: %w", err)
	}

	in := RenderInput{
		Slides:    CleanSlides(ParseOutline(markdown)),
		Template:  tpl,
		Sector:    sector,
		Territory: territory,
		Date:      uc.clock(),
	}
	if uc.workspace.Exists(layout.InsightsFile()) {
		if insights, err := uc.workspace.ReadText(ctx, layout.InsightsFile()); err == nil {
			in.InsightBullets = ParseInsightBullets(insights, maxSummaryInsights)
			in.Sources = ParseInsightSources(insights)
		}
	}
	if uc.workspace.Exists(layout.FinancialSummaryFile()) {
		if raw, err := uc.workspace.ReadText(ctx, layout.FinancialSummaryFile()); err == nil {
			if summary, err := UnmarshalFinancialSummary([]byte(raw)); err == nil {
				in.Financials = &summary
			}
		}
	}
	if uc.workspace.Exists(layout.RevenueChartFile()) {
		in.ChartPath = layout.RevenueChartFile()
	}

	out, err := layout.ArtifactFile(audience, "pptx")
	if err != nil {
		return "", err
	}
	if err := uc.writer.Write(ctx, RenderSlides(in), out); err != nil {
		return "", domain.WrapError(domain.ErrRenderFailed, "write presentation", err)
	}
	return out, nil
}
