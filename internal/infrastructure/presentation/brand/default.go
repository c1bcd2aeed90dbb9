package brand

import "github.com/kirillkom/deck-pipeline/internal/core/domain"

func box(x, y, w, h float64) domain.Box {
	return domain.Box{X: domain.Inches(x), Y: domain.Inches(y), W: domain.Inches(w), H: domain.Inches(h)}
}

// Default is the built-in 10x7.5in template. The financial layout carries only a title, so
// figures land in a text box above the chart.
func Default() *domain.BrandTemplate {
	titleAndBody := func(name string) domain.LayoutSpec {
		return domain.LayoutSpec{Name: name, Regions: []domain.RegionSpec{
			{Kind: domain.RegionTitle, Name: "Title", Box: box(0.5, 0.3, 9, 1.1)},
			{Kind: domain.RegionBody, Name: "Content", Box: box(0.5, 1.6, 9, 5.2)},
		}}
	}
	return &domain.BrandTemplate{
		Name:        "default",
		SlideWidth:  domain.Inches(10),
		SlideHeight: domain.Inches(7.5),
		Layouts: []domain.LayoutSpec{
			{Name: "Title Slide", Regions: []domain.RegionSpec{
				{Kind: domain.RegionTitle, Name: "Title", Box: box(0.75, 2.3, 8.5, 1.5)},
				{Kind: domain.RegionSubtitle, Name: "Subtitle", Box: box(1.5, 4, 7, 1.2)},
			}},
			titleAndBody("Title and Content"),
			{Name: "Section Header", Regions: []domain.RegionSpec{
				{Kind: domain.RegionTitle, Name: "Title", Box: box(0.75, 2.8, 8.5, 1.5)},
			}},
			titleAndBody("Content"),
			{Name: "Financial", Regions: []domain.RegionSpec{
				{Kind: domain.RegionTitle, Name: "Title", Box: box(0.5, 0.3, 9, 1.1)},
			}},
		},
	}
}
