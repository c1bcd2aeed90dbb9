package domain

// EMUPerInch is the Office Open XML length unit ratio.
const EMUPerInch int64 = 914400

func Inches(v float64) int64 { return int64(v * float64(EMUPerInch)) }

type LayoutRole string

const (
	LayoutTitle     LayoutRole = "title"
	LayoutContent   LayoutRole = "content"
	LayoutFinancial LayoutRole = "financial"
)

type RegionKind string

const (
	RegionTitle    RegionKind = "title"
	RegionSubtitle RegionKind = "subtitle"
	RegionBody     RegionKind = "body"
	RegionTextBox  RegionKind = "textbox"
)

// Box is a position and size in EMU. A zero height on a picture means "keep aspect ratio".
type Box struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	W int64 `json:"w"`
	H int64 `json:"h"`
}

type Paragraph struct {
	Text   string `json:"text"`
	Bullet bool   `json:"bullet,omitempty"`
}

// Region is a text-bearing area of a slide: a layout placeholder or a free-floating text box.
type Region struct {
	Kind       RegionKind  `json:"kind"`
	Name       string      `json:"name"`
	Box        Box         `json:"box"`
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
}

func (r *Region) HasTextFrame() bool { return r != nil && r.Kind != "" }

func (r *Region) IsTitle() bool { return r != nil && r.Kind == RegionTitle }

func (r *Region) SetText(text string) {
	r.Paragraphs = []Paragraph{{Text: text}}
}

func (r *Region) SetBullets(items []string) {
	r.Paragraphs = make([]Paragraph, 0, len(items))
	for _, item := range items {
		r.Paragraphs = append(r.Paragraphs, Paragraph{Text: item, Bullet: true})
	}
}

func (r *Region) Empty() bool {
	for _, p := range r.Paragraphs {
		if p.Text != "" {
			return false
		}
	}
	return true
}

type Picture struct {
	Path string `json:"path"`
	Box  Box    `json:"box"`
}

type Slide struct {
	Role       LayoutRole `json:"role"`
	LayoutName string     `json:"layout_name"`
	Regions    []*Region  `json:"regions"`
	Pictures   []Picture  `json:"pictures,omitempty"`
}

func (s *Slide) TitleRegion() *Region {
	for _, region := range s.Regions {
		if region.IsTitle() {
			return region
		}
	}
	return nil
}

func (s *Slide) SetTitle(title string) bool {
	region := s.TitleRegion()
	if region == nil {
		return false
	}
	region.SetText(title)
	return true
}

// FirstTextRegion returns the first region, in layout order, that has a text frame and is not the title.
func (s *Slide) FirstTextRegion() (*Region, bool) {
	for _, region := range s.Regions {
		if region.HasTextFrame() && !region.IsTitle() {
			return region, true
		}
	}
	return nil, false
}

// AddTextBox appends a free-floating text region.
func (s *Slide) AddTextBox(box Box) *Region {
	region := &Region{Kind: RegionTextBox, Name: "TextBox", Box: box}
	s.Regions = append(s.Regions, region)
	return region
}

func (s *Slide) AddPicture(path string, box Box) {
	s.Pictures = append(s.Pictures, Picture{Path: path, Box: box})
}

// Text returns all paragraph text of the slide; the title comes first.
func (s *Slide) Text() []string {
	var out []string
	for _, region := range s.Regions {
		for _, p := range region.Paragraphs {
			out = append(out, p.Text)
		}
	}
	return out
}

type RegionSpec struct {
	Kind RegionKind
	Name string
	Box  Box
}

type LayoutSpec struct {
	Name    string
	Regions []RegionSpec
}

// BrandTemplate is an ordered list of slide layouts plus the slide size.
type BrandTemplate struct {
	Name        string
	SlideWidth  int64
	SlideHeight int64
	Layouts     []LayoutSpec
}

// LayoutFor resolves a role to a layout: title is layout 0, content is layout 3 when present
// (else 0), financial is layout 4 when present (else content).
func (t *BrandTemplate) LayoutFor(role LayoutRole) LayoutSpec {
	if len(t.Layouts) == 0 {
		return LayoutSpec{}
	}
	content := t.Layouts[0]
	if len(t.Layouts) > 3 {
		content = t.Layouts[3]
	}
	switch role {
	case LayoutTitle:
		return t.Layouts[0]
	case LayoutFinancial:
		if len(t.Layouts) > 4 {
			return t.Layouts[4]
		}
		return content
	default:
		return content
	}
}

// Presentation is the rendered slide deck prior to serialization.
type Presentation struct {
	TemplateName string   `json:"template_name"`
	Width        int64    `json:"width"`
	Height       int64    `json:"height"`
	Slides       []*Slide `json:"slides"`
}

func NewPresentation(tpl *BrandTemplate) *Presentation {
	return &Presentation{
		TemplateName: tpl.Name,
		Width:        tpl.SlideWidth,
		Height:       tpl.SlideHeight,
	}
}

// AddSlide instantiates a slide with one empty region per layout region.
func (p *Presentation) AddSlide(layout LayoutSpec, role LayoutRole) *Slide {
	slide := &Slide{Role: role, LayoutName: layout.Name}
	for _, spec := range layout.Regions {
		slide.Regions = append(slide.Regions, &Region{Kind: spec.Kind, Name: spec.Name, Box: spec.Box})
	}
	p.Slides = append(p.Slides, slide)
	return slide
}
