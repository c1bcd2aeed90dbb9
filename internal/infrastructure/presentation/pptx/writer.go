package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// Writer serializes a domain.Presentation as an Office Open XML (.pptx) package: one slide
// master, one slide layout per template layout, one slide part per slide and the embedded media.
type Writer struct {
	clock func() time.Time
	root  string
}

type Option func(*Writer)

// WithRoot confines every output path to root.
func WithRoot(root string) Option {
	return func(w *Writer) { w.root = root }
}

func NewWriter(opts ...Option) *Writer {
	w := &Writer{clock: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type mediaPart struct {
	name        string
	data        []byte
	width       int
	height      int
	contentType string
}

// pkg collects the parts of one package before they are zipped.
type pkg struct {
	pres    *domain.Presentation
	layouts []string
	media   map[string]*mediaPart
	order   []*mediaPart
}

func (w *Writer) Write(ctx context.Context, pres *domain.Presentation, outPath string) error {
	if pres == nil {
		return fmt.Errorf("pptx: presentation is nil")
	}
	if err := w.checkOutPath(outPath); err != nil {
		return err
	}
	p := &pkg{pres: pres, media: map[string]*mediaPart{}}
	p.layouts = layoutNames(pres)
	for _, slide := range pres.Slides {
		for _, pic := range slide.Pictures {
			if err := p.addMedia(pic.Path); err != nil {
				return err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range p.parts(w.clock().UTC()) {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("pptx: create %s: %w", part.name, err)
		}
		if _, err := f.Write(part.data); err != nil {
			return fmt.Errorf("pptx: write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("pptx: close package: %w", err)
	}
	return writeAtomic(outPath, buf.Bytes())
}

type part struct {
	name string
	data []byte
}

func (p *pkg) parts(now time.Time) []part {
	out := []part{
		{"[Content_Types].xml", []byte(p.contentTypes())},
		{"_rels/.rels", []byte(rootRels)},
		{"docProps/core.xml", []byte(coreProps(p.pres.TemplateName, now))},
		{"docProps/app.xml", []byte(appProps(len(p.pres.Slides)))},
		{"ppt/presentation.xml", []byte(p.presentationXML())},
		{"ppt/_rels/presentation.xml.rels", []byte(p.presentationRels())},
		{"ppt/presProps.xml", []byte(presProps)},
		{"ppt/viewProps.xml", []byte(viewProps)},
		{"ppt/tableStyles.xml", []byte(tableStyles)},
		{"ppt/theme/theme1.xml", []byte(themeXML)},
		{"ppt/slideMasters/slideMaster1.xml", []byte(masterXML(len(p.layouts)))},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", []byte(masterRels(len(p.layouts)))},
	}
	for i, name := range p.layouts {
		out = append(out,
			part{fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1), []byte(layoutXML(name, p.layoutRegions(name)))},
			part{fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", i+1), []byte(layoutRels)},
		)
	}
	for i, slide := range p.pres.Slides {
		xml, rels := p.slideXML(slide)
		out = append(out,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), []byte(xml)},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), []byte(rels)},
		)
	}
	for _, m := range p.order {
		out = append(out, part{"ppt/media/" + m.name, m.data})
	}
	return out
}

// layoutNames lists the distinct layouts used by the slides, in first-use order. A
// presentation without slides still gets one layout so the master is valid.
func layoutNames(pres *domain.Presentation) []string {
	var names []string
	seen := map[string]bool{}
	for _, slide := range pres.Slides {
		name := slide.LayoutName
		if name == "" {
			name = "Blank"
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		names = []string{"Blank"}
	}
	return names
}

func (p *pkg) layoutIndex(name string) int {
	if name == "" {
		name = "Blank"
	}
	for i, candidate := range p.layouts {
		if candidate == name {
			return i + 1
		}
	}
	return 1
}

// layoutRegions takes the placeholder regions of the first slide using the layout.
func (p *pkg) layoutRegions(name string) []*domain.Region {
	for _, slide := range p.pres.Slides {
		if slide.LayoutName == name {
			var regions []*domain.Region
			for _, region := range slide.Regions {
				if region.Kind != domain.RegionTextBox {
					regions = append(regions, region)
				}
			}
			return regions
		}
	}
	return nil
}

func (p *pkg) addMedia(path string) error {
	if _, ok := p.media[path]; ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pptx: read image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("pptx: decode image %s: %w", filepath.Base(path), err)
	}
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	m := &mediaPart{
		name:        fmt.Sprintf("image%d.%s", len(p.order)+1, ext),
		data:        data,
		width:       cfg.Width,
		height:      cfg.Height,
		contentType: "image/" + format,
	}
	p.media[path] = m
	p.order = append(p.order, m)
	return nil
}

func (p *pkg) contentTypes() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	exts := map[string]string{}
	for _, m := range p.order {
		exts[strings.TrimPrefix(filepath.Ext(m.name), ".")] = m.contentType
	}
	for _, ext := range []string{"png", "jpg"} {
		if ct, ok := exts[ext]; ok {
			fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, ext, ct)
		}
	}
	override := func(name, ct string) {
		fmt.Fprintf(&b, `<Override PartName="/%s" ContentType="%s"/>`, name, ct)
	}
	override("ppt/presentation.xml", "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml")
	override("ppt/slideMasters/slideMaster1.xml", "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml")
	for i := range p.layouts {
		override(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1), "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml")
	}
	for i := range p.pres.Slides {
		override(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), "application/vnd.openxmlformats-officedocument.presentationml.slide+xml")
	}
	override("ppt/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
	override("ppt/presProps.xml", "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml")
	override("ppt/viewProps.xml", "application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml")
	override("ppt/tableStyles.xml", "application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml")
	override("docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	b.WriteString(`</Types>`)
	return b.String()
}

func (p *pkg) presentationXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" saveSubsetFonts="1">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if len(p.pres.Slides) > 0 {
		b.WriteString(`<p:sldIdLst>`)
		for i := range p.pres.Slides {
			fmt.Fprintf(&b, `<p:sldId id="%d" r:id="%s"/>`, 256+i, slideRelID(i))
		}
		b.WriteString(`</p:sldIdLst>`)
	}
	width, height := p.pres.Width, p.pres.Height
	if width <= 0 || height <= 0 {
		width, height = domain.Inches(10), domain.Inches(7.5)
	}
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, width, height)
	b.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func slideRelID(i int) string { return fmt.Sprintf("rId%d", 10+i) }

func (p *pkg) presentationRels() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="` + nsRels + `">`)
	rel(&b, "rId1", relSlideMaster, "slideMasters/slideMaster1.xml")
	rel(&b, "rId2", relTheme, "theme/theme1.xml")
	rel(&b, "rId3", relPresProps, "presProps.xml")
	rel(&b, "rId4", relViewProps, "viewProps.xml")
	rel(&b, "rId5", relTableStyles, "tableStyles.xml")
	for i := range p.pres.Slides {
		rel(&b, slideRelID(i), relSlide, fmt.Sprintf("slides/slide%d.xml", i+1))
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func rel(b *strings.Builder, id, relType, target string) {
	fmt.Fprintf(b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, id, relType, target)
}

func (w *Writer) checkOutPath(outPath string) error {
	if w.root == "" {
		return nil
	}
	root, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("pptx: resolve root: %w", err)
	}
	target, err := filepath.Abs(outPath)
	if err != nil {
		return fmt.Errorf("pptx: resolve output: %w", err)
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.WrapError(domain.ErrInvalidInput, "pptx output", fmt.Errorf("%s is outside %s", outPath, w.root))
	}
	return nil
}

func writeAtomic(outPath string, data []byte) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pptx: create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".deck.*.pptx")
	if err != nil {
		return fmt.Errorf("pptx: create output: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("pptx: write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pptx: close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("pptx: replace output: %w", err)
	}
	return nil
}
