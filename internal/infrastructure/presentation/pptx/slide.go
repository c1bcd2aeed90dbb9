package pptx

import (
	"fmt"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// slideXML renders one slide part and its relationships. Placeholder regions keep their
// layout index, text boxes and pictures follow in insertion order.
func (p *pkg) slideXML(slide *domain.Slide) (string, string) {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">`)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(groupProps)

	id := 2
	placeholder := 0
	for _, region := range slide.Regions {
		if region.Kind == domain.RegionTextBox {
			b.WriteString(placeholderShape(id, fmt.Sprintf("TextBox %d", id), "", region.Box, region.Paragraphs, true))
		} else {
			b.WriteString(placeholderShape(id, region.Name, placeholderTag(region.Kind, placeholder), region.Box, region.Paragraphs, true))
			placeholder++
		}
		id++
	}

	var rels strings.Builder
	rels.WriteString(xmlHeader)
	rels.WriteString(`<Relationships xmlns="` + nsRels + `">`)
	rel(&rels, "rId1", relSlideLayout, fmt.Sprintf("../slideLayouts/slideLayout%d.xml", p.layoutIndex(slide.LayoutName)))
	for i, pic := range slide.Pictures {
		media := p.media[pic.Path]
		relID := fmt.Sprintf("rId%d", i+2)
		rel(&rels, relID, relImage, "../media/"+media.name)
		b.WriteString(pictureShape(id, relID, fitBox(pic.Box, media)))
		id++
	}
	rels.WriteString(`</Relationships>`)

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String(), rels.String()
}

// fitBox fills a missing width or height from the image aspect ratio.
func fitBox(box domain.Box, media *mediaPart) domain.Box {
	if media.width <= 0 || media.height <= 0 {
		return box
	}
	switch {
	case box.W > 0 && box.H <= 0:
		box.H = box.W * int64(media.height) / int64(media.width)
	case box.H > 0 && box.W <= 0:
		box.W = box.H * int64(media.width) / int64(media.height)
	case box.W <= 0 && box.H <= 0:
		// 96 dpi native size
		box.W = int64(media.width) * domain.EMUPerInch / 96
		box.H = int64(media.height) * domain.EMUPerInch / 96
	}
	return box
}

func pictureShape(id int, relID string, box domain.Box) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, id, id) +
		`<p:blipFill><a:blip r:embed="` + relID + `"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		`<p:spPr>` + xfrm(box) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`
}
