package pptx

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	nsA    = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP    = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRels = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOffice      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCore        = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relApp         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relImage       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relPresProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps"
	relViewProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/viewProps"
	relTableStyles = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles"
)

var rootRels = xmlHeader + `<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relOffice + `" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="` + relCore + `" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="` + relApp + `" Target="docProps/app.xml"/>` +
	`</Relationships>`

var presProps = xmlHeader + `<p:presentationPr xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"/>`

var viewProps = xmlHeader + `<p:viewPr xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
	`<p:normalViewPr><p:restoredLeft sz="15620"/><p:restoredTop sz="94660"/></p:normalViewPr>` +
	`<p:gridSpacing cx="76200" cy="76200"/></p:viewPr>`

var tableStyles = xmlHeader + `<a:tblStyleLst xmlns:a="` + nsA + `" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`

var layoutRels = xmlHeader + `<Relationships xmlns="` + nsRels + `">` +
	`<Relationship Id="rId1" Type="` + relSlideMaster + `" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

func coreProps(title string, now time.Time) string {
	stamp := now.Format(time.RFC3339)
	return xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + esc(title) + `</dc:title>` +
		`<dc:creator>deck-pipeline</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func appProps(slides int) string {
	return xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
		`<Application>deck-pipeline</Application>` +
		fmt.Sprintf(`<Slides>%d</Slides>`, slides) +
		`</Properties>`
}

func masterXML(layouts int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">`)
	b.WriteString(`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>`)
	b.WriteString(groupProps)
	b.WriteString(placeholderShape(2, "Title Placeholder", `<p:ph type="title"/>`,
		domain.Box{X: domain.Inches(0.5), Y: domain.Inches(0.3), W: domain.Inches(9), H: domain.Inches(1.25)}, nil, true))
	b.WriteString(placeholderShape(3, "Text Placeholder", `<p:ph type="body" idx="1"/>`,
		domain.Box{X: domain.Inches(0.5), Y: domain.Inches(1.75), W: domain.Inches(9), H: domain.Inches(4.95)}, nil, true))
	b.WriteString(`</p:spTree></p:cSld>`)
	b.WriteString(`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" ` +
		`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`)
	b.WriteString(`<p:sldLayoutIdLst>`)
	for i := 0; i < layouts; i++ {
		fmt.Fprintf(&b, `<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+i, i+1)
	}
	b.WriteString(`</p:sldLayoutIdLst>`)
	b.WriteString(`<p:txStyles>`)
	b.WriteString(`<p:titleStyle><a:lvl1pPr algn="l"><a:defRPr sz="3200" b="1"><a:solidFill><a:schemeClr val="tx2"/></a:solidFill>` +
		`<a:latin typeface="+mj-lt"/></a:defRPr></a:lvl1pPr></p:titleStyle>`)
	b.WriteString(`<p:bodyStyle><a:lvl1pPr marL="285750" indent="-285750"><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/>` +
		`<a:defRPr sz="1800"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:bodyStyle>`)
	b.WriteString(`<p:otherStyle><a:lvl1pPr><a:defRPr sz="1800"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill></a:defRPr></a:lvl1pPr></p:otherStyle>`)
	b.WriteString(`</p:txStyles></p:sldMaster>`)
	return b.String()
}

func masterRels(layouts int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="` + nsRels + `">`)
	for i := 0; i < layouts; i++ {
		rel(&b, fmt.Sprintf("rId%d", i+1), relSlideLayout, fmt.Sprintf("../slideLayouts/slideLayout%d.xml", i+1))
	}
	rel(&b, fmt.Sprintf("rId%d", layouts+1), relTheme, "../theme/theme1.xml")
	b.WriteString(`</Relationships>`)
	return b.String()
}

func layoutXML(name string, regions []*domain.Region) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" preserve="1">`)
	fmt.Fprintf(&b, `<p:cSld name="%s"><p:spTree>`, esc(name))
	b.WriteString(groupProps)
	for i, region := range regions {
		b.WriteString(placeholderShape(i+2, region.Name, placeholderTag(region.Kind, i), region.Box, nil, true))
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`)
	return b.String()
}

const groupProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

// placeholderTag maps a region kind to its <p:ph> element. Non-title placeholders are keyed by
// their position in the layout so slide shapes inherit from the matching layout shape.
func placeholderTag(kind domain.RegionKind, index int) string {
	switch kind {
	case domain.RegionTitle:
		return `<p:ph type="title"/>`
	case domain.RegionSubtitle:
		return fmt.Sprintf(`<p:ph type="subTitle" idx="%d"/>`, index+1)
	default:
		return fmt.Sprintf(`<p:ph idx="%d"/>`, index+1)
	}
}

func placeholderShape(id int, name, ph string, box domain.Box, paragraphs []domain.Paragraph, body bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/>`, id, esc(name))
	if ph == "" {
		b.WriteString(`<p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`)
	} else {
		b.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr>` + ph + `</p:nvPr></p:nvSpPr>`)
	}
	b.WriteString(`<p:spPr>` + xfrm(box))
	if ph == "" {
		b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/>`)
	}
	b.WriteString(`</p:spPr>`)
	if body {
		b.WriteString(textBody(paragraphs, ph == ""))
	}
	b.WriteString(`</p:sp>`)
	return b.String()
}

func xfrm(box domain.Box) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, box.X, box.Y, box.W, box.H)
}

// textBody renders paragraphs; a text frame must hold at least one paragraph.
func textBody(paragraphs []domain.Paragraph, textBox bool) string {
	var b strings.Builder
	if textBox {
		b.WriteString(`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>`)
	} else {
		b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	}
	if len(paragraphs) == 0 {
		b.WriteString(`<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
	}
	for _, p := range paragraphs {
		b.WriteString(`<a:p>`)
		switch {
		case p.Bullet:
			b.WriteString(`<a:pPr marL="285750" indent="-285750"><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/></a:pPr>`)
		case !textBox:
			b.WriteString(`<a:pPr marL="0" indent="0"><a:buNone/></a:pPr>`)
		}
		if p.Text != "" {
			fmt.Fprintf(&b, `<a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r>`, esc(p.Text))
		}
		b.WriteString(`<a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
	}
	b.WriteString(`</p:txBody>`)
	return b.String()
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
