package usecase

import (
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

var noiseSlideTitles = map[string]struct{}{
	"insight":                         {},
	"key insights":                    {},
	"document insights":               {},
	"insights from uploaded documents": {},
}

var filenameSuffixes = []string{".md", ".pdf", ".docx"}

// ParseOutline turns deck markdown into slide records. A level-1 heading opens the first slide
// only while no slide is open; every level-2 heading closes the current slide and opens a new
// one; every other line, later level-1 headings included, goes to the open slide's body.
// Lines before the first heading are discarded.
func ParseOutline(markdown string) []domain.SlideRecord {
	var (
		slides  []domain.SlideRecord
		current *domain.SlideRecord
		body    []string
	)

	flush := func() {
		if current != nil {
			current.BodyLines = body
			slides = append(slides, *current)
		}
	}

	for _, line := range strings.Split(normalizeNewlines(markdown), "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			current = &domain.SlideRecord{Title: strings.TrimSpace(line[3:])}
			body = nil
		case strings.HasPrefix(line, "# ") && current == nil:
			current = &domain.SlideRecord{Title: strings.TrimSpace(line[2:])}
			body = nil
		default:
			body = append(body, line)
		}
	}
	flush()
	return slides
}

// CleanSlides drops noise slides and empty-bodied slides, except an empty first slide which
// survives as a title-only cover.
func CleanSlides(slides []domain.SlideRecord) []domain.SlideRecord {
	out := make([]domain.SlideRecord, 0, len(slides))
	for _, slide := range slides {
		if strings.TrimSpace(slide.Title) == "" || isNoiseTitle(slide.Title) {
			continue
		}
		if strings.TrimSpace(strings.Join(slide.BodyLines, "\n")) == "" && len(out) > 0 {
			continue
		}
		out = append(out, slide)
	}
	return out
}

func isNoiseTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if _, ok := noiseSlideTitles[t]; ok {
		return true
	}
	if strings.HasPrefix(t, "from ") {
		return true
	}
	for _, suffix := range filenameSuffixes {
		if strings.HasSuffix(t, suffix) {
			return true
		}
	}
	return false
}
