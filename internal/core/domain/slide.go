package domain

// SlideRecord is a title with its body lines, prior to visual rendering.
type SlideRecord struct {
	Title     string   `json:"title"`
	BodyLines []string `json:"body_lines"`
}
