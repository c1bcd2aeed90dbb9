package htmlmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Elements that never carry document content.
var strippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"form":     true,
}

// contentElements are tried in order to find the node holding the page content.
var contentElements = []string{"article", "main", "body"}

// Extractor converts an HTML page into markdown, keeping headings, lists and tables.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open html document: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := doc
	for _, tag := range contentElements {
		if n := findElement(doc, tag); n != nil {
			root = n
			break
		}
	}
	stripElements(root)

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	markdown, err := htmltomarkdown.ConvertString(sb.String())
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", nil
	}
	return markdown + "\n", nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func stripElements(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && strippedElements[c.Data] || c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			stripElements(c)
		}
		c = next
	}
}
