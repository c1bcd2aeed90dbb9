package usecase

import (
	"strings"
	"unicode/utf8"
)

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// truncateWithEllipsis marks truncated text with a trailing "...".
func truncateWithEllipsis(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return truncateRunes(s, limit) + "..."
}

// bulletText reports whether a line is a "- " or "• " bullet and returns its text.
func bulletText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- ") && !strings.HasPrefix(trimmed, "• ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, "-• ")), true
}
