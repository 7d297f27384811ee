// Package text provides rune-aware text helpers shared by the prompt
// builder, reply parser, and notification renderers. Headlines and AI
// replies are frequently CJK, so every length operation here counts runes,
// never bytes.
package text

// CountRunes counts the number of Unicode characters (runes) in the given
// text. Multi-byte characters (Chinese, Japanese, emoji) count as one.
func CountRunes(text string) int {
	return len([]rune(text))
}

// TruncateRunes truncates text to at most maxRunes characters, appending
// suffix when truncation happened. The suffix does not count against the
// budget, matching how display titles reserve their ellipsis marker.
func TruncateRunes(text string, maxRunes int, suffix string) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + suffix
}
