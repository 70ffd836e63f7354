// Package strutil holds small string helpers shared by the ai packages.
package strutil

// Truncate clips s to at most max runes and appends "..." when anything
// was dropped. Rune-based so accented place names and other multi-byte
// text never split mid-character. Returns "" when max <= 0.
func Truncate(s string, max int) string {
	if s == "" || max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
