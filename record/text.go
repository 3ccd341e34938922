package record

import (
	"strings"
	"unicode/utf8"
)

// putText - Writes s into dst right padded with spaces to len(dst).
// Text that does not fit is cut before the first rune that would not fit whole, the remainder is padded.
func putText(dst []byte, s string) {
	n := copy(dst, truncateText(s, len(dst)))
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
}

// getText - Returns the text stored in src with trailing spaces and zero bytes removed
func getText(src []byte) string {
	return strings.TrimRight(string(src), " \x00")
}

// normalizeText - Returns s the way it reads back after a round trip through a field of the given width
func normalizeText(s string, width int) string {
	return strings.TrimRight(truncateText(s, width), " \x00")
}

// truncateText - Returns the longest prefix of s of at most width bytes that does not split a rune
func truncateText(s string, width int) string {
	if len(s) <= width {
		return s
	}
	cut := width
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
