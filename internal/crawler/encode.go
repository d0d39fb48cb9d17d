package crawler

import (
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EncodeURL percent-encodes a listing URL built from configuration. ASCII
// letters, digits, "-._~" and the delimiters ":/?&=" pass through, as do
// existing %XX escapes; every other byte is encoded.
func EncodeURL(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case shouldKeep(c):
			b.WriteByte(c)
		case c == '%' && i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2]):
			b.WriteString(raw[i : i+3])
			i += 2
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', ':', '/', '?', '&', '=':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
