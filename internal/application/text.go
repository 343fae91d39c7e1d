package application

import "strings"

// CleanText drops invalid UTF-8 and the characters XML 1.0 cannot carry
// (control characters other than tab, newline and carriage return). The
// workbook writer would otherwise replace them with U+FFFD.
func CleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	if strings.IndexFunc(s, notXMLChar) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if notXMLChar(r) {
			return -1
		}
		return r
	}, s)
}

func notXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r >= 0x20 && r <= 0xD7FF:
		return false
	case r >= 0xE000 && r <= 0xFFFD:
		return false
	case r >= 0x10000 && r <= 0x10FFFF:
		return false
	}
	return true
}
