package diagnostics

import (
	"fmt"
	"strings"
)

// XMLEscape returns text safe for insertion into XML element content and
// attribute values: '&', '<', '>' and '"' become entities, and control
// characters other than tab, newline and carriage return become character
// references.
func XMLEscape(text string) string {
	if !strings.ContainsFunc(text, needsXMLEscape) {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text) + 16)
	for _, r := range text {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		default:
			if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
				fmt.Fprintf(&sb, "&#x%X;", r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

func needsXMLEscape(r rune) bool {
	switch r {
	case '&', '<', '>', '"':
		return true
	}
	return r < 0x20 && r != '\t' && r != '\n' && r != '\r'
}
