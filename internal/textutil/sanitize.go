package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
)

const maxTokenLength = 64

// SanitizeToken converts a provider name or identifier into a lowercase
// filesystem-safe token. Accents are folded, ASCII letters, digits, '-' and
// '_' are kept, and every other run of characters becomes one underscore.
// Empty results yield "unknown".
func SanitizeToken(value string) string {
	folded, _, err := transform.String(accentFolder(), strings.TrimSpace(value))
	if err != nil {
		folded = value
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	out := b.String()
	if len(out) > maxTokenLength {
		out = out[:maxTokenLength]
	}
	out = strings.Trim(out, "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
