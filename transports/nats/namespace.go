package nats

import (
	"strings"
	"unicode"
)

// Prefix is the first token of every NATS subject used by the transport.
const Prefix = "kbin"

// namespace joins the non-empty values under Prefix as a dotted NATS
// subject.
func namespace(values ...string) string {
	parts := []string{Prefix}
	for _, v := range values {
		if v == "" {
			continue
		}
		parts = append(parts, formatForNamespace(v))
	}
	return strings.Join(parts, ".")
}

// formatForNamespace turns camelCase boundaries and underscores into
// dashes and drops characters that are not valid in a subject token.
func formatForNamespace(value string) string {
	var sb strings.Builder
	sb.Grow(len(value) + 4)

	var prev rune
	for _, r := range value {
		switch {
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r), unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == '_':
			sb.WriteByte('-')
		case r == '-', r == '.', r == '*':
			sb.WriteRune(r)
		}
		prev = r
	}
	return sb.String()
}
