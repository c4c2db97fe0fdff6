package transcribe

import "strings"

// NormalizeWhitespace trims the text and collapses runs of whitespace to
// single spaces. Idempotent.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
