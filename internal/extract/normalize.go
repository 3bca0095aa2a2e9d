package extract

import "strings"

// NormalizeMerchant cleans a raw merchant fragment captured from SMS text:
// runs of whitespace collapse to a single space, literal '*' characters
// (card-statement masking artifacts) are removed, and the result is trimmed.
// The function is idempotent.
func NormalizeMerchant(raw string) string {
	s := strings.ReplaceAll(raw, "*", "")
	return strings.Join(strings.Fields(s), " ")
}
