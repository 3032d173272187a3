package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace
// runs into single spaces. Control characters count as whitespace, so
// embedded newlines and tabs are flattened too.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeGemName cleans a display name such as "Ceylon  Blue
// Sapphire" without changing its case.
func NormalizeGemName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeDescription flattens seller-supplied free text. Multi-line
// descriptions keep their words but lose the formatting.
func NormalizeDescription(description string) string {
	return TrimAndNormalize(description)
}

// NormalizeBidMessage cleans the optional note attached to a bid.
func NormalizeBidMessage(message string) string {
	return TrimAndNormalize(message)
}
