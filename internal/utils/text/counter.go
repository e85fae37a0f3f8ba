// Package text provides the text analysis applied to extracted article fields:
// case-insensitive phrase counting and money mention detection.
package text

import (
	"regexp"
	"strings"
)

// moneyPattern matches "$11.1", "$111,111.11", "11 dollars" and "11 USD".
var moneyPattern = regexp.MustCompile(`(?i)\$\d+[.,]?\d*|\d+[.,]?\d*\s*(?:dollars|USD)`)

// CountPhrase returns the number of non-overlapping, case-insensitive occurrences
// of phrase in each field, summed over all fields.
//
// Examples:
//
//	CountPhrase("Climate", "climate change", "CLIMATE policy")  // returns 2
//	CountPhrase("ai", "Said")                                   // returns 1
//	CountPhrase("", "anything")                                 // returns 0
func CountPhrase(phrase string, fields ...string) int {
	needle := strings.ToLower(strings.TrimSpace(phrase))
	if needle == "" {
		return 0
	}

	total := 0
	for _, f := range fields {
		total += strings.Count(strings.ToLower(f), needle)
	}
	return total
}

// HasMoneyMention reports whether any field mentions an amount of money.
// Fields are joined with a single space and matched as one text, so an amount
// at the end of one field and a unit at the start of the next count together.
func HasMoneyMention(fields ...string) bool {
	return moneyPattern.MatchString(strings.Join(fields, " "))
}
