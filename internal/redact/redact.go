// Package redact strips personally-identifying fragments from free-text
// clinical input before it reaches any inference provider.
package redact

import (
	"fmt"
	"regexp"
)

// Category identifies the kind of PII a pattern extracts.
type Category string

const (
	CategoryName        Category = "NAME"
	CategoryPhone       Category = "PHONE"
	CategoryNationalID  Category = "NATIONAL_ID"
	CategoryDateOfBirth Category = "DATE_OF_BIRTH"
)

// categoryPattern pairs a category with its detection pattern. Patterns run
// in declared order over the current, already-substituted string, so a span
// claimed by an earlier category is never re-claimed by a later one.
type categoryPattern struct {
	category Category
	re       *regexp.Regexp
}

var patterns = []categoryPattern{
	{CategoryName, regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s[A-Z][a-z]+)?`)},
	{CategoryPhone, regexp.MustCompile(`\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`)},
	{CategoryNationalID, regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`)},
	{CategoryDateOfBirth, regexp.MustCompile(`\b[0-9]{1,2}/[0-9]{1,2}/[0-9]{4}\b`)},
}

// Redact replaces every PII match with a positional placeholder such as
// [PHONE_1] and returns the extracted originals grouped by category.
// Matching is non-overlapping and left-to-right within each category.
// Running Redact over its own output is a no-op: placeholders never match
// any category pattern.
func Redact(text string) (string, map[Category][]string) {
	entities := make(map[Category][]string)

	anonymized := text
	for _, p := range patterns {
		n := 0
		anonymized = p.re.ReplaceAllStringFunc(anonymized, func(match string) string {
			n++
			entities[p.category] = append(entities[p.category], match)
			return fmt.Sprintf("[%s_%d]", p.category, n)
		})
	}

	return anonymized, entities
}
