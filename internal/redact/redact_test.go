package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactNoPII(t *testing.T) {
	tests := []string{
		"chest pain and shortness of breath for two days",
		"",
		"patient reports mild fatigue after exercise",
	}
	for _, input := range tests {
		anonymized, entities := Redact(input)
		assert.Equal(t, input, anonymized)
		assert.Empty(t, entities)
	}
}

func TestRedactCategories(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		category   Category
		extracted  []string
	}{
		{
			name:      "honorific name",
			input:     "Seen by Dr. Alice Harper for follow-up",
			want:      "Seen by [NAME_1] for follow-up",
			category:  CategoryName,
			extracted: []string{"Dr. Alice Harper"},
		},
		{
			name:      "phone number",
			input:     "callback number 330-333-2654 after 5pm",
			want:      "callback number [PHONE_1] after 5pm",
			category:  CategoryPhone,
			extracted: []string{"330-333-2654"},
		},
		{
			name:      "national id",
			input:     "insurance on file under 123-45-6789",
			want:      "insurance on file under [NATIONAL_ID_1]",
			category:  CategoryNationalID,
			extracted: []string{"123-45-6789"},
		},
		{
			name:      "date of birth",
			input:     "born 12/03/1985, presents with cough",
			want:      "born [DATE_OF_BIRTH_1], presents with cough",
			category:  CategoryDateOfBirth,
			extracted: []string{"12/03/1985"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anonymized, entities := Redact(tt.input)
			assert.Equal(t, tt.want, anonymized)
			assert.Equal(t, tt.extracted, entities[tt.category])
		})
	}
}

func TestRedactOccurrenceIndexes(t *testing.T) {
	input := "contact 330-333-2654 or 440-555-1234"
	anonymized, entities := Redact(input)

	assert.Equal(t, "contact [PHONE_1] or [PHONE_2]", anonymized)
	require.Len(t, entities[CategoryPhone], 2)
	assert.Equal(t, "330-333-2654", entities[CategoryPhone][0])
	assert.Equal(t, "440-555-1234", entities[CategoryPhone][1])
}

func TestRedactMixedCategories(t *testing.T) {
	input := "Mr. John Doe, 123-45-6789, born 01/02/1990"
	anonymized, entities := Redact(input)

	assert.Contains(t, anonymized, "[NAME_1]")
	assert.Contains(t, anonymized, "[NATIONAL_ID_1]")
	assert.Contains(t, anonymized, "[DATE_OF_BIRTH_1]")

	total := 0
	for _, vals := range entities {
		total += len(vals)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, strings.Count(anonymized, "["))
}

func TestRedactIdempotent(t *testing.T) {
	inputs := []string{
		"Dr. Alice Harper at 330-333-2654, SSN 123-45-6789, DOB 12/03/1985",
		"no pii at all",
		"[PHONE_1] already anonymized",
	}
	for _, input := range inputs {
		first, _ := Redact(input)
		second, entities := Redact(first)
		assert.Equal(t, first, second)
		if input == first {
			continue
		}
		assert.Empty(t, entities)
	}
}
