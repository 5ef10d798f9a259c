package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(" x "))
}

func TestIsValidDate(t *testing.T) {
	_, ok := IsValidDate("2024-03-01")
	assert.True(t, ok)

	_, ok = IsValidDate("2024-13-01")
	assert.False(t, ok)

	_, ok = IsValidDate("01-03-2024")
	assert.False(t, ok)
}

func TestIsValidClockTime(t *testing.T) {
	parsed, ok := IsValidClockTime("08:30")
	assert.True(t, ok)
	assert.Equal(t, 8, parsed.Hour())
	assert.Equal(t, 30, parsed.Minute())

	_, ok = IsValidClockTime("25:00")
	assert.False(t, ok)

	_, ok = IsValidClockTime("8:30am")
	assert.False(t, ok)
}

func TestIsValidPeriod(t *testing.T) {
	assert.True(t, IsValidPeriod(2024, 3))
	assert.False(t, IsValidPeriod(2024, 0))
	assert.False(t, IsValidPeriod(2024, 13))
	assert.False(t, IsValidPeriod(1999, 6))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "name", Message: "name is required"},
		{Field: "date", Message: "date must be in YYYY-MM-DD format"},
	}

	assert.Equal(t, "name: name is required; date: date must be in YYYY-MM-DD format", errs.Error())
	assert.Equal(t, map[string]string{
		"name": "name is required",
		"date": "date must be in YYYY-MM-DD format",
	}, errs.ToMap())
}
