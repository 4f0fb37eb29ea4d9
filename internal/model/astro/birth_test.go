package astro

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBirthDetailsFormatting(t *testing.T) {
	d := DefaultBirthDetails()

	assert.Equal(t, "2004-05-25", d.DOB())
	assert.Equal(t, "09:15", d.TOB())
	assert.Equal(t, "New Delhi, India", d.Place)
	require.NoError(t, d.Validate())
}

func TestFormattingIgnoresZoneAndPadding(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	d := BirthDetails{
		Name:        "X",
		DateOfBirth: time.Date(1999, time.January, 3, 0, 0, 0, 0, loc),
		TimeOfBirth: &Clock{Hour: 21, Minute: 5},
	}

	assert.Equal(t, "1999-01-03", d.DOB())
	assert.Equal(t, "21:05", d.TOB())
}

func TestAbsentFieldsRenderEmpty(t *testing.T) {
	d := BirthDetails{Name: "X"}

	assert.Empty(t, d.DOB())
	assert.Empty(t, d.TOB())
}

func TestParseClock(t *testing.T) {
	cases := map[string]Clock{
		"09:15":    {Hour: 9, Minute: 15},
		"23:59:58": {Hour: 23, Minute: 59},
		" 00:00 ":  {Hour: 0, Minute: 0},
	}
	for raw, want := range cases {
		got, err := ParseClock(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"9am", "24:00", "", "12:60"} {
		_, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}

func TestBirthFormDetails(t *testing.T) {
	form := BirthForm{Name: "  Ayush ", DOB: "2004-05-25", TOB: "09:15", Place: "New Delhi, India"}

	d, err := form.Details()
	require.NoError(t, err)
	assert.Equal(t, "Ayush", d.Name)
	assert.Equal(t, form.DOB, d.DOB())
	assert.Equal(t, form.TOB, d.TOB())
	assert.Equal(t, BirthForm{Name: "Ayush", DOB: "2004-05-25", TOB: "09:15", Place: "New Delhi, India"}, d.Form())
}

func TestBirthFormOptionalFields(t *testing.T) {
	d, err := BirthForm{Name: "Ayush", DOB: "2004-05-25"}.Details()
	require.NoError(t, err)

	assert.Nil(t, d.TimeOfBirth)
	assert.Empty(t, d.Place)
	require.NoError(t, d.Validate())
}

func TestBirthFormRejectsMalformedDate(t *testing.T) {
	_, err := BirthForm{Name: "Ayush", DOB: "25/05/2004"}.Details()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDetails))
}

func TestValidateRequiresNameAndDate(t *testing.T) {
	err := BirthDetails{Name: "   "}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDetails))
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "date of birth is required")
}

func TestValidateClockRange(t *testing.T) {
	d := DefaultBirthDetails()
	d.TimeOfBirth = &Clock{Hour: 25, Minute: 0}

	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hour of birth")
}
