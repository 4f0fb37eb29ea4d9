package astro

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DateLayout is the ISO calendar date layout used in prompts and forms.
	DateLayout = "2006-01-02"
)

// ErrInvalidDetails marks birth details rejected before any model call.
var ErrInvalidDetails = errors.New("invalid birth details")

// Clock is a wall-clock time of day without date or zone.
type Clock struct {
	Hour   int `json:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" validate:"min=0,max=59"`
}

// ParseClock accepts "HH:MM" or "HH:MM:SS" in 24-hour notation; seconds are dropped.
func ParseClock(raw string) (Clock, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("invalid time of birth %q: want HH:MM", raw)
}

// String renders the clock as zero-padded 24-hour "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// BirthDetails is the user-supplied input for one profile request.
type BirthDetails struct {
	Name        string    `validate:"required"`
	DateOfBirth time.Time `validate:"required"`
	TimeOfBirth *Clock
	Place       string
}

// BirthForm is the wire shape of BirthDetails, matching the form fields.
type BirthForm struct {
	Name  string `json:"name"`
	DOB   string `json:"dob"`
	TOB   string `json:"tob"`
	Place string `json:"place"`
}

// DefaultBirthDetails returns the values the form is pre-filled with.
func DefaultBirthDetails() BirthDetails {
	return BirthDetails{
		Name:        "Ayush",
		DateOfBirth: time.Date(2004, time.May, 25, 0, 0, 0, 0, time.UTC),
		TimeOfBirth: &Clock{Hour: 9, Minute: 15},
		Place:       "New Delhi, India",
	}
}

// DOB renders the date of birth as YYYY-MM-DD, or "" when absent.
func (d BirthDetails) DOB() string {
	if d.DateOfBirth.IsZero() {
		return ""
	}
	return d.DateOfBirth.Format(DateLayout)
}

// TOB renders the time of birth as HH:MM, or "" when absent.
func (d BirthDetails) TOB() string {
	if d.TimeOfBirth == nil {
		return ""
	}
	return d.TimeOfBirth.String()
}

// Form converts the details back to their form representation.
func (d BirthDetails) Form() BirthForm {
	return BirthForm{
		Name:  d.Name,
		DOB:   d.DOB(),
		TOB:   d.TOB(),
		Place: d.Place,
	}
}

// Details parses the raw form strings. Empty tob and place are allowed;
// empty name and dob are left for Validate to report.
func (f BirthForm) Details() (BirthDetails, error) {
	details := BirthDetails{
		Name:  strings.TrimSpace(f.Name),
		Place: strings.TrimSpace(f.Place),
	}

	if dob := strings.TrimSpace(f.DOB); dob != "" {
		date, err := time.Parse(DateLayout, dob)
		if err != nil {
			return BirthDetails{}, fmt.Errorf("%w: date of birth %q: want YYYY-MM-DD", ErrInvalidDetails, f.DOB)
		}
		details.DateOfBirth = date
	}

	if tob := strings.TrimSpace(f.TOB); tob != "" {
		clock, err := ParseClock(tob)
		if err != nil {
			return BirthDetails{}, fmt.Errorf("%w: %v", ErrInvalidDetails, err)
		}
		details.TimeOfBirth = &clock
	}

	return details, nil
}

var validate = validator.New()

// Validate enforces the required fields: a non-blank name and a date of birth.
func (d BirthDetails) Validate() error {
	d.Name = strings.TrimSpace(d.Name)

	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, describeFieldError(e))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDetails, strings.Join(messages, "; "))
}

func describeFieldError(e validator.FieldError) string {
	field := fieldLabels[e.StructField()]
	if field == "" {
		field = e.StructNamespace()
	}
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min", "max":
		return fmt.Sprintf("%s is out of range (%s=%s)", field, e.Tag(), e.Param())
	default:
		return fmt.Sprintf("%s failed %q", field, e.Tag())
	}
}

var fieldLabels = map[string]string{
	"Name":        "name",
	"DateOfBirth": "date of birth",
	"Hour":        "hour of birth",
	"Minute":      "minute of birth",
}
