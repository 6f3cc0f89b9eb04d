package booking

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTitle is used whenever the caller supplies an empty or
// whitespace-only meeting title.
const DefaultTitle = "Initial Call with Vaidrix Team"

// safetyMargin guards against clock skew and agents booking "right now":
// a start time must be strictly later than now plus this margin.
const safetyMargin = time.Minute

// ErrorKind classifies a validation failure.
type ErrorKind int

const (
	// KindMissingStartTime: the start time argument was empty.
	KindMissingStartTime ErrorKind = iota
	// KindInvalidDateFormat: the start time did not parse as ISO 8601.
	KindInvalidDateFormat
	// KindPastOrImminent: the start time is in the past or within the
	// safety margin of now.
	KindPastOrImminent
)

// ValidationError carries the instructive message returned to the agent.
type ValidationError struct {
	Kind ErrorKind
	msg  string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Validator checks requested meeting times against the business timezone
// and the current clock.
type Validator struct {
	loc *time.Location
	now func() time.Time
}

// NewValidator creates a validator for the given business timezone.
func NewValidator(loc *time.Location) *Validator {
	return &Validator{loc: loc, now: time.Now}
}

// withClock fixes the validator's clock; used by tests.
func (v *Validator) withClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// ValidateStart parses and validates a requested start time. On success it
// returns the normalized instant in UTC. On failure it returns a
// *ValidationError whose message the agent can act on.
//
// Times carrying an explicit offset (or 'Z') are converted to UTC directly;
// times without one are interpreted in the business timezone first.
func (v *Validator) ValidateStart(startISO string) (time.Time, error) {
	if strings.TrimSpace(startISO) == "" {
		return time.Time{}, &ValidationError{
			Kind: KindMissingStartTime,
			msg:  "Error: Start time (start_iso) is required to create a meeting.",
		}
	}

	parsed, err := v.Parse(startISO)
	if err != nil {
		return time.Time{}, &ValidationError{
			Kind: KindInvalidDateFormat,
			msg: fmt.Sprintf("Error: Invalid date format for start_iso: %s. Error: %v. Please provide a valid ISO 8601 datetime string.",
				startISO, err),
		}
	}

	startUTC := parsed.UTC()
	nowUTC := v.now().UTC()

	if !startUTC.After(nowUTC.Add(safetyMargin)) {
		diff := startUTC.Sub(nowUTC)
		if diff < 0 {
			hours := int((-diff).Hours())
			minutes := int((-diff).Minutes()) % 60
			return time.Time{}, &ValidationError{
				Kind: KindPastOrImminent,
				msg: fmt.Sprintf("Error: Cannot book a meeting in the past. The requested start time (%s) parsed to %s UTC, which is %d hours and %d minutes in the past. Current time is %s UTC. Please recalculate the date - if the user said 'tomorrow', ensure you're using the correct future date (current date + 1 day).",
					startISO, startUTC.Format(time.RFC3339), hours, minutes, nowUTC.Format(time.RFC3339)),
			}
		}
		return time.Time{}, &ValidationError{
			Kind: KindPastOrImminent,
			msg: fmt.Sprintf("Error: The requested start time (%s) is too close to the current time. Please book at least a few minutes in advance. Current time: %s UTC.",
				startISO, nowUTC.Format(time.RFC3339)),
		}
	}

	return startUTC, nil
}

// ValidateEnd parses a requested end time with the same leniency as
// ValidateStart but without the past/imminent check.
func (v *Validator) ValidateEnd(endISO string) (time.Time, error) {
	if strings.TrimSpace(endISO) == "" {
		return time.Time{}, &ValidationError{
			Kind: KindMissingStartTime,
			msg:  "Error: End time (end_iso) is required to create a meeting.",
		}
	}

	parsed, err := v.Parse(endISO)
	if err != nil {
		return time.Time{}, &ValidationError{
			Kind: KindInvalidDateFormat,
			msg: fmt.Sprintf("Error: Invalid date format for end_iso: %s. Error: %v. Please provide a valid ISO 8601 datetime string.",
				endISO, err),
		}
	}
	return parsed.UTC(), nil
}

// layouts accepted with an explicit offset or 'Z'.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
}

// layouts without an offset, interpreted in the business timezone.
// Date-only values parse at midnight business time.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse parses a flexible ISO-8601 timestamp. It tolerates offsets, 'Z',
// a space separator and date-only forms.
func (v *Validator) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	var firstErr error
	for _, layout := range offsetLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, value, v.loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, firstErr
}

// EffectiveTitle substitutes the default title for empty or
// whitespace-only input. Pure value transform.
func EffectiveTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return DefaultTitle
	}
	return title
}

// SplitAttendees derives attendee emails from a comma-separated argument,
// trimming whitespace and discarding empty segments.
func SplitAttendees(csv string) []string {
	var emails []string
	for _, part := range strings.Split(csv, ",") {
		if email := strings.TrimSpace(part); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
