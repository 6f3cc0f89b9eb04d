package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kolkata = mustLoadLocation("Asia/Kolkata")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// fixedNow is the reference clock for validation tests.
var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(kolkata).withClock(func() time.Time { return fixedNow })
}

func validationKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Kind
}

func TestValidateStartMissing(t *testing.T) {
	v := newTestValidator()

	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := v.ValidateStart(input)
		require.Error(t, err, "input %q", input)
		assert.Equal(t, KindMissingStartTime, validationKind(t, err))
		assert.Contains(t, err.Error(), "required")
	}
}

func TestValidateStartInvalidFormat(t *testing.T) {
	v := newTestValidator()

	for _, input := range []string{
		"tomorrow at 3pm",
		"not-a-date",
		"2025-13-45T99:00:00Z",
		"15:00",
	} {
		_, err := v.ValidateStart(input)
		require.Error(t, err, "input %q", input)
		assert.Equal(t, KindInvalidDateFormat, validationKind(t, err))
		// The original string must appear so the agent can self-correct.
		assert.Contains(t, err.Error(), input)
		assert.Contains(t, err.Error(), "ISO 8601")
	}
}

func TestValidateStartPast(t *testing.T) {
	v := newTestValidator()

	_, err := v.ValidateStart("2020-01-01T10:00:00+05:30")
	require.Error(t, err)
	assert.Equal(t, KindPastOrImminent, validationKind(t, err))

	msg := err.Error()
	assert.True(t, len(msg) > 0)
	assert.Contains(t, msg, "Error: Cannot book a meeting in the past")
	assert.Contains(t, msg, "hours and")
	assert.Contains(t, msg, "minutes in the past")
	assert.Contains(t, msg, "recalculate the date")
	assert.Contains(t, msg, "tomorrow")
}

func TestValidateStartImminentBoundary(t *testing.T) {
	v := newTestValidator()

	// Exactly now + 1 minute is still rejected; the margin is exclusive.
	atMargin := fixedNow.Add(time.Minute).Format(time.RFC3339)
	_, err := v.ValidateStart(atMargin)
	require.Error(t, err)
	assert.Equal(t, KindPastOrImminent, validationKind(t, err))
	assert.Contains(t, err.Error(), "too close to the current time")

	// One second past the margin is accepted.
	pastMargin := fixedNow.Add(time.Minute + time.Second).Format(time.RFC3339)
	start, err := v.ValidateStart(pastMargin)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Minute+time.Second), start)
}

func TestValidateStartOffsetNormalization(t *testing.T) {
	v := newTestValidator()

	// 20:00 IST == 14:30 UTC, two and a half hours from the fixed clock.
	start, err := v.ValidateStart("2025-03-01T20:00:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC), start)
}

func TestValidateStartNoOffsetUsesBusinessTimezone(t *testing.T) {
	v := newTestValidator()

	// Without an offset the time is read as IST, then converted to UTC.
	start, err := v.ValidateStart("2025-03-01T20:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC), start)
}

func TestValidateStartDateOnly(t *testing.T) {
	v := newTestValidator()

	// Date-only parses at midnight business time: 2025-03-03T00:00+05:30
	// is 2025-03-02T18:30Z.
	start, err := v.ValidateStart("2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 2, 18, 30, 0, 0, time.UTC), start)
}

func TestValidateStartAcceptedForms(t *testing.T) {
	v := newTestValidator()

	for _, input := range []string{
		"2025-03-02T15:00:00Z",
		"2025-03-02T15:00:00.500Z",
		"2025-03-02T15:00:00+05:30",
		"2025-03-02T15:00+05:30",
		"2025-03-02 15:00:00",
		"2025-03-02 15:00",
		"2025-03-02T15:04",
	} {
		_, err := v.ValidateStart(input)
		assert.NoError(t, err, "input %q", input)
	}
}

func TestValidateEnd(t *testing.T) {
	v := newTestValidator()

	end, err := v.ValidateEnd("2025-03-02T15:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), end)

	// End times in the past are fine; only start times are range-checked.
	_, err = v.ValidateEnd("2020-01-01T10:00:00Z")
	assert.NoError(t, err)

	_, err = v.ValidateEnd("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_iso")

	_, err = v.ValidateEnd("garbage")
	require.Error(t, err)
	assert.Equal(t, KindInvalidDateFormat, validationKind(t, err))
}

func TestValidationErrorIsNotGenericError(t *testing.T) {
	v := newTestValidator()

	_, err := v.ValidateStart("")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestEffectiveTitle(t *testing.T) {
	assert.Equal(t, DefaultTitle, EffectiveTitle(""))
	assert.Equal(t, DefaultTitle, EffectiveTitle("   "))
	assert.Equal(t, "Quarterly Review", EffectiveTitle("Quarterly Review"))
}

func TestSplitAttendees(t *testing.T) {
	assert.Nil(t, SplitAttendees(""))
	assert.Nil(t, SplitAttendees(" , ,, "))
	assert.Equal(t,
		[]string{"alice@example.com", "bob@example.com"},
		SplitAttendees(" alice@example.com ,, bob@example.com "))
	assert.Equal(t, []string{"solo@example.com"}, SplitAttendees("solo@example.com"))
}
