package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vaidrix/meetingbot/internal/booking"
	"github.com/vaidrix/meetingbot/internal/calendar"
	"github.com/vaidrix/meetingbot/internal/instrumentation"
	"github.com/vaidrix/meetingbot/internal/logging"
)

// Tool names as the reasoning loop sees them.
const (
	ToolCheckAvailability = "check_availability"
	ToolCreateMeeting     = "create_meeting"
)

// unauthenticatedReply tells the operator how to fix a missing credential.
const unauthenticatedReply = "Error: Google Calendar is not authorized yet. " +
	"Open /auth/google in a browser, sign in with the business Google account and grant calendar access, then try again."

// Gateway is the calendar surface the tools need.
type Gateway interface {
	ListBusy(ctx context.Context, startISO, endISO string) ([]calendar.BusyInterval, error)
	CreateMeeting(ctx context.Context, input calendar.MeetingInput) (*calendar.MeetingRecord, error)
}

// Tools binds the two scheduling actions to a calendar gateway and the
// booking validator.
type Tools struct {
	gateway   Gateway
	validator *booking.Validator
	timezone  string
	location  *time.Location
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

// New creates the tool set. metrics may be nil.
func New(gateway Gateway, timezone string, loc *time.Location, metrics *instrumentation.Metrics, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Tools{
		gateway:   gateway,
		validator: booking.NewValidator(loc),
		timezone:  timezone,
		location:  loc,
		metrics:   metrics,
		logger:    logger,
	}
}

// busyEntry is the serialized form of one busy interval.
type busyEntry struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// CheckAvailability lists busy events between startISO and endISO as a JSON
// list of {title, start, end}. The agent infers free slots from the busy
// ones; this tool never computes free/busy itself. Zero events yields an
// empty list, not an error.
func (t *Tools) CheckAvailability(ctx context.Context, startISO, endISO string) string {
	logger := t.logger.With(logging.Tool(ToolCheckAvailability))

	intervals, err := t.gateway.ListBusy(ctx, startISO, endISO)
	if err != nil {
		t.metrics.RecordToolInvocation(ctx, ToolCheckAvailability, instrumentation.ResultError)
		logger.Warn("availability check failed", logging.Err(err))
		if errors.Is(err, calendar.ErrUnauthenticated) {
			return unauthenticatedReply
		}
		return fmt.Sprintf("Error: could not check calendar availability: %v", err)
	}

	entries := make([]busyEntry, 0, len(intervals))
	for _, interval := range intervals {
		entries = append(entries, busyEntry{Title: interval.Title, Start: interval.Start, End: interval.End})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		t.metrics.RecordToolInvocation(ctx, ToolCheckAvailability, instrumentation.ResultError)
		return fmt.Sprintf("Error: could not serialize busy events: %v", err)
	}

	t.metrics.RecordToolInvocation(ctx, ToolCheckAvailability, instrumentation.ResultSuccess)
	logger.Debug("availability checked", slog.Int("busy_events", len(entries)))
	return string(data)
}

// CreateMeeting validates the requested time, books the event with a Google
// Meet link and returns the formatted confirmation. Every failure comes
// back as an instructive string the agent can read and correct.
func (t *Tools) CreateMeeting(ctx context.Context, title, startISO, endISO, attendeesCSV, description, location string) string {
	logger := t.logger.With(logging.Tool(ToolCreateMeeting))

	start, err := t.validator.ValidateStart(startISO)
	if err != nil {
		t.metrics.RecordToolInvocation(ctx, ToolCreateMeeting, instrumentation.ResultRejected)
		logger.Info("meeting request rejected", logging.Err(err))
		return err.Error()
	}

	end, err := t.validator.ValidateEnd(endISO)
	if err != nil {
		t.metrics.RecordToolInvocation(ctx, ToolCreateMeeting, instrumentation.ResultRejected)
		logger.Info("meeting request rejected", logging.Err(err))
		return err.Error()
	}

	title = booking.EffectiveTitle(title)
	attendees := booking.SplitAttendees(attendeesCSV)

	record, err := t.gateway.CreateMeeting(ctx, calendar.MeetingInput{
		Title:       title,
		Start:       start.In(t.location),
		End:         end.In(t.location),
		TimeZone:    t.timezone,
		Attendees:   attendees,
		Description: description,
		Location:    location,
	})
	if err != nil {
		t.metrics.RecordToolInvocation(ctx, ToolCreateMeeting, instrumentation.ResultError)
		logger.Error("meeting creation failed", logging.Err(err))
		if errors.Is(err, calendar.ErrUnauthenticated) {
			return unauthenticatedReply
		}
		return fmt.Sprintf("Error: failed to create the meeting: %v", err)
	}

	t.metrics.RecordToolInvocation(ctx, ToolCreateMeeting, instrumentation.ResultSuccess)
	logger.Info("meeting booked",
		slog.String("event_id", record.ID),
		slog.Any("attendees", anonymizedAttendees(attendees)))

	confirmation := booking.NewConfirmation(record, title, start, end, attendees, t.timezone, t.location)
	return confirmation.Format()
}

// anonymizedAttendees hashes attendee emails for log correlation without
// writing PII to the logs.
func anonymizedAttendees(attendees []string) []string {
	out := make([]string, len(attendees))
	for i, email := range attendees {
		out[i] = logging.AnonymizeEmail(email)
	}
	return out
}
