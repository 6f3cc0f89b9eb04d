package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/vaidrix/meetingbot/internal/google"
	"github.com/vaidrix/meetingbot/internal/instrumentation"
	"github.com/vaidrix/meetingbot/internal/logging"
)

// Client is the gateway to the shared business calendar.
type Client struct {
	creds      *google.Store
	calendarID string
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewClient creates a gateway bound to one calendar. The credential store
// may be empty at construction time; each operation loads (and if needed
// refreshes) the credential when it runs. metrics may be nil.
func NewClient(creds *google.Store, calendarID string, metrics *instrumentation.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		creds:      creds,
		calendarID: calendarID,
		metrics:    metrics,
		logger:     logger,
	}
}

// service builds a Calendar API service authorized with the current
// credential. Fails with ErrUnauthenticated when no credential is stored.
func (c *Client) service(ctx context.Context) (*calendar.Service, error) {
	httpClient, err := c.creds.Client(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// ListBusy returns the events overlapping [startISO, endISO), recurring
// instances expanded, ordered by start time ascending. Zero events is a
// valid, empty result.
func (c *Client) ListBusy(ctx context.Context, startISO, endISO string) ([]BusyInterval, error) {
	began := time.Now()

	svc, err := c.service(ctx)
	if err != nil {
		c.metrics.RecordCalendarOperation(ctx, "list", instrumentation.ResultError, time.Since(began))
		return nil, err
	}

	events, err := svc.Events.List(c.calendarID).
		TimeMin(startISO).
		TimeMax(endISO).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		c.metrics.RecordCalendarOperation(ctx, "list", instrumentation.ResultError, time.Since(began))
		return nil, providerErr("list", err)
	}
	c.metrics.RecordCalendarOperation(ctx, "list", instrumentation.ResultSuccess, time.Since(began))

	intervals := make([]BusyInterval, 0, len(events.Items))
	for _, event := range events.Items {
		intervals = append(intervals, toBusyInterval(event))
	}

	c.logger.Debug("listed busy intervals",
		logging.Operation("calendar.list"),
		slog.Int("count", len(intervals)))
	return intervals, nil
}

// CreateMeeting creates an event with a Google Meet conference request and
// attendee notification emails. The insert runs with conference data
// version 1 so the Meet link is generated; if the immediate response still
// lacks conference details, one best-effort re-fetch by id is made before
// returning. A failed re-fetch is non-fatal: the meeting stands, just
// without a link in the record.
func (c *Client) CreateMeeting(ctx context.Context, input MeetingInput) (*MeetingRecord, error) {
	began := time.Now()

	svc, err := c.service(ctx)
	if err != nil {
		c.metrics.RecordCalendarOperation(ctx, "insert", instrumentation.ResultError, time.Since(began))
		return nil, err
	}

	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: conferenceRequestID(input.Start),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := svc.Events.Insert(c.calendarID, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		c.metrics.RecordCalendarOperation(ctx, "insert", instrumentation.ResultError, time.Since(began))
		return nil, providerErr("insert", err)
	}
	c.metrics.RecordCalendarOperation(ctx, "insert", instrumentation.ResultSuccess, time.Since(began))

	// The provider is eventually consistent about conference link
	// generation: the insert response sometimes comes back without it.
	if created.Id != "" && created.ConferenceData == nil {
		refetched, err := svc.Events.Get(c.calendarID, created.Id).
			Context(ctx).
			Do()
		if err != nil {
			c.logger.Warn("conference data re-fetch failed",
				logging.Operation("calendar.get"),
				slog.String("event_id", created.Id),
				logging.Err(err))
		} else {
			created = refetched
		}
	}

	record := toMeetingRecord(created)

	c.logger.Info("meeting created",
		logging.Operation("calendar.insert"),
		slog.String("event_id", record.ID),
		slog.Int("attendees", len(record.Attendees)),
		slog.Bool("has_meet_link", record.VideoEntryPointURI != "" || record.HangoutLink != ""))
	return &record, nil
}

// conferenceRequestID builds a unique id for the Meet create request,
// keyed to the meeting date for easier tracing in provider logs.
func conferenceRequestID(start time.Time) string {
	return fmt.Sprintf("meet-%s-%s", uuid.NewString()[:8], start.Format("2006-01-02"))
}
