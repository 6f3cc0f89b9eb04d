package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// BusyInterval is a read-only projection of one provider event, reduced to
// what the agent needs to reason about availability. Start and End keep the
// provider's string form: an RFC3339 timestamp for timed events or a plain
// date for all-day events.
type BusyInterval struct {
	Title string
	Start string
	End   string
}

// MeetingInput describes the event to create. Times are absolute instants;
// TimeZone is the business timezone label attached to the provider event.
type MeetingInput struct {
	Title       string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
	Description string
	Location    string
}

// MeetingRecord is the provider's view of a created event, carrying every
// field the confirmation formatter may need for link extraction.
type MeetingRecord struct {
	ID       string
	Title    string
	Start    string
	End      string
	HTMLLink string
	Location string

	Attendees []string

	// Conference link candidates, in the provider's raw form.
	VideoEntryPointURI string
	HangoutLink        string
	ConferenceID       string
}

// toBusyInterval reduces a provider event to a BusyInterval.
func toBusyInterval(event *calendar.Event) BusyInterval {
	interval := BusyInterval{Title: "(no title)"}
	if event == nil {
		return interval
	}
	if event.Summary != "" {
		interval.Title = event.Summary
	}
	if event.Start != nil {
		interval.Start = event.Start.DateTime
		if interval.Start == "" {
			interval.Start = event.Start.Date
		}
	}
	if event.End != nil {
		interval.End = event.End.DateTime
		if interval.End == "" {
			interval.End = event.End.Date
		}
	}
	return interval
}

// toMeetingRecord flattens a provider event into a MeetingRecord.
func toMeetingRecord(event *calendar.Event) MeetingRecord {
	record := MeetingRecord{}
	if event == nil {
		return record
	}

	record.ID = event.Id
	record.Title = event.Summary
	record.HTMLLink = event.HtmlLink
	record.Location = event.Location
	record.HangoutLink = event.HangoutLink

	if event.Start != nil {
		record.Start = event.Start.DateTime
		if record.Start == "" {
			record.Start = event.Start.Date
		}
	}
	if event.End != nil {
		record.End = event.End.DateTime
		if record.End == "" {
			record.End = event.End.Date
		}
	}

	for _, att := range event.Attendees {
		if att.Email != "" {
			record.Attendees = append(record.Attendees, att.Email)
		}
	}

	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				record.VideoEntryPointURI = ep.Uri
				break
			}
		}
		record.ConferenceID = event.ConferenceData.ConferenceId
	}

	return record
}
