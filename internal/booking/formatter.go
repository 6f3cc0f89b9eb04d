package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/vaidrix/meetingbot/internal/calendar"
)

// meetDomains are the video-conferencing domains recognized when falling
// back to the event's location field for a link.
var meetDomains = []string{"meet.google.com", "hangouts.google.com"}

// ExtractMeetLink finds the video-conferencing link in a created event.
// Precedence, first match wins:
//  1. the "video" conferencing entry point
//  2. the legacy hangoutLink field
//  3. a link derived from the conference id
//  4. a location field containing a known conferencing domain
//
// Absence of all four yields the empty string, not an error.
func ExtractMeetLink(record *calendar.MeetingRecord) string {
	if record == nil {
		return ""
	}
	if record.VideoEntryPointURI != "" {
		return record.VideoEntryPointURI
	}
	if record.HangoutLink != "" {
		return record.HangoutLink
	}
	if record.ConferenceID != "" {
		return "https://meet.google.com/" + record.ConferenceID
	}
	for _, domain := range meetDomains {
		if strings.Contains(record.Location, domain) {
			return record.Location
		}
	}
	return ""
}

// Confirmation is the value the formatter renders. Producing the text twice
// from the same value yields identical output.
type Confirmation struct {
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []string
	Link      string
	MeetLink  string
	Timezone  string
	Location  *time.Location
}

// NewConfirmation assembles a Confirmation from a created meeting record.
func NewConfirmation(record *calendar.MeetingRecord, title string, start, end time.Time, attendees []string, tz string, loc *time.Location) Confirmation {
	if loc == nil {
		loc = time.UTC
	}
	return Confirmation{
		Title:     title,
		Start:     start,
		End:       end,
		Attendees: attendees,
		Link:      record.HTMLLink,
		MeetLink:  ExtractMeetLink(record),
		Timezone:  tz,
		Location:  loc,
	}
}

// Format renders the human-readable confirmation text returned to the
// agent: title, date, time range with the timezone label, attendees (only
// when present), the calendar link, and the Meet link or a note that it
// will appear in the calendar event.
func (c Confirmation) Format() string {
	var b strings.Builder
	b.WriteString("OK. I have booked the meeting.\n\nHere are the details:\n")
	fmt.Fprintf(&b, "- **Title**: %s\n", c.Title)

	start := c.Start.In(c.Location)
	end := c.End.In(c.Location)
	fmt.Fprintf(&b, "- **Date**: %s\n", start.Format("January 02, 2006"))
	fmt.Fprintf(&b, "- **Time**: %s - %s (%s)\n",
		start.Format("03:04 PM"), end.Format("03:04 PM"), c.Timezone)

	if len(c.Attendees) > 0 {
		fmt.Fprintf(&b, "- **Attendees**: %s\n", strings.Join(c.Attendees, ", "))
	}

	fmt.Fprintf(&b, "- **Calendar Link**: [%s](%s)\n", c.Link, c.Link)

	if c.MeetLink != "" {
		fmt.Fprintf(&b, "- **Google Meet Link**: [%s](%s)\n", c.MeetLink, c.MeetLink)
	} else {
		b.WriteString("- **Google Meet Link**: The meeting link will be available in your Google Calendar. Please check the calendar event for the video conferencing link.\n")
	}

	return b.String()
}
