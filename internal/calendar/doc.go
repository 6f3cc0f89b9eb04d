// Package calendar is a thin gateway to the Google Calendar API for the
// shared business calendar.
//
// It exposes the two operations the assistant needs: listing busy intervals
// in a time range and creating a meeting with a Google Meet link and real
// attendee invitations. Authorization comes from the credential store in
// internal/google; when no credential has been stored yet every operation
// fails with ErrUnauthenticated, distinct from provider-side failures which
// are wrapped in *ProviderError.
package calendar
