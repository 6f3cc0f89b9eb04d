// Package google manages the OAuth2 credential that authorizes all Google
// Calendar operations for the shared business calendar.
//
// The credential is a single token persisted as a JSON document on disk.
// It is written once by the interactive authorization flow and silently
// refreshed on load whenever it has expired and carries a refresh token.
package google
