// Package server exposes the assistant over HTTP: the chat endpoint, the
// Google OAuth authorization pair, health and metrics.
//
// Session continuity is carried by an opaque cookie holding a random
// token; the chat handler is the only place where agent failures are
// converted into the generic user-facing apology.
package server
