// Package cmd implements the command-line interface for meetingbot.
//
// This package provides the following commands:
//   - serve: Start the HTTP chat server with the scheduling agent
//   - mcp: Expose the scheduling tools over the Model Context Protocol (stdio)
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
