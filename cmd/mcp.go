package cmd

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/vaidrix/meetingbot/internal/calendar"
	"github.com/vaidrix/meetingbot/internal/config"
	"github.com/vaidrix/meetingbot/internal/google"
	"github.com/vaidrix/meetingbot/internal/logging"
	"github.com/vaidrix/meetingbot/internal/tools/scheduling"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server (stdio)",
		Long: `Expose the scheduling tools over the Model Context Protocol so an
external AI assistant can check availability and create meetings directly.

The transport is stdio; the conversational layer is the client's concern.
Run 'meetingbot serve' and visit /auth/google first to put a Google token
on file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}

	return cmd
}

func runMCP() error {
	// stdio carries the protocol; logs must stay on stderr.
	logger := logging.Setup("json", "warn")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc := cfg.Location()

	creds, err := google.NewStore(cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.GoogleRedirectURI, cfg.TokenFile, logger)
	if err != nil {
		return err
	}

	calClient := calendar.NewClient(creds, cfg.CalendarID, nil, logger)
	tools := scheduling.New(calClient, cfg.Timezone, loc, nil, logger)

	mcpSrv := mcpserver.NewMCPServer("meetingbot", version,
		mcpserver.WithToolCapabilities(true),
	)
	scheduling.RegisterMCPTools(mcpSrv, tools)

	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("mcp server stopped with error: %w", err)
	}
	return nil
}
