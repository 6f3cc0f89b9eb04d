package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the meetingbot application
var rootCmd = &cobra.Command{
	Use:   "meetingbot",
	Short: "Conversational meeting scheduling over a shared Google Calendar",
	Long: `meetingbot is a chat assistant that books meetings into a shared
Google Calendar with Google Meet links attached.

It can run as:
  - An HTTP chat server (default)
  - An MCP (Model Context Protocol) server exposing the scheduling tools`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetingbot version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newVersionCmd())
}
