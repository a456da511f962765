package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootCmd represents the base command for the planner application
var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Plans your Google Calendar through a language model",
	Long: `planner turns natural-language scheduling requests into Google Calendar
changes. A language model picks calendar tools, planner executes them
with your credential and feeds the results back until the model answers.

It can run as:
  - An HTTP service with /chat and /events/upcoming endpoints (serve)
  - An interactive chat in the terminal (chat)
  - An MCP (Model Context Protocol) server exposing the calendar tools (mcp)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
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
	rootCmd.SetVersionTemplate(`{{printf "planner version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String(keyConfig, "", "Config file (default $XDG_CONFIG_HOME/planner/config.yaml)")
	fs.String(keyLogLevel, "info", "Log level: debug, info, warn or error")
	fs.String(keyLogFormat, "text", "Log format: text or json")
	fs.String(keyTimezone, DefaultTimezone, "IANA time zone for sessions that name none")
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newUpcomingCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
