package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jmxpilot",
	Short: "jmxpilot - chat-driven JMeter test plan copilot",
	Long: `jmxpilot is a terminal copilot for building JMeter test plans.

Describe the test you need in plain language and the assistant answers with
a ready-to-run .jmx test plan. Detected plans can be validated and saved for
later use.

Running jmxpilot without a subcommand starts the interactive chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// No subcommand: enter chat mode
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
