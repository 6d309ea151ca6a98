package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"email-onboarding-be/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	jsonOut  bool
	tenantID string
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Merge business-type schemas and provision mailbox labels",
	Long: `onboard drives the email onboarding pipeline from a terminal.

It merges the classification, behavior and taxonomy schemas of one or more
business types, provisions the resulting label tree in a mailbox, and
resolves the workflow template with the ids it got back.

Examples:
  onboard types
  onboard preview --types Electrician,Plumber --business-name "Volt & Pipe Co"
  onboard deploy --types HVAC --business-name "Cool Air" --provider gmail --token $TOKEN`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print machine-readable JSON instead of a report")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "cli", "tenant id the label map is stored under")

	rootCmd.AddCommand(typesCmd, previewCmd, deployCmd, eventsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
