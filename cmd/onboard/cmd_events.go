package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"email-onboarding-be/pkg/events"
	pktNats "email-onboarding-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var eventsDurable string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail onboarding events from NATS",
	Long: `Events prints TAXONOMY_RECONCILED and DEPLOYMENT_FAILED events as they
arrive. Without --durable only events published after start are shown.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDurable, "durable", "", "durable consumer name to resume from")
}

func runEvents(cmd *cobra.Command, args []string) error {
	if cfg.App.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}
	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	out := cmd.OutOrStdout()
	err = sub.Subscribe(cmd.Context(), events.SubjectPrefix+".>", eventsDurable, func(ctx context.Context, e events.Event) error {
		stamp := e.Timestamp().Format("15:04:05")
		switch e.EventType() {
		case events.TypeDeploymentFailed:
			fmt.Fprintf(out, "%s %s\n", stamp, color.RedString(e.EventType()))
		default:
			fmt.Fprintf(out, "%s %s\n", stamp, color.GreenString(e.EventType()))
		}
		data := e.Payload()
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "    %-14s %v\n", k, data[k])
		}
		return nil
	})
	if err != nil {
		return err
	}

	color.Cyan("Listening on %s.> (Ctrl+C to stop)", events.SubjectPrefix)
	<-cmd.Context().Done()
	return nil
}
