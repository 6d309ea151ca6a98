package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the business types available for onboarding",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

func runTypes(cmd *cobra.Command, args []string) error {
	svc, err := newCLIServices("")
	if err != nil {
		return err
	}
	defer svc.Close()

	types, err := svc.deployments.ListBusinessTypes(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), types)
	}

	color.Cyan("%d business types", len(types))
	for _, t := range types {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s\n", t.Slug, t.Name)
	}
	return nil
}
