package main

import (
	"email-onboarding-be/internal/dto"
	"email-onboarding-be/internal/pkg/serverutils"

	"github.com/spf13/cobra"
)

var previewFlags tenantFlags

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Merge business types and show the result without touching a mailbox",
	Long: `Preview merges the selected business types with the tenant details and
prints the label tree, the classifier targets and every merge warning.
Nothing is written to a mailbox or to the label map.`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	previewFlags.register(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	tenant, err := previewFlags.tenant()
	if err != nil {
		return err
	}
	req := &dto.PreviewRequest{BusinessTypes: previewFlags.businessTypes, Tenant: tenant}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	svc, err := newCLIServices("")
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.deployments.Preview(cmd.Context(), tenantID, req)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printPreview(cmd.OutOrStdout(), res)
	return nil
}
