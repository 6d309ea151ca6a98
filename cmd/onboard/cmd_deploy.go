package main

import (
	"fmt"
	"os"

	"email-onboarding-be/internal/dto"
	"email-onboarding-be/internal/pkg/serverutils"

	"github.com/spf13/cobra"
)

var (
	deployFlags    tenantFlags
	deployProvider string
	deployToken    string
	deployTemplate string
	deployOut      string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Provision the merged label tree and resolve the workflow template",
	Long: `Deploy merges the selected business types, creates the missing labels or
folders in the mailbox, records the label map and writes the resolved
workflow document.

The access token is read from --token or MAIL_ACCESS_TOKEN. Re-running a
deploy with the same inputs creates nothing new.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	deployFlags.register(deployCmd)
	deployCmd.Flags().StringVar(&deployProvider, "provider", "", "gmail or outlook (default MAIL_PROVIDER)")
	deployCmd.Flags().StringVar(&deployToken, "token", "", "OAuth access token for the mailbox")
	deployCmd.Flags().StringVar(&deployTemplate, "template", "", "workflow template file replacing the default")
	deployCmd.Flags().StringVarP(&deployOut, "out", "o", "", "write the resolved document here instead of stdout")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	tenant, err := deployFlags.tenant()
	if err != nil {
		return err
	}
	token := deployToken
	if token == "" {
		token = os.Getenv("MAIL_ACCESS_TOKEN")
	}
	req := &dto.DeployRequest{
		BusinessTypes: deployFlags.businessTypes,
		Tenant:        tenant,
		Provider:      deployProvider,
		AccessToken:   token,
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	svc, err := newCLIServices(deployTemplate)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.deployments.Deploy(cmd.Context(), tenantID, req)
	if err != nil {
		return err
	}

	if deployOut != "" {
		if err := os.WriteFile(deployOut, []byte(res.Document), 0o644); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	}
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printDeployment(cmd.OutOrStdout(), res, deployOut == "")
	if res.Status != dto.DeploymentStatusCompleted {
		return fmt.Errorf("deployment %s: %d nodes failed", res.Status, len(res.Reconciliation.Failed))
	}
	return nil
}
