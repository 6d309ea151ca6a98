package main

import (
	"fmt"
	"net/mail"
	"strings"

	"email-onboarding-be/internal/dto"
	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/schema"

	"github.com/spf13/cobra"
)

// tenantFlags are shared by preview and deploy.
type tenantFlags struct {
	businessTypes []string
	businessName  string
	team          []string
	vendors       []string
	tone          string
	formality     string
	signOff       string
}

func (f *tenantFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.businessTypes, "types", "t", nil, "business types to merge (comma separated)")
	cmd.Flags().StringVar(&f.businessName, "business-name", "", "display name of the business")
	cmd.Flags().StringArrayVar(&f.team, "team", nil, `team member, "Name" or "Name <email>" (repeatable)`)
	cmd.Flags().StringArrayVar(&f.vendors, "vendor", nil, "vendor name or domain (repeatable)")
	cmd.Flags().StringVar(&f.tone, "tone", "", "tone from a voice analysis, leads the merged tone")
	cmd.Flags().StringVar(&f.formality, "formality", "", "casual, neutral or formal")
	cmd.Flags().StringVar(&f.signOff, "sign-off", "", "reply sign-off")
	_ = cmd.MarkFlagRequired("types")
	_ = cmd.MarkFlagRequired("business-name")
}

func (f *tenantFlags) tenant() (dto.TenantRequest, error) {
	t := dto.TenantRequest{BusinessName: f.businessName}
	for _, raw := range f.team {
		m, err := parseTeamMember(raw)
		if err != nil {
			return t, err
		}
		t.TeamMembers = append(t.TeamMembers, m)
	}
	for _, raw := range f.vendors {
		t.Vendors = append(t.Vendors, parseVendor(raw))
	}
	if f.tone != "" {
		t.VoiceProfile = &schema.VoiceProfile{Tone: f.tone, Formality: f.formality, SignOff: f.signOff}
	}
	return t, nil
}

func parseTeamMember(raw string) (merge.TeamMember, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "<") {
		return merge.TeamMember{Name: raw}, nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return merge.TeamMember{}, fmt.Errorf("team member %q: %w", raw, err)
	}
	return merge.TeamMember{Name: addr.Name, Email: addr.Address}, nil
}

// parseVendor treats a single dotted word as a domain.
func parseVendor(raw string) merge.Vendor {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ".") && !strings.ContainsAny(raw, " \t") {
		return merge.Vendor{Domain: strings.ToLower(raw)}
	}
	return merge.Vendor{Name: raw}
}
