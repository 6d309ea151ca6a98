package main

import (
	"testing"

	"email-onboarding-be/pkg/merge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTeamMember(t *testing.T) {
	m, err := parseTeamMember("Ana Ruiz <ana@example.com>")
	require.NoError(t, err)
	assert.Equal(t, merge.TeamMember{Name: "Ana Ruiz", Email: "ana@example.com"}, m)

	m, err = parseTeamMember("  Bo ")
	require.NoError(t, err)
	assert.Equal(t, merge.TeamMember{Name: "Bo"}, m)

	_, err = parseTeamMember("Broken <not an address")
	assert.Error(t, err)
}

func TestParseVendor(t *testing.T) {
	assert.Equal(t, merge.Vendor{Domain: "ferguson.com"}, parseVendor("Ferguson.com"))
	assert.Equal(t, merge.Vendor{Name: "Home Depot"}, parseVendor("Home Depot"))
	assert.Equal(t, merge.Vendor{Name: "Acme Inc."}, parseVendor("Acme Inc."))
}

func TestTenantFlagsVoiceProfile(t *testing.T) {
	f := tenantFlags{businessName: "Volt Co", team: []string{"Ana"}, vendors: []string{"Graybar"}}
	tenant, err := f.tenant()
	require.NoError(t, err)
	assert.Nil(t, tenant.VoiceProfile)
	assert.Len(t, tenant.TeamMembers, 1)
	assert.Len(t, tenant.Vendors, 1)

	f.tone = "Warm"
	f.signOff = "Cheers"
	tenant, err = f.tenant()
	require.NoError(t, err)
	require.NotNil(t, tenant.VoiceProfile)
	assert.Equal(t, "Warm", tenant.VoiceProfile.Tone)
	assert.Equal(t, "Cheers", tenant.VoiceProfile.SignOff)
}
