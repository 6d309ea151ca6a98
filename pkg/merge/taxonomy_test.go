package merge

import (
	"testing"

	"email-onboarding-be/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamTaxonomy(businessType string) *schema.TaxonomySchema {
	return &schema.TaxonomySchema{
		Meta: schema.Meta{Type: businessType, Ver: 1},
		Nodes: []*schema.TaxonomyNode{
			{Name: "Orders", Color: "#16a766"},
			{Name: "Team", Children: []*schema.TaxonomyNode{
				{Name: "{{member}}", DynamicTemplate: true, DynamicSource: schema.SourceTeamMembers},
			}},
		},
	}
}

func TestMergeTaxonomyTeamTemplate(t *testing.T) {
	tenant := &TenantProfile{TeamMembers: []TeamMember{{Name: "Ana"}, {Name: "Ben"}, {Name: "Cy"}}}

	merged, warnings := MergeTaxonomy([]*schema.TaxonomySchema{teamTaxonomy("Bakery")}, tenant)
	assert.Empty(t, warnings)

	team := merged.Find("Team")
	require.NotNil(t, team)
	assert.Equal(t, []string{"Ana", "Ben", "Cy"}, names(team.Children))
	_ = merged.Walk(func(v NodeVisit) error {
		assert.False(t, v.Node.DynamicTemplate, v.Path)
		return nil
	})
}

func TestMergeTaxonomyCollapsesMembersAcrossTypes(t *testing.T) {
	tenant := &TenantProfile{TeamMembers: []TeamMember{{Name: "Ana"}, {Name: " ANA "}, {Name: "Ben/Jr"}}}

	merged, _ := MergeTaxonomy([]*schema.TaxonomySchema{teamTaxonomy("Florist"), teamTaxonomy("Bakery")}, tenant)

	require.Len(t, merged.Nodes, 2)
	assert.Equal(t, []string{"Ana", "Ben-Jr"}, names(merged.Find("Team").Children))
}

func TestMergeTaxonomyDoesNotAliasSchemas(t *testing.T) {
	src := teamTaxonomy("Bakery")
	tenant := &TenantProfile{TeamMembers: []TeamMember{{Name: "Ana"}}}

	MergeTaxonomy([]*schema.TaxonomySchema{src}, tenant)

	require.Len(t, src.Nodes[1].Children, 1)
	assert.True(t, src.Nodes[1].Children[0].DynamicTemplate)
}

func TestMergedTaxonomyLevels(t *testing.T) {
	merged, _ := MergeTaxonomy([]*schema.TaxonomySchema{teamTaxonomy("Bakery")},
		&TenantProfile{TeamMembers: []TeamMember{{Name: "Ana"}}})

	levels := merged.Levels()
	require.Len(t, levels, 2)
	assert.Len(t, levels[0], 2)
	require.Len(t, levels[1], 1)
	assert.Equal(t, "Team/Ana", levels[1][0].Path)
	assert.Equal(t, "Team", levels[1][0].ParentPath)
	assert.Equal(t, 3, merged.Count())
	assert.Nil(t, merged.Find("Team/Bob"))
}
