package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"email-onboarding-be/internal/dto"
	"email-onboarding-be/internal/repository/memory"
	"email-onboarding-be/pkg/inject"
	"email-onboarding-be/pkg/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelMapStoreScopesByProvider(t *testing.T) {
	ctx := context.Background()
	store := NewLabelMapStore(memory.NewRepositoryFactory())

	require.NoError(t, store.SaveRun(ctx, &reconcile.Result{
		TenantID: "t1",
		Provider: "gmail",
		NameToID: map[string]string{"Billing": "gmail-1", "Sales": "gmail-2"},
	}))
	require.NoError(t, store.SaveRun(ctx, &reconcile.Result{
		TenantID: "t1",
		Provider: "outlook",
		NameToID: map[string]string{"Sales": "outlook-1"},
	}))

	outlook, err := store.LoadLabelMap(ctx, "t1", "outlook")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Sales": "outlook-1"}, outlook)

	gmail, err := store.LoadLabelMap(ctx, "t1", "gmail")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Billing": "gmail-1", "Sales": "gmail-2"}, gmail)
}

func TestDeploySwitchingProviderDoesNotReuseIds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	template := `{"sales":"<<LABEL_SALES>>","urgent":"<<LABEL_URGENT>>"}`

	f.provider.kind = "gmail"
	f.provider.prefix = "gmail-"
	req := deployRequest()
	req.Template = template
	first, err := f.svc.Deploy(ctx, "t1", req)
	require.NoError(t, err)
	require.Equal(t, dto.DeploymentStatusCompleted, first.Status)

	outlook := &memProvider{reject: map[string]bool{"Sales": true}, kind: "outlook", prefix: "outlook-"}
	f.resolver.p = outlook
	req = deployRequest()
	req.Provider = "outlook"
	req.Template = template
	second, err := f.svc.Deploy(ctx, "t1", req)
	require.NoError(t, err)
	assert.Equal(t, dto.DeploymentStatusPartial, second.Status)
	assert.NotContains(t, second.Reconciliation.NameToID, "Sales")

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(second.Document), &doc))
	assert.Equal(t, inject.EmptyMarker, doc["sales"])
	assert.True(t, strings.HasPrefix(doc["urgent"], "outlook-"), doc["urgent"])

	labels, err := f.svc.GetLabelMap(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, first.Reconciliation.NameToID["Sales"], labels.Labels["gmail"]["Sales"])
	assert.NotContains(t, labels.Labels["outlook"], "Sales")
	for path, id := range labels.Labels["outlook"] {
		assert.True(t, strings.HasPrefix(id, "outlook-"), path)
	}
}
