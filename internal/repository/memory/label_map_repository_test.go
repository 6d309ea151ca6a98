package memory

import (
	"context"
	"testing"
	"time"

	"email-onboarding-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelMapRepositoryUpsertKeepsExistingPaths(t *testing.T) {
	ctx := context.Background()
	repo := NewLabelMapRepository()

	require.NoError(t, repo.UpsertMany(ctx, []*entity.TenantLabel{
		{TenantId: "t1", Provider: "gmail", Path: "Urgent", RemoteId: "L1"},
		{TenantId: "t1", Provider: "gmail", Path: "Sales", RemoteId: "L2"},
	}))
	require.NoError(t, repo.UpsertMany(ctx, []*entity.TenantLabel{
		{TenantId: "t1", Provider: "gmail", Path: "Urgent", RemoteId: "L9"},
		{TenantId: "t1", Provider: "gmail", Path: "Urgent/No Power", RemoteId: "L3"},
	}))

	labels, err := repo.FindByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, labels, 3)

	got := map[string]string{}
	for _, l := range labels {
		got[l.Path] = l.RemoteId
	}
	assert.Equal(t, map[string]string{"Sales": "L2", "Urgent": "L9", "Urgent/No Power": "L3"}, got)
	assert.Equal(t, "Sales", labels[0].Path)

	other, err := repo.FindByTenant(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestLabelMapRepositoryKeepsProvidersApart(t *testing.T) {
	ctx := context.Background()
	repo := NewLabelMapRepository()

	require.NoError(t, repo.UpsertMany(ctx, []*entity.TenantLabel{
		{TenantId: "t1", Provider: "gmail", Path: "Billing", RemoteId: "gmail-1"},
		{TenantId: "t1", Provider: "gmail", Path: "Sales", RemoteId: "gmail-2"},
	}))
	require.NoError(t, repo.UpsertMany(ctx, []*entity.TenantLabel{
		{TenantId: "t1", Provider: "outlook", Path: "Sales", RemoteId: "outlook-1"},
	}))

	outlook, err := repo.FindByTenantAndProvider(ctx, "t1", "outlook")
	require.NoError(t, err)
	require.Len(t, outlook, 1)
	assert.Equal(t, "outlook-1", outlook[0].RemoteId)

	gmail, err := repo.FindByTenantAndProvider(ctx, "t1", "gmail")
	require.NoError(t, err)
	require.Len(t, gmail, 2)
	assert.Equal(t, "gmail-2", gmail[1].RemoteId)

	all, err := repo.FindByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "gmail", all[0].Provider)
	assert.Equal(t, "outlook", all[2].Provider)
}

func TestLabelMapRepositoryFindRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewLabelMapRepository()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		run := &entity.ReconciliationRun{TenantId: "t1", Provider: "gmail", CreatedCount: i, StartedAt: start.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.CreateRun(ctx, run))
		assert.NotEmpty(t, run.Id)
	}

	runs, err := repo.FindRuns(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].CreatedCount)
	assert.Equal(t, 1, runs[1].CreatedCount)

	all, err := repo.FindRuns(ctx, "t1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
