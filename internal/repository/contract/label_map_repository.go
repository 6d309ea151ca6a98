package contract

import (
	"context"

	"email-onboarding-be/internal/entity"
)

// LabelMapRepository stores each tenant's path -> remote id map per provider
// and the history of reconciliation runs that produced it.
type LabelMapRepository interface {
	// FindByTenant returns the labels of every provider, ordered by provider
	// then path.
	FindByTenant(ctx context.Context, tenantId string) ([]*entity.TenantLabel, error)
	FindByTenantAndProvider(ctx context.Context, tenantId, provider string) ([]*entity.TenantLabel, error)
	// UpsertMany inserts new (provider, path) rows and updates the remote id
	// of known ones. Rows absent from labels are left untouched.
	UpsertMany(ctx context.Context, labels []*entity.TenantLabel) error
	CreateRun(ctx context.Context, run *entity.ReconciliationRun) error
	FindRuns(ctx context.Context, tenantId string, limit int) ([]*entity.ReconciliationRun, error)
}
