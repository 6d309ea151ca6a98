package service

import (
	"context"
	"fmt"

	"email-onboarding-be/internal/entity"
	"email-onboarding-be/internal/repository/unitofwork"
	"email-onboarding-be/pkg/reconcile"

	"github.com/google/uuid"
)

// LabelMapStore persists reconciliation results through the label map
// repository. It satisfies reconcile.Store.
type LabelMapStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLabelMapStore(uowFactory unitofwork.RepositoryFactory) *LabelMapStore {
	return &LabelMapStore{uowFactory: uowFactory}
}

var _ reconcile.Store = (*LabelMapStore)(nil)

func (s *LabelMapStore) LoadLabelMap(ctx context.Context, tenantID, providerKind string) (map[string]string, error) {
	labels, err := s.uowFactory.NewUnitOfWork(ctx).LabelMapRepository().FindByTenantAndProvider(ctx, tenantID, providerKind)
	if err != nil {
		return nil, fmt.Errorf("load %s label map for %s: %w", providerKind, tenantID, err)
	}
	out := make(map[string]string, len(labels))
	for _, l := range labels {
		out[l.Path] = l.RemoteId
	}
	return out, nil
}

// SaveRun upserts every resolved path under the run's provider and records
// the run in one transaction. Paths the run did not touch keep their stored
// id.
func (s *LabelMapStore) SaveRun(ctx context.Context, result *reconcile.Result) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	repo := uow.LabelMapRepository()

	labels := make([]*entity.TenantLabel, 0, len(result.NameToID))
	for path, id := range result.NameToID {
		labels = append(labels, &entity.TenantLabel{
			TenantId: result.TenantID,
			Provider: result.Provider,
			Path:     path,
			RemoteId: id,
		})
	}
	if err := repo.UpsertMany(ctx, labels); err != nil {
		return fmt.Errorf("upsert labels: %w", err)
	}

	runId, err := uuid.Parse(result.RunID)
	if err != nil {
		runId = uuid.New()
	}
	failed := make([]entity.ReconciliationFailure, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, entity.ReconciliationFailure{
			Path:      f.Path,
			Name:      f.Name,
			Reason:    f.Reason,
			Retriable: f.Retriable,
		})
	}
	run := &entity.ReconciliationRun{
		Id:           runId,
		TenantId:     result.TenantID,
		Provider:     result.Provider,
		MatchedCount: len(result.Matched),
		CreatedCount: len(result.Created),
		Failed:       failed,
		Interrupted:  result.Interrupted,
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
	}
	if err := repo.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return uow.Commit()
}
