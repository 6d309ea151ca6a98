package mapper

import (
	"encoding/json"

	"email-onboarding-be/internal/entity"
	"email-onboarding-be/internal/model"

	"gorm.io/datatypes"
)

type ReconciliationRunMapper struct{}

func NewReconciliationRunMapper() *ReconciliationRunMapper {
	return &ReconciliationRunMapper{}
}

func (m *ReconciliationRunMapper) ToEntity(r *model.ReconciliationRun) *entity.ReconciliationRun {
	if r == nil {
		return nil
	}

	var failed []entity.ReconciliationFailure
	if len(r.Failed) > 0 {
		// Rows written by this mapper always hold a JSON array.
		if err := json.Unmarshal(r.Failed, &failed); err != nil {
			failed = nil
		}
	}

	return &entity.ReconciliationRun{
		Id:           r.Id,
		TenantId:     r.TenantId,
		Provider:     r.Provider,
		MatchedCount: r.MatchedCount,
		CreatedCount: r.CreatedCount,
		Failed:       failed,
		Interrupted:  r.Interrupted,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}

func (m *ReconciliationRunMapper) ToModel(r *entity.ReconciliationRun) *model.ReconciliationRun {
	if r == nil {
		return nil
	}

	failed := r.Failed
	if failed == nil {
		failed = []entity.ReconciliationFailure{}
	}
	data, err := json.Marshal(failed)
	if err != nil {
		data = []byte("[]")
	}

	return &model.ReconciliationRun{
		Id:           r.Id,
		TenantId:     r.TenantId,
		Provider:     r.Provider,
		MatchedCount: r.MatchedCount,
		CreatedCount: r.CreatedCount,
		Failed:       datatypes.JSON(data),
		Interrupted:  r.Interrupted,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}

func (m *ReconciliationRunMapper) ToEntities(runs []*model.ReconciliationRun) []*entity.ReconciliationRun {
	entities := make([]*entity.ReconciliationRun, len(runs))
	for i, r := range runs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
