package mapper

import (
	"time"

	"email-onboarding-be/internal/entity"
	"email-onboarding-be/internal/model"
)

type TenantLabelMapper struct{}

func NewTenantLabelMapper() *TenantLabelMapper {
	return &TenantLabelMapper{}
}

func (m *TenantLabelMapper) ToEntity(l *model.TenantLabel) *entity.TenantLabel {
	if l == nil {
		return nil
	}

	var updatedAt *time.Time
	if !l.UpdatedAt.IsZero() {
		t := l.UpdatedAt
		updatedAt = &t
	}

	return &entity.TenantLabel{
		Id:        l.Id,
		TenantId:  l.TenantId,
		Provider:  l.Provider,
		Path:      l.Path,
		RemoteId:  l.RemoteId,
		CreatedAt: l.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *TenantLabelMapper) ToModel(l *entity.TenantLabel) *model.TenantLabel {
	if l == nil {
		return nil
	}

	var updatedAt time.Time
	if l.UpdatedAt != nil {
		updatedAt = *l.UpdatedAt
	}

	return &model.TenantLabel{
		Id:        l.Id,
		TenantId:  l.TenantId,
		Provider:  l.Provider,
		Path:      l.Path,
		RemoteId:  l.RemoteId,
		CreatedAt: l.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *TenantLabelMapper) ToEntities(labels []*model.TenantLabel) []*entity.TenantLabel {
	entities := make([]*entity.TenantLabel, len(labels))
	for i, l := range labels {
		entities[i] = m.ToEntity(l)
	}
	return entities
}

func (m *TenantLabelMapper) ToModels(labels []*entity.TenantLabel) []*model.TenantLabel {
	models := make([]*model.TenantLabel, len(labels))
	for i, l := range labels {
		models[i] = m.ToModel(l)
	}
	return models
}
