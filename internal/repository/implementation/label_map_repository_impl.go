package implementation

import (
	"context"

	"email-onboarding-be/internal/entity"
	"email-onboarding-be/internal/mapper"
	"email-onboarding-be/internal/model"
	"email-onboarding-be/internal/repository/contract"
	"email-onboarding-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LabelMapRepositoryImpl struct {
	db        *gorm.DB
	labels    *mapper.TenantLabelMapper
	runMapper *mapper.ReconciliationRunMapper
}

func NewLabelMapRepository(db *gorm.DB) contract.LabelMapRepository {
	return &LabelMapRepositoryImpl{
		db:        db,
		labels:    mapper.NewTenantLabelMapper(),
		runMapper: mapper.NewReconciliationRunMapper(),
	}
}

func (r *LabelMapRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LabelMapRepositoryImpl) FindByTenant(ctx context.Context, tenantId string) ([]*entity.TenantLabel, error) {
	var models []*model.TenantLabel
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByTenantID{TenantID: tenantId},
		specification.OrderBy{Field: "provider"},
		specification.OrderBy{Field: "path"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.labels.ToEntities(models), nil
}

func (r *LabelMapRepositoryImpl) FindByTenantAndProvider(ctx context.Context, tenantId, provider string) ([]*entity.TenantLabel, error) {
	var models []*model.TenantLabel
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByTenantID{TenantID: tenantId},
		specification.ByProvider{Provider: provider},
		specification.OrderBy{Field: "path"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.labels.ToEntities(models), nil
}

func (r *LabelMapRepositoryImpl) UpsertMany(ctx context.Context, labels []*entity.TenantLabel) error {
	if len(labels) == 0 {
		return nil
	}
	models := r.labels.ToModels(labels)
	for _, m := range models {
		if m.Id == uuid.Nil {
			m.Id = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "provider"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"remote_id", "updated_at"}),
	}).CreateInBatches(models, 200).Error
}

func (r *LabelMapRepositoryImpl) CreateRun(ctx context.Context, run *entity.ReconciliationRun) error {
	m := r.runMapper.ToModel(run)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*run = *r.runMapper.ToEntity(m)
	return nil
}

func (r *LabelMapRepositoryImpl) FindRuns(ctx context.Context, tenantId string, limit int) ([]*entity.ReconciliationRun, error) {
	var models []*model.ReconciliationRun
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByTenantID{TenantID: tenantId},
		specification.OrderBy{Field: "started_at", Desc: true},
	)
	if limit > 0 {
		query = specification.Pagination{Limit: limit}.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.runMapper.ToEntities(models), nil
}
