package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"email-onboarding-be/internal/entity"
	"email-onboarding-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// LabelMapRepository keeps label maps in process memory. It backs the
// service when no database is configured, and the CLI.
type LabelMapRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewLabelMapRepository() *LabelMapRepository {
	return &LabelMapRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

var _ contract.LabelMapRepository = (*LabelMapRepository)(nil)

func labelsKey(tenantId string) string { return "labels:" + tenantId }
func runsKey(tenantId string) string   { return "runs:" + tenantId }

type labelKey struct {
	provider string
	path     string
}

func (r *LabelMapRepository) labelsOf(tenantId string) map[labelKey]entity.TenantLabel {
	if x, found := r.cache.Get(labelsKey(tenantId)); found {
		return x.(map[labelKey]entity.TenantLabel)
	}
	return nil
}

func (r *LabelMapRepository) find(tenantId string, keep func(entity.TenantLabel) bool) []*entity.TenantLabel {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.labelsOf(tenantId)
	out := make([]*entity.TenantLabel, 0, len(stored))
	for _, l := range stored {
		if !keep(l) {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (r *LabelMapRepository) FindByTenant(_ context.Context, tenantId string) ([]*entity.TenantLabel, error) {
	return r.find(tenantId, func(entity.TenantLabel) bool { return true }), nil
}

func (r *LabelMapRepository) FindByTenantAndProvider(_ context.Context, tenantId, provider string) ([]*entity.TenantLabel, error) {
	return r.find(tenantId, func(l entity.TenantLabel) bool { return l.Provider == provider }), nil
}

func (r *LabelMapRepository) UpsertMany(_ context.Context, labels []*entity.TenantLabel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	touched := make(map[string]map[labelKey]entity.TenantLabel)
	for _, l := range labels {
		stored, ok := touched[l.TenantId]
		if !ok {
			stored = make(map[labelKey]entity.TenantLabel)
			for k, v := range r.labelsOf(l.TenantId) {
				stored[k] = v
			}
			touched[l.TenantId] = stored
		}
		key := labelKey{provider: l.Provider, path: l.Path}
		row := *l
		if existing, found := stored[key]; found {
			row.Id = existing.Id
			row.CreatedAt = existing.CreatedAt
			row.UpdatedAt = &now
		} else {
			if row.Id == uuid.Nil {
				row.Id = uuid.New()
			}
			row.CreatedAt = now
		}
		stored[key] = row
	}
	for tenantId, stored := range touched {
		r.cache.Set(labelsKey(tenantId), stored, cache.NoExpiration)
	}
	return nil
}

func (r *LabelMapRepository) CreateRun(_ context.Context, run *entity.ReconciliationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.Id == uuid.Nil {
		run.Id = uuid.New()
	}
	var runs []entity.ReconciliationRun
	if x, found := r.cache.Get(runsKey(run.TenantId)); found {
		runs = x.([]entity.ReconciliationRun)
	}
	runs = append(append([]entity.ReconciliationRun(nil), runs...), *run)
	r.cache.Set(runsKey(run.TenantId), runs, cache.NoExpiration)
	return nil
}

func (r *LabelMapRepository) FindRuns(_ context.Context, tenantId string, limit int) ([]*entity.ReconciliationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var runs []entity.ReconciliationRun
	if x, found := r.cache.Get(runsKey(tenantId)); found {
		runs = x.([]entity.ReconciliationRun)
	}
	out := make([]*entity.ReconciliationRun, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		out = append(out, &run)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
