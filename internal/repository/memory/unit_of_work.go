package memory

import (
	"context"

	"email-onboarding-be/internal/repository/contract"
	"email-onboarding-be/internal/repository/unitofwork"
)

// RepositoryFactory hands out units of work over one shared in-memory
// repository. Transactions are no-ops: writes apply immediately.
type RepositoryFactory struct {
	labels *LabelMapRepository
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{labels: NewLabelMapRepository()}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{labels: f.labels}
}

type unitOfWork struct {
	labels *LabelMapRepository
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) LabelMapRepository() contract.LabelMapRepository {
	return u.labels
}
