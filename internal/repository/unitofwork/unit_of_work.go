package unitofwork

import (
	"context"

	"email-onboarding-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	LabelMapRepository() contract.LabelMapRepository
}
