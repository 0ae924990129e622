package unitofwork

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RepositoryFactory hands out units of work over the registry database.
type RepositoryFactory interface {
	// NewUnitOfWork returns a unit of work outside any transaction.
	NewUnitOfWork(ctx context.Context) UnitOfWork
	// InTransaction runs fn in one transaction, rolling back when fn fails
	// or panics.
	InTransaction(ctx context.Context, fn func(uow UnitOfWork) error) error
}

type repositoryFactory struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &repositoryFactory{db: db}
}

func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return &registryUnit{db: f.db.WithContext(ctx)}
}

func (f *repositoryFactory) InTransaction(ctx context.Context, fn func(uow UnitOfWork) error) (err error) {
	uow := f.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin registry transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback()
			panic(r)
		}
	}()

	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return uow.Commit()
}
