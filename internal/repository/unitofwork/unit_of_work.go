package unitofwork

import (
	"context"
	"errors"

	"ethics-review-be/internal/repository/contract"
	"ethics-review-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var (
	ErrTxStarted = errors.New("registry transaction already started")
	ErrNoTx      = errors.New("no registry transaction in progress")
)

// UnitOfWork groups the registry repositories. Repositories obtained after
// Begin share its transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AgentRepository() contract.AgentRepository
	VectorStoreRepository() contract.VectorStoreRepository
	DocumentRepository() contract.DocumentRepository
}

type registryUnit struct {
	db *gorm.DB
	tx *gorm.DB
}

func (u *registryUnit) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *registryUnit) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTxStarted
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *registryUnit) Commit() error {
	if u.tx == nil {
		return ErrNoTx
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *registryUnit) Rollback() error {
	if u.tx == nil {
		return ErrNoTx
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *registryUnit) AgentRepository() contract.AgentRepository {
	return implementation.NewAgentRepository(u.conn())
}

func (u *registryUnit) VectorStoreRepository() contract.VectorStoreRepository {
	return implementation.NewVectorStoreRepository(u.conn())
}

func (u *registryUnit) DocumentRepository() contract.DocumentRepository {
	return implementation.NewDocumentRepository(u.conn())
}
