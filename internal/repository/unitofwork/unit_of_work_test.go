package unitofwork_test

import (
	"context"
	"errors"
	"testing"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/model"
	"ethics-review-be/internal/repository/unitofwork"
	"ethics-review-be/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", true)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.RegistryModels()...))
	return unitofwork.NewRepositoryFactory(db)
}

func countAgents(t *testing.T, f unitofwork.RepositoryFactory) int64 {
	t.Helper()
	n, err := f.NewUnitOfWork(context.Background()).AgentRepository().Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestInTransaction(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		fail      error
		wantCount int64
	}{
		{name: "commit", wantCount: 2},
		{name: "rollback on error", fail: errBoom, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFactory(t)
			ctx := context.Background()

			err := f.InTransaction(ctx, func(uow unitofwork.UnitOfWork) error {
				repo := uow.AgentRepository()
				if err := repo.Create(ctx, &entity.Agent{RemoteId: "asst_1", Name: "Developer"}); err != nil {
					return err
				}
				if err := repo.Create(ctx, &entity.Agent{RemoteId: "asst_2", Name: "Tester"}); err != nil {
					return err
				}
				return tt.fail
			})

			if tt.fail != nil {
				assert.ErrorIs(t, err, tt.fail)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCount, countAgents(t, f))
		})
	}
}

func TestUnitOfWorkStateErrors(t *testing.T) {
	uow := newFactory(t).NewUnitOfWork(context.Background())

	assert.ErrorIs(t, uow.Commit(), unitofwork.ErrNoTx)
	assert.ErrorIs(t, uow.Rollback(), unitofwork.ErrNoTx)

	require.NoError(t, uow.Begin(context.Background()))
	assert.ErrorIs(t, uow.Begin(context.Background()), unitofwork.ErrTxStarted)
	require.NoError(t, uow.Rollback())
}
