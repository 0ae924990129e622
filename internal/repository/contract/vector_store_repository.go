package contract

import (
	"context"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/repository/specification"
)

type VectorStoreRepository interface {
	Create(ctx context.Context, store *entity.VectorStore) error
	DeleteAll(ctx context.Context) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorStore, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorStore, error)
}
