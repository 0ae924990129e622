package contract

import (
	"context"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/repository/specification"
)

type DocumentRepository interface {
	// Upsert inserts or replaces the record for (store, filename).
	Upsert(ctx context.Context, doc *entity.DocumentRef) error
	DeleteByFilename(ctx context.Context, storeRemoteID, filename string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentRef, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentRef, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
