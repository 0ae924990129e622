package implementation

import (
	"context"
	"errors"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/mapper"
	"ethics-review-be/internal/model"
	"ethics-review-be/internal/repository/contract"
	"ethics-review-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VectorStoreRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RegistryMapper
}

func NewVectorStoreRepository(db *gorm.DB) contract.VectorStoreRepository {
	return &VectorStoreRepositoryImpl{
		db:     db,
		mapper: mapper.NewRegistryMapper(),
	}
}

func (r *VectorStoreRepositoryImpl) Create(ctx context.Context, store *entity.VectorStore) error {
	if store.Id == uuid.Nil {
		store.Id = uuid.New()
	}
	m := r.mapper.StoreToModel(store)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*store = *r.mapper.StoreToEntity(m)
	return nil
}

func (r *VectorStoreRepositoryImpl) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.VectorStoreRecord{}).Error
}

func (r *VectorStoreRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorStore, error) {
	var m model.VectorStoreRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.StoreToEntity(&m), nil
}

func (r *VectorStoreRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorStore, error) {
	var models []*model.VectorStoreRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.StoresToEntities(models), nil
}
