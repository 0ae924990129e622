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
	"gorm.io/gorm/clause"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RegistryMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewRegistryMapper(),
	}
}

func (r *DocumentRepositoryImpl) Upsert(ctx context.Context, doc *entity.DocumentRef) error {
	if doc.Id == uuid.Nil {
		doc.Id = uuid.New()
	}
	m := r.mapper.DocumentToModel(doc)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_remote_id"}, {Name: "filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"remote_file_id", "checksum", "pages", "synced_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	stored, err := r.FindOne(ctx, specification.ByStore{StoreRemoteID: doc.StoreRemoteId}, specification.ByFilename{Filename: doc.Filename})
	if err != nil {
		return err
	}
	if stored != nil {
		*doc = *stored
	}
	return nil
}

func (r *DocumentRepositoryImpl) DeleteByFilename(ctx context.Context, storeRemoteID, filename string) error {
	return r.db.WithContext(ctx).
		Where("store_remote_id = ? AND filename = ?", storeRemoteID, filename).
		Delete(&model.DocumentRecord{}).Error
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentRef, error) {
	var m model.DocumentRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentRef, error) {
	var models []*model.DocumentRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.DocumentsToEntities(models), nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
