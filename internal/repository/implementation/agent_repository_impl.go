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

type AgentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RegistryMapper
}

func NewAgentRepository(db *gorm.DB) contract.AgentRepository {
	return &AgentRepositoryImpl{
		db:     db,
		mapper: mapper.NewRegistryMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AgentRepositoryImpl) Create(ctx context.Context, agent *entity.Agent) error {
	if agent.Id == uuid.Nil {
		agent.Id = uuid.New()
	}
	m := r.mapper.AgentToModel(agent)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*agent = *r.mapper.AgentToEntity(m)
	return nil
}

func (r *AgentRepositoryImpl) Update(ctx context.Context, agent *entity.Agent) error {
	m := r.mapper.AgentToModel(agent)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*agent = *r.mapper.AgentToEntity(m)
	return nil
}

func (r *AgentRepositoryImpl) DeleteByRemoteID(ctx context.Context, remoteID string) error {
	return r.db.WithContext(ctx).Where("remote_id = ?", remoteID).Delete(&model.AgentRecord{}).Error
}

func (r *AgentRepositoryImpl) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.AgentRecord{}).Error
}

func (r *AgentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error) {
	var m model.AgentRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AgentToEntity(&m), nil
}

func (r *AgentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error) {
	var models []*model.AgentRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.AgentsToEntities(models), nil
}

func (r *AgentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.AgentRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
