package contract

import (
	"context"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/repository/specification"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *entity.Agent) error
	Update(ctx context.Context, agent *entity.Agent) error
	DeleteByRemoteID(ctx context.Context, remoteID string) error
	DeleteAll(ctx context.Context) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
