package mapper

import (
	"time"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/model"
)

type RegistryMapper struct{}

func NewRegistryMapper() *RegistryMapper {
	return &RegistryMapper{}
}

func (m *RegistryMapper) AgentToEntity(r *model.AgentRecord) *entity.Agent {
	if r == nil {
		return nil
	}
	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}
	return &entity.Agent{
		Id:        r.Id,
		RemoteId:  r.RemoteId,
		Name:      r.Name,
		Role:      r.Role,
		Model:     r.Model,
		Tools:     []string(r.Tools),
		SessionId: r.SessionId,
		Reserved:  r.Reserved,
		CreatedAt: r.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *RegistryMapper) AgentToModel(a *entity.Agent) *model.AgentRecord {
	if a == nil {
		return nil
	}
	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}
	return &model.AgentRecord{
		Id:        a.Id,
		RemoteId:  a.RemoteId,
		Name:      a.Name,
		Role:      a.Role,
		Model:     a.Model,
		Tools:     a.Tools,
		SessionId: a.SessionId,
		Reserved:  a.Reserved,
		CreatedAt: a.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *RegistryMapper) AgentsToEntities(records []*model.AgentRecord) []*entity.Agent {
	entities := make([]*entity.Agent, len(records))
	for i, r := range records {
		entities[i] = m.AgentToEntity(r)
	}
	return entities
}

func (m *RegistryMapper) StoreToEntity(r *model.VectorStoreRecord) *entity.VectorStore {
	if r == nil {
		return nil
	}
	return &entity.VectorStore{
		Id:        r.Id,
		RemoteId:  r.RemoteId,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
	}
}

func (m *RegistryMapper) StoreToModel(s *entity.VectorStore) *model.VectorStoreRecord {
	if s == nil {
		return nil
	}
	return &model.VectorStoreRecord{
		Id:        s.Id,
		RemoteId:  s.RemoteId,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
	}
}

func (m *RegistryMapper) StoresToEntities(records []*model.VectorStoreRecord) []*entity.VectorStore {
	entities := make([]*entity.VectorStore, len(records))
	for i, r := range records {
		entities[i] = m.StoreToEntity(r)
	}
	return entities
}

func (m *RegistryMapper) DocumentToEntity(r *model.DocumentRecord) *entity.DocumentRef {
	if r == nil {
		return nil
	}
	return &entity.DocumentRef{
		Id:            r.Id,
		StoreRemoteId: r.StoreRemoteId,
		Filename:      r.Filename,
		RemoteFileId:  r.RemoteFileId,
		Checksum:      r.Checksum,
		Pages:         r.Pages,
		SyncedAt:      r.SyncedAt,
	}
}

func (m *RegistryMapper) DocumentToModel(d *entity.DocumentRef) *model.DocumentRecord {
	if d == nil {
		return nil
	}
	return &model.DocumentRecord{
		Id:            d.Id,
		StoreRemoteId: d.StoreRemoteId,
		Filename:      d.Filename,
		RemoteFileId:  d.RemoteFileId,
		Checksum:      d.Checksum,
		Pages:         d.Pages,
		SyncedAt:      d.SyncedAt,
	}
}

func (m *RegistryMapper) DocumentsToEntities(records []*model.DocumentRecord) []*entity.DocumentRef {
	entities := make([]*entity.DocumentRef, len(records))
	for i, r := range records {
		entities[i] = m.DocumentToEntity(r)
	}
	return entities
}
