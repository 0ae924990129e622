package service

import (
	"context"
	"fmt"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/internal/repository/specification"
	"ethics-review-be/internal/repository/unitofwork"
	"ethics-review-be/pkg/assistant"
)

type RefreshReport struct {
	Assistants   int `json:"assistants"`
	VectorStores int `json:"vector_stores"`
	Removed      int `json:"removed"`
}

// IRegistryService maps logical names to provider ids. Lookups only read the
// local registry, Refresh is the one place the remote side is scanned.
type IRegistryService interface {
	Refresh(ctx context.Context) (*RefreshReport, error)

	// FindAgentsByName returns every record for name, oldest first.
	FindAgentsByName(ctx context.Context, name string) ([]*entity.Agent, error)
	FindAgentByRemoteID(ctx context.Context, remoteID string) (*entity.Agent, error)
	SessionAgents(ctx context.Context, sessionID string) ([]*entity.Agent, error)
	AllAgents(ctx context.Context) ([]*entity.Agent, error)
	RecordAgent(ctx context.Context, agent *entity.Agent) error
	ForgetAgent(ctx context.Context, remoteID string) error

	FindStoreByName(ctx context.Context, name string) (*entity.VectorStore, error)
	RecordStore(ctx context.Context, store *entity.VectorStore) error

	FindDocument(ctx context.Context, storeID, filename string) (*entity.DocumentRef, error)
	Documents(ctx context.Context, storeID string) ([]*entity.DocumentRef, error)
	RecordDocument(ctx context.Context, doc *entity.DocumentRef) error
	ForgetDocument(ctx context.Context, storeID, filename string) error
}

type registryService struct {
	uowFactory unitofwork.RepositoryFactory
	client     assistant.Client
	logger     logger.ILogger
}

func NewRegistryService(uowFactory unitofwork.RepositoryFactory, client assistant.Client, log logger.ILogger) IRegistryService {
	return &registryService{
		uowFactory: uowFactory,
		client:     client,
		logger:     log,
	}
}

// Refresh replaces the assistant and vector store records with what the
// remote side currently holds. Known agents keep their session and role.
func (s *registryService) Refresh(ctx context.Context) (*RefreshReport, error) {
	remoteAgents, err := s.client.ListAssistants(ctx)
	if err != nil {
		return nil, apperr.Classify("registry.refresh", err)
	}
	remoteStores, err := s.client.ListVectorStores(ctx)
	if err != nil {
		return nil, apperr.Classify("registry.refresh", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	known, err := uow.AgentRepository().FindAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.refresh", err)
	}
	byRemote := make(map[string]*entity.Agent, len(known))
	for _, a := range known {
		byRemote[a.RemoteId] = a
	}

	var report *RefreshReport
	err = s.uowFactory.InTransaction(ctx, func(tx unitofwork.UnitOfWork) error {
		var err error
		report, err = s.replaceAll(ctx, tx, remoteAgents, remoteStores, byRemote)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.refresh", err)
	}

	s.logger.Info("REGISTRY", "Registry refreshed", map[string]interface{}{
		"assistants":    report.Assistants,
		"vector_stores": report.VectorStores,
		"removed":       report.Removed,
	})
	return report, nil
}

func (s *registryService) replaceAll(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	remoteAgents []assistant.Assistant,
	remoteStores []assistant.VectorStore,
	byRemote map[string]*entity.Agent,
) (*RefreshReport, error) {
	agents := uow.AgentRepository()
	if err := agents.DeleteAll(ctx); err != nil {
		return nil, err
	}

	live := make(map[string]bool, len(remoteAgents))
	for _, ra := range remoteAgents {
		live[ra.ID] = true
		rec := &entity.Agent{
			RemoteId: ra.ID,
			Name:     ra.Name,
			Role:     ra.Instructions,
			Model:    ra.Model,
			Reserved: entity.IsReservedName(ra.Name),
		}
		if prev, ok := byRemote[ra.ID]; ok {
			rec.Role = prev.Role
			rec.Tools = prev.Tools
			rec.SessionId = prev.SessionId
		}
		if err := agents.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("record assistant %s: %w", ra.ID, err)
		}
	}

	removed := 0
	for id := range byRemote {
		if !live[id] {
			removed++
		}
	}

	stores := uow.VectorStoreRepository()
	if err := stores.DeleteAll(ctx); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(remoteStores))
	for _, rs := range remoteStores {
		// Names are unique locally; the first store with a name wins, like the name scan.
		if seen[rs.Name] {
			continue
		}
		seen[rs.Name] = true
		if err := stores.Create(ctx, &entity.VectorStore{RemoteId: rs.ID, Name: rs.Name}); err != nil {
			return nil, fmt.Errorf("record vector store %s: %w", rs.ID, err)
		}
	}

	return &RefreshReport{
		Assistants:   len(remoteAgents),
		VectorStores: len(seen),
		Removed:      removed,
	}, nil
}

func (s *registryService) FindAgentsByName(ctx context.Context, name string) ([]*entity.Agent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agents, err := uow.AgentRepository().FindAll(ctx,
		specification.ByName{Name: name},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.find_agents", err)
	}
	return agents, nil
}

func (s *registryService) FindAgentByRemoteID(ctx context.Context, remoteID string) (*entity.Agent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agent, err := uow.AgentRepository().FindOne(ctx, specification.ByRemoteID{RemoteID: remoteID})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.find_agent", err)
	}
	return agent, nil
}

func (s *registryService) SessionAgents(ctx context.Context, sessionID string) ([]*entity.Agent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agents, err := uow.AgentRepository().FindAll(ctx,
		specification.BySession{SessionID: sessionID},
		specification.ReservedOnly{Reserved: false},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.session_agents", err)
	}
	return agents, nil
}

func (s *registryService) AllAgents(ctx context.Context) ([]*entity.Agent, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agents, err := uow.AgentRepository().FindAll(ctx, specification.OrderBy{Field: "created_at"})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.all_agents", err)
	}
	return agents, nil
}

func (s *registryService) RecordAgent(ctx context.Context, agent *entity.Agent) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AgentRepository().Create(ctx, agent); err != nil {
		return apperr.Wrap(apperr.KindInternal, "registry.record_agent", err)
	}
	return nil
}

func (s *registryService) ForgetAgent(ctx context.Context, remoteID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AgentRepository().DeleteByRemoteID(ctx, remoteID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "registry.forget_agent", err)
	}
	return nil
}

func (s *registryService) FindStoreByName(ctx context.Context, name string) (*entity.VectorStore, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	store, err := uow.VectorStoreRepository().FindOne(ctx, specification.ByName{Name: name})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.find_store", err)
	}
	return store, nil
}

func (s *registryService) RecordStore(ctx context.Context, store *entity.VectorStore) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.VectorStoreRepository().Create(ctx, store); err != nil {
		return apperr.Wrap(apperr.KindInternal, "registry.record_store", err)
	}
	return nil
}

func (s *registryService) FindDocument(ctx context.Context, storeID, filename string) (*entity.DocumentRef, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByStore{StoreRemoteID: storeID},
		specification.ByFilename{Filename: filename},
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.find_document", err)
	}
	return doc, nil
}

func (s *registryService) Documents(ctx context.Context, storeID string) ([]*entity.DocumentRef, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByStore{StoreRemoteID: storeID},
		specification.OrderBy{Field: "filename"},
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "registry.documents", err)
	}
	return docs, nil
}

func (s *registryService) RecordDocument(ctx context.Context, doc *entity.DocumentRef) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Upsert(ctx, doc); err != nil {
		return apperr.Wrap(apperr.KindInternal, "registry.record_document", err)
	}
	return nil
}

func (s *registryService) ForgetDocument(ctx context.Context, storeID, filename string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().DeleteByFilename(ctx, storeID, filename); err != nil {
		return apperr.Wrap(apperr.KindInternal, "registry.forget_document", err)
	}
	return nil
}
