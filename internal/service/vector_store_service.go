package service

import (
	"context"
	"strings"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/pkg/assistant"
)

type IVectorStoreService interface {
	// CreateOrGet returns the store named name, creating it when missing.
	// existed is only meaningful when err is nil.
	CreateOrGet(ctx context.Context, name string) (store *entity.VectorStore, existed bool, err error)
}

type vectorStoreService struct {
	client   assistant.Client
	registry IRegistryService
	logger   logger.ILogger
}

func NewVectorStoreService(client assistant.Client, registry IRegistryService, log logger.ILogger) IVectorStoreService {
	return &vectorStoreService{
		client:   client,
		registry: registry,
		logger:   log,
	}
}

func (s *vectorStoreService) CreateOrGet(ctx context.Context, name string) (*entity.VectorStore, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperr.New(apperr.KindValidation, "vector_store.create", "vector store name is required")
	}

	known, err := s.registry.FindStoreByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if known != nil {
		s.logger.Info("VECTOR_STORE", "Vector store already exists", map[string]interface{}{"name": name, "id": known.RemoteId})
		return known, true, nil
	}

	remote, err := s.client.ListVectorStores(ctx)
	if err != nil {
		s.logger.Error("VECTOR_STORE", "Failed to list vector stores", map[string]interface{}{"error": err.Error()})
		return nil, false, apperr.Classify("vector_store.list", err)
	}
	for _, vs := range remote {
		if vs.Name == name {
			store := &entity.VectorStore{RemoteId: vs.ID, Name: vs.Name}
			if err := s.registry.RecordStore(ctx, store); err != nil {
				return nil, false, err
			}
			s.logger.Info("VECTOR_STORE", "Vector store already exists", map[string]interface{}{"name": name, "id": vs.ID})
			return store, true, nil
		}
	}

	created, err := s.client.CreateVectorStore(ctx, name)
	if err != nil {
		s.logger.Error("VECTOR_STORE", "Failed to create vector store", map[string]interface{}{"name": name, "error": err.Error()})
		return nil, false, apperr.Classify("vector_store.create", err)
	}
	store := &entity.VectorStore{RemoteId: created.ID, Name: created.Name}
	if err := s.registry.RecordStore(ctx, store); err != nil {
		return nil, false, err
	}

	s.logger.Info("VECTOR_STORE", "Vector store created", map[string]interface{}{"name": name, "id": created.ID})
	return store, false, nil
}
