package service

import (
	"context"
	"strings"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/pkg/events"
)

// IAdminService groups the maintenance operations exposed to operators
// through the admin API and the CLI.
type IAdminService interface {
	RefreshRegistry(ctx context.Context) (*RefreshReport, error)
	// SyncDocuments uploads the PDFs of dir, or of the configured directory
	// when dir is empty.
	SyncDocuments(ctx context.Context, dir string) (*SyncReport, error)
	Documents(ctx context.Context) ([]*entity.DocumentRef, error)
	PurgeAgents(ctx context.Context, keepReserved bool) (int, error)
}

type adminService struct {
	registry  IRegistryService
	sync      IDocumentSyncService
	agents    IAgentService
	publisher events.Publisher
	storeID   string
	pdfDir    string
	logger    logger.ILogger
}

func NewAdminService(
	registry IRegistryService,
	sync IDocumentSyncService,
	agents IAgentService,
	publisher events.Publisher,
	storeID string,
	pdfDir string,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		registry:  registry,
		sync:      sync,
		agents:    agents,
		publisher: publisher,
		storeID:   storeID,
		pdfDir:    pdfDir,
		logger:    log,
	}
}

func (s *adminService) RefreshRegistry(ctx context.Context) (*RefreshReport, error) {
	return s.registry.Refresh(ctx)
}

func (s *adminService) SyncDocuments(ctx context.Context, dir string) (*SyncReport, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = s.pdfDir
	}
	if dir == "" {
		return nil, apperr.New(apperr.KindValidation, "admin.sync", "no document directory configured")
	}
	return s.sync.Sync(ctx, s.storeID, dir)
}

func (s *adminService) Documents(ctx context.Context) ([]*entity.DocumentRef, error) {
	return s.registry.Documents(ctx, s.storeID)
}

func (s *adminService) PurgeAgents(ctx context.Context, keepReserved bool) (int, error) {
	deleted, err := s.agents.PurgeAll(ctx, keepReserved)
	if err != nil {
		return deleted, err
	}
	if err := s.publisher.Publish(ctx, events.New(events.TypeAgentsPurged, map[string]interface{}{
		"deleted":       deleted,
		"keep_reserved": keepReserved,
	})); err != nil {
		s.logger.Warn("ADMIN", "Failed to publish purge event", map[string]interface{}{"error": err.Error()})
	}
	return deleted, nil
}
