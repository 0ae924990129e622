package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/document"
	"ethics-review-be/pkg/events"
)

type SyncFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type SyncReport struct {
	StoreID   string        `json:"store_id"`
	Uploaded  []string      `json:"uploaded"`
	Replaced  []string      `json:"replaced"`
	Unchanged []string      `json:"unchanged"`
	Failed    []SyncFailure `json:"failed"`
}

type IDocumentSyncService interface {
	// Sync uploads every PDF in dir to the store, replacing same-named files.
	// Per-file problems end up in the report; listing errors abort.
	Sync(ctx context.Context, storeID, dir string) (*SyncReport, error)
}

type documentSyncService struct {
	client    assistant.Client
	registry  IRegistryService
	inspector document.Inspector
	publisher events.Publisher
	logger    logger.ILogger
}

func NewDocumentSyncService(
	client assistant.Client,
	registry IRegistryService,
	inspector document.Inspector,
	publisher events.Publisher,
	log logger.ILogger,
) IDocumentSyncService {
	return &documentSyncService{
		client:    client,
		registry:  registry,
		inspector: inspector,
		publisher: publisher,
		logger:    log,
	}
}

func (s *documentSyncService) Sync(ctx context.Context, storeID, dir string) (*SyncReport, error) {
	paths, err := listPDFs(dir)
	if err != nil {
		s.logger.Error("DOCUMENT_SYNC", "Failed to read document directory", map[string]interface{}{"dir": dir, "error": err.Error()})
		return nil, apperr.Wrap(apperr.KindLocalFile, "document.sync", err)
	}

	existing, err := s.remoteNames(ctx, storeID)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{
		StoreID:   storeID,
		Uploaded:  []string{},
		Replaced:  []string{},
		Unchanged: []string{},
		Failed:    []SyncFailure{},
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, apperr.Classify("document.sync", err)
		}
		s.syncFile(ctx, storeID, path, existing, report)
	}

	s.logger.Info("DOCUMENT_SYNC", "Document sync finished", map[string]interface{}{
		"store_id":  storeID,
		"uploaded":  len(report.Uploaded),
		"replaced":  len(report.Replaced),
		"unchanged": len(report.Unchanged),
		"failed":    len(report.Failed),
	})

	if err := s.publisher.Publish(ctx, events.New(events.TypeDocumentsSynced, map[string]interface{}{
		"store_id":  storeID,
		"uploaded":  len(report.Uploaded),
		"replaced":  len(report.Replaced),
		"unchanged": len(report.Unchanged),
		"failed":    len(report.Failed),
	})); err != nil {
		s.logger.Warn("DOCUMENT_SYNC", "Failed to publish sync event", map[string]interface{}{"error": err.Error()})
	}
	return report, nil
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// remoteNames maps filename to file id for the store, using one global file
// listing. Extra files sharing a name are removed so the store holds one
// file per name.
func (s *documentSyncService) remoteNames(ctx context.Context, storeID string) (map[string]string, error) {
	storeFiles, err := s.client.ListStoreFiles(ctx, storeID)
	if err != nil {
		s.logger.Error("DOCUMENT_SYNC", "Failed to list store files", map[string]interface{}{"store_id": storeID, "error": err.Error()})
		return nil, apperr.Classify("document.list_store_files", err)
	}
	if len(storeFiles) == 0 {
		return map[string]string{}, nil
	}

	files, err := s.client.ListFiles(ctx)
	if err != nil {
		s.logger.Error("DOCUMENT_SYNC", "Failed to list files", map[string]interface{}{"error": err.Error()})
		return nil, apperr.Classify("document.list_files", err)
	}
	nameByID := make(map[string]string, len(files))
	for _, f := range files {
		nameByID[f.ID] = f.Filename
	}

	byName := make(map[string]string, len(storeFiles))
	for _, sf := range storeFiles {
		name, ok := nameByID[sf.ID]
		if !ok {
			s.logger.Warn("DOCUMENT_SYNC", "Store file has no file object", map[string]interface{}{"file_id": sf.ID})
			continue
		}
		if _, dup := byName[name]; dup {
			if err := s.client.DeleteFile(ctx, sf.ID); err != nil && !errors.Is(err, assistant.ErrNotFound) {
				s.logger.Warn("DOCUMENT_SYNC", "Failed to remove duplicate file", map[string]interface{}{"filename": name, "file_id": sf.ID, "error": err.Error()})
			}
			continue
		}
		byName[name] = sf.ID
	}
	return byName, nil
}

func (s *documentSyncService) syncFile(ctx context.Context, storeID, path string, existing map[string]string, report *SyncReport) {
	name := filepath.Base(path)
	fail := func(msg string, err error) {
		s.logger.Error("DOCUMENT_SYNC", msg, map[string]interface{}{"filename": name, "error": err.Error()})
		report.Failed = append(report.Failed, SyncFailure{Filename: name, Error: err.Error()})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fail("Failed to read file", err)
		return
	}
	info, err := s.inspector.Inspect(name, data)
	if err != nil {
		fail("Skipping unreadable PDF", err)
		return
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	oldID, replacing := existing[name]
	if replacing {
		known, err := s.registry.FindDocument(ctx, storeID, name)
		if err != nil {
			fail("Failed to look up document record", err)
			return
		}
		if known != nil && known.Checksum == checksum && known.RemoteFileId == oldID {
			report.Unchanged = append(report.Unchanged, name)
			return
		}

		if err := s.client.DeleteFile(ctx, oldID); err != nil && !errors.Is(err, assistant.ErrNotFound) {
			fail("Failed to delete existing file", err)
			return
		}
		s.logger.Info("DOCUMENT_SYNC", "Deleted existing file", map[string]interface{}{"filename": name, "file_id": oldID})
	}

	uploaded, err := s.client.UploadStoreFile(ctx, storeID, name, data)
	if err != nil {
		if replacing {
			if ferr := s.registry.ForgetDocument(ctx, storeID, name); ferr != nil {
				s.logger.Warn("DOCUMENT_SYNC", "Failed to forget replaced document", map[string]interface{}{
					"filename": name, "error": ferr.Error(),
				})
			}
		}
		fail("Failed to upload file", err)
		return
	}
	existing[name] = uploaded.ID

	if err := s.registry.RecordDocument(ctx, &entity.DocumentRef{
		StoreRemoteId: storeID,
		Filename:      name,
		RemoteFileId:  uploaded.ID,
		Checksum:      checksum,
		Pages:         info.Pages,
		SyncedAt:      time.Now(),
	}); err != nil {
		s.logger.Warn("DOCUMENT_SYNC", "Uploaded file but failed to record it", map[string]interface{}{"filename": name, "error": err.Error()})
	}

	s.logger.Info("DOCUMENT_SYNC", "Uploaded file", map[string]interface{}{"filename": name, "file_id": uploaded.ID, "pages": info.Pages})
	if replacing {
		report.Replaced = append(report.Replaced, name)
	} else {
		report.Uploaded = append(report.Uploaded, name)
	}
}
