package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/internal/service"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/assistant/memory"
	"ethics-review-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDocumentSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()
	writeFile(t, dir, "AI_Act.pdf", "%PDF act")
	writeFile(t, dir, "Guidelines.PDF", "%PDF guidelines")
	writeFile(t, dir, "notes.txt", "not a pdf")

	recorder := &events.Recorder{}
	sync := service.NewDocumentSyncService(f.client, f.registry, stubInspector{}, recorder, f.log)

	first, err := sync.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI_Act.pdf", "Guidelines.PDF"}, first.Uploaded)
	assert.Empty(t, first.Failed)

	second, err := sync.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)
	assert.Empty(t, second.Uploaded)
	assert.Empty(t, second.Replaced)
	assert.Equal(t, []string{"AI_Act.pdf", "Guidelines.PDF"}, second.Unchanged)

	assert.ElementsMatch(t, []string{"AI_Act.pdf", "Guidelines.PDF"}, f.client.StoreFilenames(f.settings.StoreID))
	assert.Equal(t, []string{events.TypeDocumentsSynced, events.TypeDocumentsSynced}, recorder.Types())
}

func TestDocumentSyncReplacesChangedFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()
	writeFile(t, dir, "AI_Act.pdf", "%PDF v1")

	sync := service.NewDocumentSyncService(f.client, f.registry, stubInspector{}, events.NopPublisher{}, f.log)
	_, err := sync.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)

	writeFile(t, dir, "AI_Act.pdf", "%PDF v2")
	report, err := sync.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI_Act.pdf"}, report.Replaced)
	assert.Equal(t, []string{"AI_Act.pdf"}, f.client.StoreFilenames(f.settings.StoreID))

	files, err := f.client.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	doc, err := f.registry.FindDocument(ctx, f.settings.StoreID, "AI_Act.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, files[0].ID, doc.RemoteFileId)
}

type failingUploads struct {
	*memory.Client
}

func (failingUploads) UploadStoreFile(ctx context.Context, storeID, filename string, data []byte) (assistant.StoreFile, error) {
	return assistant.StoreFile{}, errors.New("upload refused")
}

type failingForget struct {
	service.IRegistryService
}

func (failingForget) ForgetDocument(ctx context.Context, storeID, filename string) error {
	return errors.New("registry unavailable")
}

// warnLog keeps the messages of Warn entries.
type warnLog struct {
	*logger.ZapLogger
	mu    sync.Mutex
	warns []string
}

func (l *warnLog) Warn(module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, message)
}

func TestDocumentSyncLogsFailedForget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()
	writeFile(t, dir, "AI_Act.pdf", "%PDF v1")

	first := service.NewDocumentSyncService(f.client, f.registry, stubInspector{}, events.NopPublisher{}, f.log)
	_, err := first.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)

	writeFile(t, dir, "AI_Act.pdf", "%PDF v2")
	log := &warnLog{ZapLogger: logger.NewNopLogger()}
	syncer := service.NewDocumentSyncService(failingUploads{f.client}, failingForget{f.registry}, stubInspector{}, events.NopPublisher{}, log)
	report, err := syncer.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "upload refused", report.Failed[0].Error)
	assert.Contains(t, log.warns, "Failed to forget replaced document")
}

func TestDocumentSyncRemovesDuplicateRemoteNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.client.UploadStoreFile(ctx, f.settings.StoreID, "AI_Act.pdf", []byte("old 1"))
	require.NoError(t, err)
	_, err = f.client.UploadStoreFile(ctx, f.settings.StoreID, "AI_Act.pdf", []byte("old 2"))
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "AI_Act.pdf", "%PDF new")

	sync := service.NewDocumentSyncService(f.client, f.registry, stubInspector{}, events.NopPublisher{}, f.log)
	report, err := sync.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI_Act.pdf"}, report.Replaced)
	assert.Equal(t, []string{"AI_Act.pdf"}, f.client.StoreFilenames(f.settings.StoreID))
}

func TestDocumentSyncReportsBrokenFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()
	writeFile(t, dir, "good.pdf", "%PDF good")
	writeFile(t, dir, "broken.pdf", "garbage")

	inspector := stubInspector{reject: map[string]bool{"broken.pdf": true}}
	sync := service.NewDocumentSyncService(f.client, f.registry, inspector, events.NopPublisher{}, f.log)
	report, err := sync.Sync(ctx, f.settings.StoreID, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"good.pdf"}, report.Uploaded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken.pdf", report.Failed[0].Filename)
}

func TestDocumentSyncMissingDirectory(t *testing.T) {
	f := newFixture(t)
	sync := service.NewDocumentSyncService(f.client, f.registry, stubInspector{}, events.NopPublisher{}, f.log)

	_, err := sync.Sync(context.Background(), f.settings.StoreID, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLocalFile))
}

func TestVectorStoreCreateOrGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stores := service.NewVectorStoreService(f.client, f.registry, f.log)

	// Created remotely by the fixture, unknown to the registry.
	found, existed, err := stores.CreateOrGet(ctx, "eu-ai-act")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, f.settings.StoreID, found.RemoteId)

	created, existed, err := stores.CreateOrGet(ctx, "guidelines")
	require.NoError(t, err)
	assert.False(t, existed)

	again, existed, err := stores.CreateOrGet(ctx, "guidelines")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, created.RemoteId, again.RemoteId)
	assert.Equal(t, 2, f.client.Calls["CreateVectorStore"])

	_, _, err = stores.CreateOrGet(ctx, " ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
