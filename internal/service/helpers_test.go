package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ethics-review-be/internal/model"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/internal/repository/unitofwork"
	"ethics-review-be/internal/service"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/assistant/memory"
	"ethics-review-be/pkg/database"
	"ethics-review-be/pkg/document"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	client   *memory.Client
	registry service.IRegistryService
	agents   service.IAgentService
	log      logger.ILogger
	settings service.ReviewSettings
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", true)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.RegistryModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	client := memory.NewClient(opts...)
	log := logger.NewNopLogger()
	registry := service.NewRegistryService(unitofwork.NewRepositoryFactory(db), client, log)

	store, err := client.CreateVectorStore(context.Background(), "eu-ai-act")
	require.NoError(t, err)

	return &fixture{
		client:   client,
		registry: registry,
		agents:   service.NewAgentService(client, registry, log),
		log:      log,
		settings: service.ReviewSettings{
			Model:   "gpt-4o-mini",
			StoreID: store.ID,
			Poll: assistant.PollConfig{
				InitialInterval: time.Millisecond,
				MaxInterval:     2 * time.Millisecond,
				Timeout:         time.Second,
			},
			MaxRounds: 10,
		},
	}
}

// lastUserText returns the newest user turn of a thread.
func lastUserText(thread []assistant.Message) string {
	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].Role == assistant.RoleUser {
			return thread[i].Text
		}
	}
	return ""
}

var errBrokenPDF = errors.New("malformed PDF")

// stubInspector accepts every document except the ones named in reject.
type stubInspector struct {
	reject map[string]bool
}

func (s stubInspector) Inspect(name string, data []byte) (document.Info, error) {
	if s.reject[name] {
		return document.Info{}, errBrokenPDF
	}
	return document.Info{Pages: 1}, nil
}
