package assistant

import (
	"context"
)

// Client defines the contract for any hosted assistant backend.
// It mirrors the remote capabilities the review flow depends on:
// assistants, vector stores, files, threads, messages and runs.
type Client interface {
	ListAssistants(ctx context.Context) ([]Assistant, error)
	CreateAssistant(ctx context.Context, spec AssistantSpec) (Assistant, error)
	RetrieveAssistant(ctx context.Context, assistantID string) (Assistant, error)
	DeleteAssistant(ctx context.Context, assistantID string) error

	ListVectorStores(ctx context.Context) ([]VectorStore, error)
	CreateVectorStore(ctx context.Context, name string) (VectorStore, error)
	ListStoreFiles(ctx context.Context, storeID string) ([]StoreFile, error)
	// UploadStoreFile uploads the bytes as a file and attaches it to the store.
	UploadStoreFile(ctx context.Context, storeID, filename string, data []byte) (StoreFile, error)
	DeleteStoreFile(ctx context.Context, storeID, fileID string) error

	ListFiles(ctx context.Context) ([]RemoteFile, error)
	RetrieveFile(ctx context.Context, fileID string) (RemoteFile, error)
	DeleteFile(ctx context.Context, fileID string) error

	CreateThread(ctx context.Context, spec ThreadSpec) (Thread, error)
	// AddMessage appends a user turn to the thread.
	AddMessage(ctx context.Context, threadID, content string) (Message, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	// ListMessages returns the thread messages, newest first.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
