package entity

import (
	"time"

	"github.com/google/uuid"
)

type VectorStore struct {
	Id        uuid.UUID
	RemoteId  string
	Name      string
	CreatedAt time.Time
}

// DocumentRef is a source document attached to a vector store, keyed by
// filename within the store.
type DocumentRef struct {
	Id            uuid.UUID
	StoreRemoteId string
	Filename      string
	RemoteFileId  string
	Checksum      string
	Pages         int
	SyncedAt      time.Time
}
