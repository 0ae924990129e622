package model

import (
	"time"

	"github.com/google/uuid"
)

type VectorStoreRecord struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RemoteId  string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VectorStoreRecord) TableName() string {
	return "vector_store_records"
}

type DocumentRecord struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreRemoteId string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_document_store_filename"`
	Filename      string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_document_store_filename"`
	RemoteFileId  string    `gorm:"type:varchar(128);not null"`
	Checksum      string    `gorm:"type:char(64)"`
	Pages         int
	SyncedAt      time.Time
}

func (DocumentRecord) TableName() string {
	return "document_records"
}

// RegistryModels lists the tables migrated at startup.
func RegistryModels() []interface{} {
	return []interface{}{&AgentRecord{}, &VectorStoreRecord{}, &DocumentRecord{}}
}
