package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AgentRecord struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	RemoteId  string                      `gorm:"type:varchar(128);not null;uniqueIndex"`
	Name      string                      `gorm:"type:varchar(255);not null;index"`
	Role      string                      `gorm:"type:text"`
	Model     string                      `gorm:"type:varchar(128)"`
	Tools     datatypes.JSONSlice[string] `gorm:"type:json"`
	SessionId string                      `gorm:"type:varchar(64);index"`
	Reserved  bool                        `gorm:"not null;default:false"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
}

func (AgentRecord) TableName() string {
	return "agent_records"
}
