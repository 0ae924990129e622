package specification

import "gorm.io/gorm"

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

type ByRemoteID struct {
	RemoteID string
}

func (s ByRemoteID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("remote_id = ?", s.RemoteID)
}

// BySession matches agents created for a session.
type BySession struct {
	SessionID string
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ReservedOnly struct {
	Reserved bool
}

func (s ReservedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reserved = ?", s.Reserved)
}

type ByStore struct {
	StoreRemoteID string
}

func (s ByStore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("store_remote_id = ?", s.StoreRemoteID)
}

type ByFilename struct {
	Filename string
}

func (s ByFilename) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("filename = ?", s.Filename)
}
