package dto

import (
	"time"

	"ethics-review-be/internal/entity"
)

type SyncDocumentsRequest struct {
	// Dir overrides the configured document directory.
	Dir string `json:"dir"`
}

type PurgeAgentsRequest struct {
	KeepReserved bool `json:"keep_reserved"`
}

type PurgeAgentsResponse struct {
	Deleted int `json:"deleted"`
}

type DocumentResponse struct {
	Filename string    `json:"filename"`
	FileId   string    `json:"file_id"`
	Checksum string    `json:"checksum"`
	Pages    int       `json:"pages"`
	SyncedAt time.Time `json:"synced_at"`
}

func NewDocumentResponses(docs []*entity.DocumentRef) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentResponse{
			Filename: d.Filename,
			FileId:   d.RemoteFileId,
			Checksum: d.Checksum,
			Pages:    d.Pages,
			SyncedAt: d.SyncedAt,
		})
	}
	return out
}
