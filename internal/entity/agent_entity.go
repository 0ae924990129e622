package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EthicistName is the reserved agent present in every session roster.
const EthicistName = "AI Ethicist"

var reservedMarkers = []string{"ai ethicist", "riskguard"}

// IsReservedName reports whether name belongs to a reserved agent. The match
// is a case-insensitive substring check.
func IsReservedName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range reservedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsEthicistName reports whether name is the reserved ethicist.
func IsEthicistName(name string) bool {
	return strings.Contains(strings.ToLower(name), "ai ethicist")
}

// IsClassifierName reports whether name collides with the risk classifier.
func IsClassifierName(name string) bool {
	return strings.Contains(strings.ToLower(name), "riskguard")
}

type Agent struct {
	Id        uuid.UUID
	RemoteId  string
	Name      string
	Role      string
	Model     string
	Tools     []string
	SessionId string // empty for agents shared across sessions
	Reserved  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}
