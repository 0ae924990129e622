package dto

import (
	"time"

	"ethics-review-be/internal/entity"
)

type CreateAgentRequest struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=100"`
	Role string `json:"role" form:"role"`
}

type AgentResponse struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Model    string `json:"model"`
	Reserved bool   `json:"reserved"`
}

type AssessRequest struct {
	Description string `json:"description" form:"description" validate:"required,notblank"`
}

type ConverseRequest struct {
	Rounds int `json:"rounds" form:"rounds" validate:"required,min=1,max=10"`
}

type ReviewRequest struct {
	Description string `json:"description" form:"description" validate:"required,notblank"`
	Rounds      int    `json:"rounds" form:"rounds" validate:"required,min=1,max=10"`
}

type SessionResponse struct {
	Id           string                   `json:"id"`
	State        entity.SessionState      `json:"state"`
	Description  string                   `json:"description"`
	Rounds       int                      `json:"rounds"`
	Agents       []AgentResponse          `json:"agents"`
	Verdict      *entity.RiskVerdict      `json:"verdict,omitempty"`
	Transcript   []entity.TranscriptEntry `json:"transcript"`
	CanElaborate bool                     `json:"can_elaborate"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func NewAgentResponse(a *entity.Agent) AgentResponse {
	return AgentResponse{
		Id:       a.RemoteId,
		Name:     a.Name,
		Role:     a.Role,
		Model:    a.Model,
		Reserved: a.Reserved,
	}
}

func NewSessionResponse(s *entity.ReviewSession) *SessionResponse {
	agents := make([]AgentResponse, 0, len(s.Agents))
	for _, a := range s.Agents {
		agents = append(agents, NewAgentResponse(a))
	}
	// Copies, so the response outlives the session lock.
	transcript := append([]entity.TranscriptEntry{}, s.Transcript...)
	var verdict *entity.RiskVerdict
	if s.Verdict != nil {
		v := *s.Verdict
		verdict = &v
	}
	return &SessionResponse{
		Id:           s.Id,
		State:        s.State,
		Description:  s.Description,
		Rounds:       s.Rounds,
		Agents:       agents,
		Verdict:      verdict,
		Transcript:   transcript,
		CanElaborate: s.CanElaborate(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

type CreateSessionResponse struct {
	// Token is the signed session id, usable as a bearer token.
	Token   string           `json:"token"`
	Session *SessionResponse `json:"session"`
}
