package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type SessionState string

const (
	StateAwaitingDescription SessionState = "awaiting_description"
	StateAwaitingRiskVerdict SessionState = "awaiting_risk_verdict"
	StateConversationActive  SessionState = "conversation_active"
	StateBlockedUnacceptable SessionState = "blocked_unacceptable"
	StateIdle                SessionState = "idle"
)

var ErrInvalidTransition = errors.New("invalid session state transition")

type EntryKind string

const (
	EntryVerdict  EntryKind = "verdict"
	EntryRound    EntryKind = "round"
	EntryResponse EntryKind = "response"
)

// TranscriptEntry is one line of the conversation history.
type TranscriptEntry struct {
	Seq       int             `json:"seq"`
	Kind      EntryKind       `json:"kind"`
	Round     int             `json:"round"`
	Speaker   string          `json:"speaker,omitempty"`
	Text      string          `json:"text"`
	Citations []EntryCitation `json:"citations,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type EntryCitation struct {
	Index    int    `json:"index"`
	FileId   string `json:"file_id"`
	Filename string `json:"filename"`
}

// Line renders the entry the way the exported history shows it.
func (e TranscriptEntry) Line() string {
	if e.Kind == EntryRound {
		return fmt.Sprintf("ROUND: %d", e.Round)
	}
	return fmt.Sprintf("%s: %s", e.Speaker, e.Text)
}

type RiskVerdict struct {
	Category      string          `json:"category"`
	Label         string          `json:"label"`
	Justification string          `json:"justification"`
	Color         string          `json:"color"`
	Blocking      bool            `json:"blocking"`
	PreScreened   bool            `json:"pre_screened"`
	Citations     []EntryCitation `json:"citations,omitempty"`
	// Raw is the verdict in the classifier output shape.
	Raw string `json:"raw,omitempty"`
}

// ReviewSession holds everything one user works on. It is only mutated by the
// handler holding the session lock.
type ReviewSession struct {
	Id          string
	State       SessionState
	Description string
	Rounds      int
	Agents      []*Agent
	Verdict     *RiskVerdict
	Transcript  []TranscriptEntry
	Elaborated  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewReviewSession(id string, now time.Time) *ReviewSession {
	return &ReviewSession{
		Id:        id,
		State:     StateAwaitingDescription,
		Rounds:    1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *ReviewSession) transition(to SessionState, allowed ...SessionState) error {
	for _, from := range allowed {
		if s.State == from {
			s.State = to
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, to)
}

// SubmitDescription stores the description and waits for a verdict. A new
// description resets the verdict and transcript, from any state: callers hold
// the session lock, so no turn is running.
func (s *ReviewSession) SubmitDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return errors.New("description must not be empty")
	}
	if err := s.transition(StateAwaitingRiskVerdict,
		StateAwaitingDescription, StateAwaitingRiskVerdict, StateConversationActive,
		StateBlockedUnacceptable, StateIdle); err != nil {
		return err
	}
	s.Description = description
	s.Verdict = nil
	s.Transcript = nil
	s.Elaborated = false
	return nil
}

// ApplyVerdict records the verdict and moves to the conversation or the
// blocked state.
func (s *ReviewSession) ApplyVerdict(v RiskVerdict) error {
	to := StateConversationActive
	if v.Blocking {
		to = StateBlockedUnacceptable
	}
	if err := s.transition(to, StateAwaitingRiskVerdict); err != nil {
		return err
	}
	s.Verdict = &v
	return nil
}

// ResumeConversation re-enters the conversation for another run over the
// same description and verdict. Only the verdict entries of the previous
// transcript are kept.
func (s *ReviewSession) ResumeConversation() error {
	if s.Verdict == nil || s.Verdict.Blocking {
		return fmt.Errorf("%w: no allowing verdict", ErrInvalidTransition)
	}
	if err := s.transition(StateConversationActive, StateIdle, StateConversationActive); err != nil {
		return err
	}
	var kept []TranscriptEntry
	for _, e := range s.Transcript {
		if e.Kind == EntryVerdict {
			e.Seq = len(kept) + 1
			kept = append(kept, e)
		}
	}
	s.Transcript = kept
	return nil
}

// FinishConversation moves an active conversation to idle, successful or not.
func (s *ReviewSession) FinishConversation() error {
	return s.transition(StateIdle, StateConversationActive)
}

// CanElaborate reports whether the one-shot elaboration is still available.
func (s *ReviewSession) CanElaborate() bool {
	return s.State == StateBlockedUnacceptable && !s.Elaborated
}

// FinishElaboration marks the elaboration as spent and moves to idle.
func (s *ReviewSession) FinishElaboration() error {
	if s.Elaborated {
		return fmt.Errorf("%w: elaboration already given", ErrInvalidTransition)
	}
	if err := s.transition(StateIdle, StateBlockedUnacceptable); err != nil {
		return err
	}
	s.Elaborated = true
	return nil
}

// Append adds an entry to the transcript, assigning its sequence number.
func (s *ReviewSession) Append(e TranscriptEntry) TranscriptEntry {
	e.Seq = len(s.Transcript) + 1
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.Transcript = append(s.Transcript, e)
	s.UpdatedAt = e.CreatedAt
	return e
}

// Ethicist returns the reserved ethicist from the roster, if present.
func (s *ReviewSession) Ethicist() *Agent {
	for _, a := range s.Agents {
		if IsEthicistName(a.Name) {
			return a
		}
	}
	return nil
}

// FindAgent looks up a roster member by remote id.
func (s *ReviewSession) FindAgent(remoteID string) (*Agent, int) {
	for i, a := range s.Agents {
		if a.RemoteId == remoteID {
			return a, i
		}
	}
	return nil, -1
}

// HasAgentNamed reports whether the roster already holds name (case-insensitive).
func (s *ReviewSession) HasAgentNamed(name string) bool {
	for _, a := range s.Agents {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// SpeakingOrder returns the roster with the ethicist moved to the end. The
// relative order of other agents is kept.
func (s *ReviewSession) SpeakingOrder() []*Agent {
	order := make([]*Agent, 0, len(s.Agents))
	var last []*Agent
	for _, a := range s.Agents {
		if IsEthicistName(a.Name) {
			last = append(last, a)
			continue
		}
		order = append(order, a)
	}
	return append(order, last...)
}
