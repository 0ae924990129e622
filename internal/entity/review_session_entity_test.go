package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReservedName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"AI Ethicist", true},
		{"senior ai ethicist", true},
		{"RiskGuardAI", true},
		{"riskguard-clone", true},
		{"Software Architect", false},
		{"Ethicist", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReservedName(tt.name))
		})
	}
}

func TestSessionAllowedFlow(t *testing.T) {
	s := NewReviewSession("s1", time.Now())
	require.Equal(t, StateAwaitingDescription, s.State)

	require.NoError(t, s.SubmitDescription("  library chatbot "))
	assert.Equal(t, "library chatbot", s.Description)
	assert.Equal(t, StateAwaitingRiskVerdict, s.State)

	require.NoError(t, s.ApplyVerdict(RiskVerdict{Category: "Minimal Risk"}))
	assert.Equal(t, StateConversationActive, s.State)
	assert.False(t, s.CanElaborate())

	require.NoError(t, s.FinishConversation())
	assert.Equal(t, StateIdle, s.State)

	s.Append(TranscriptEntry{Kind: EntryRound, Round: 1})
	require.NoError(t, s.ResumeConversation())
	assert.Equal(t, StateConversationActive, s.State)
	assert.Empty(t, s.Transcript)
}

func TestResumeConversationKeepsVerdictEntries(t *testing.T) {
	s := NewReviewSession("s1", time.Now())
	require.NoError(t, s.SubmitDescription("chatbot"))
	require.NoError(t, s.ApplyVerdict(RiskVerdict{Category: "Minimal Risk"}))
	s.Append(TranscriptEntry{Kind: EntryVerdict, Speaker: "RiskGuard", Text: "minimal"})
	s.Append(TranscriptEntry{Kind: EntryRound, Round: 1})
	s.Append(TranscriptEntry{Kind: EntryResponse, Round: 1, Speaker: "Tester", Text: "ok"})
	require.NoError(t, s.FinishConversation())

	require.NoError(t, s.ResumeConversation())
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, EntryVerdict, s.Transcript[0].Kind)
	assert.Equal(t, "RiskGuard: minimal", s.Transcript[0].Line())
}

func TestSessionBlockedFlow(t *testing.T) {
	s := NewReviewSession("s1", time.Now())
	require.NoError(t, s.SubmitDescription("facial recognition"))
	require.NoError(t, s.ApplyVerdict(RiskVerdict{Category: "Unacceptable Risk", Blocking: true}))
	assert.Equal(t, StateBlockedUnacceptable, s.State)

	assert.ErrorIs(t, s.ResumeConversation(), ErrInvalidTransition)
	assert.ErrorIs(t, s.FinishConversation(), ErrInvalidTransition)

	require.True(t, s.CanElaborate())
	require.NoError(t, s.FinishElaboration())
	assert.Equal(t, StateIdle, s.State)
	assert.False(t, s.CanElaborate())
	assert.ErrorIs(t, s.FinishElaboration(), ErrInvalidTransition)
}

func TestSubmitDescriptionFromEveryState(t *testing.T) {
	for _, state := range []SessionState{
		StateAwaitingDescription,
		StateAwaitingRiskVerdict,
		StateConversationActive,
		StateBlockedUnacceptable,
		StateIdle,
	} {
		t.Run(string(state), func(t *testing.T) {
			s := NewReviewSession("s1", time.Now())
			s.State = state
			s.Verdict = &RiskVerdict{Category: "Unacceptable Risk", Blocking: true}
			s.Elaborated = true
			s.Append(TranscriptEntry{Kind: EntryVerdict, Speaker: "RiskGuard", Text: "old"})

			require.NoError(t, s.SubmitDescription("new system"))
			assert.Equal(t, StateAwaitingRiskVerdict, s.State)
			assert.Equal(t, "new system", s.Description)
			assert.Nil(t, s.Verdict)
			assert.Empty(t, s.Transcript)
			assert.False(t, s.Elaborated)
		})
	}
}

func TestSubmitDescriptionRejectsBlank(t *testing.T) {
	s := NewReviewSession("s1", time.Now())
	assert.Error(t, s.SubmitDescription("   "))
	assert.Equal(t, StateAwaitingDescription, s.State)
}

func TestApplyVerdictRequiresPendingVerdict(t *testing.T) {
	s := NewReviewSession("s1", time.Now())
	assert.ErrorIs(t, s.ApplyVerdict(RiskVerdict{}), ErrInvalidTransition)
}

func TestSpeakingOrderPutsEthicistLast(t *testing.T) {
	s := NewReviewSession("s1", time.Now())
	s.Agents = []*Agent{
		{Name: EthicistName},
		{Name: "Architect"},
		{Name: "Tester"},
	}

	order := s.SpeakingOrder()
	require.Len(t, order, 3)
	assert.Equal(t, "Architect", order[0].Name)
	assert.Equal(t, "Tester", order[1].Name)
	assert.Equal(t, EthicistName, order[2].Name)
	assert.Equal(t, EthicistName, s.Ethicist().Name)
}

func TestAppendAssignsSequence(t *testing.T) {
	s := NewReviewSession("s1", time.Now())
	first := s.Append(TranscriptEntry{Kind: EntryRound, Round: 1})
	second := s.Append(TranscriptEntry{Kind: EntryResponse, Round: 1, Speaker: "Tester", Text: "ok"})

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, "ROUND: 1", first.Line())
	assert.Equal(t, "Tester: ok", second.Line())
}
