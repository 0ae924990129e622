package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/events"
	"ethics-review-be/pkg/risk"
)

// VerdictSpeaker labels the classifier verdict in the transcript.
const VerdictSpeaker = "RiskGuard"

type IConversationService interface {
	// Assess stores the description and classifies it.
	Assess(ctx context.Context, sess *entity.ReviewSession, description string) (*entity.RiskVerdict, error)
	// Converse runs the multi-agent discussion over the assessed description.
	Converse(ctx context.Context, sess *entity.ReviewSession, rounds int) error
	// Review assesses the description and converses when the verdict allows it.
	Review(ctx context.Context, sess *entity.ReviewSession, description string, rounds int) (*entity.RiskVerdict, error)
	// Elaborate asks the ethicist to discuss a prohibiting verdict. It is
	// available once per assessment.
	Elaborate(ctx context.Context, sess *entity.ReviewSession) (*entity.TranscriptEntry, error)
}

type conversationService struct {
	risk      IRiskService
	runner    *turnRunner
	publisher IPublisherService
	audit     events.Publisher
	settings  ReviewSettings
	logger    logger.ILogger
}

func NewConversationService(
	client assistant.Client,
	riskService IRiskService,
	publisher IPublisherService,
	audit events.Publisher,
	settings ReviewSettings,
	log logger.ILogger,
) IConversationService {
	if audit == nil {
		audit = events.NopPublisher{}
	}
	return &conversationService{
		risk:      riskService,
		runner:    newTurnRunner(client, settings.Poll, log),
		publisher: publisher,
		audit:     audit,
		settings:  settings,
		logger:    log,
	}
}

func (s *conversationService) Assess(ctx context.Context, sess *entity.ReviewSession, description string) (*entity.RiskVerdict, error) {
	if err := sess.SubmitDescription(description); err != nil {
		return nil, stateError("review.assess", err)
	}
	s.publishState(ctx, sess)

	assessment, err := s.risk.Assess(ctx, sess.Description)
	if err != nil {
		return nil, err
	}

	verdict := assessment.ToEntity()
	if err := sess.ApplyVerdict(verdict); err != nil {
		return nil, stateError("review.assess", err)
	}
	entry := sess.Append(entity.TranscriptEntry{
		Kind:      entity.EntryVerdict,
		Speaker:   VerdictSpeaker,
		Text:      verdict.Raw,
		Citations: verdict.Citations,
	})

	s.publishTranscript(ctx, TranscriptEvent{SessionId: sess.Id, Type: TranscriptEventVerdict, Verdict: &verdict})
	s.publishTranscript(ctx, TranscriptEvent{SessionId: sess.Id, Type: TranscriptEventEntry, Entry: &entry})
	s.publishState(ctx, sess)
	s.publishAudit(ctx, events.TypeReviewAssessed, map[string]interface{}{
		"session_id":   sess.Id,
		"category":     verdict.Category,
		"pre_screened": verdict.PreScreened,
	})

	return sess.Verdict, nil
}

func (s *conversationService) checkRounds(op string, rounds int) error {
	maxRounds := s.settings.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 10
	}
	if rounds < 1 || rounds > maxRounds {
		return apperr.New(apperr.KindValidation, op, fmt.Sprintf("rounds must be between 1 and %d", maxRounds))
	}
	return nil
}

func (s *conversationService) Converse(ctx context.Context, sess *entity.ReviewSession, rounds int) error {
	if err := s.checkRounds("review.converse", rounds); err != nil {
		return err
	}

	order := sess.SpeakingOrder()
	if len(order) == 0 {
		return apperr.New(apperr.KindValidation, "review.converse", "no agents in the session")
	}

	switch sess.State {
	case entity.StateConversationActive:
	case entity.StateIdle:
		if err := sess.ResumeConversation(); err != nil {
			return stateError("review.converse", err)
		}
	case entity.StateBlockedUnacceptable:
		return apperr.New(apperr.KindConflict, "review.converse", "the system was assessed as an unacceptable risk; the conversation is blocked")
	default:
		return apperr.New(apperr.KindConflict, "review.converse", "submit a description for risk assessment first")
	}

	sess.Rounds = rounds
	s.publishState(ctx, sess)

	threadID, err := s.runner.newThread(ctx, s.settings.StoreID)
	if err != nil {
		s.abort(ctx, sess, 0, err)
		return err
	}

	s.logger.Info("CONVERSATION", "Starting conversation", map[string]interface{}{
		"session_id": sess.Id, "rounds": rounds, "agents": len(order),
	})

	history := []string{sess.Description}
	for round := 1; round <= rounds; round++ {
		marker := sess.Append(entity.TranscriptEntry{Kind: entity.EntryRound, Round: round})
		s.publishTranscript(ctx, TranscriptEvent{SessionId: sess.Id, Type: TranscriptEventEntry, Entry: &marker})

		for _, agent := range order {
			resp, err := s.runner.run(ctx, "CONVERSATION", threadID, agent.RemoteId, strings.Join(history, " "))
			if err != nil {
				s.abort(ctx, sess, round, err)
				return err
			}
			history = append(history, resp.Text)

			entry := sess.Append(entity.TranscriptEntry{
				Kind:      entity.EntryResponse,
				Round:     round,
				Speaker:   agent.Name,
				Text:      resp.Text,
				Citations: toEntryCitations(resp.Citations),
			})
			s.publishTranscript(ctx, TranscriptEvent{SessionId: sess.Id, Type: TranscriptEventEntry, Entry: &entry})
		}
	}

	if err := sess.FinishConversation(); err != nil {
		return stateError("review.converse", err)
	}
	s.publishState(ctx, sess)
	s.publishAudit(ctx, events.TypeConversationCompleted, map[string]interface{}{
		"session_id": sess.Id,
		"rounds":     rounds,
		"agents":     len(order),
		"entries":    len(sess.Transcript),
	})
	s.logger.Info("CONVERSATION", "Conversation completed", map[string]interface{}{"session_id": sess.Id, "entries": len(sess.Transcript)})
	return nil
}

func (s *conversationService) Review(ctx context.Context, sess *entity.ReviewSession, description string, rounds int) (*entity.RiskVerdict, error) {
	if err := s.checkRounds("review.review", rounds); err != nil {
		return nil, err
	}
	verdict, err := s.Assess(ctx, sess, description)
	if err != nil {
		return nil, err
	}
	if verdict.Blocking {
		return verdict, nil
	}
	if err := s.Converse(ctx, sess, rounds); err != nil {
		return verdict, err
	}
	return verdict, nil
}

func (s *conversationService) Elaborate(ctx context.Context, sess *entity.ReviewSession) (*entity.TranscriptEntry, error) {
	if !sess.CanElaborate() {
		return nil, apperr.New(apperr.KindConflict, "review.elaborate", "elaboration is only available once after an unacceptable verdict")
	}
	ethicist := sess.Ethicist()
	if ethicist == nil {
		return nil, apperr.New(apperr.KindNotFound, "review.elaborate", "the session has no "+entity.EthicistName)
	}

	threadID, err := s.runner.newThread(ctx, s.settings.StoreID)
	if err != nil {
		return nil, err
	}
	resp, err := s.runner.run(ctx, "ELABORATION", threadID, ethicist.RemoteId, risk.ElaborationPrompt(sess.Description, sess.Verdict.Raw))
	if err != nil {
		return nil, err
	}

	entry := sess.Append(entity.TranscriptEntry{
		Kind:      entity.EntryResponse,
		Speaker:   ethicist.Name,
		Text:      resp.Text,
		Citations: toEntryCitations(resp.Citations),
	})
	if err := sess.FinishElaboration(); err != nil {
		return nil, stateError("review.elaborate", err)
	}
	s.publishTranscript(ctx, TranscriptEvent{SessionId: sess.Id, Type: TranscriptEventEntry, Entry: &entry})
	s.publishState(ctx, sess)
	return &entry, nil
}

// abort returns the session to idle after a failed turn. Entries appended so
// far stay in the transcript.
func (s *conversationService) abort(ctx context.Context, sess *entity.ReviewSession, round int, cause error) {
	s.logger.Error("CONVERSATION", "Conversation aborted", map[string]interface{}{
		"session_id": sess.Id, "round": round, "error": cause.Error(),
	})
	if err := sess.FinishConversation(); err != nil {
		s.logger.Warn("CONVERSATION", "Could not finish aborted conversation", map[string]interface{}{"session_id": sess.Id, "error": err.Error()})
	}
	s.publishState(ctx, sess)
	s.publishAudit(ctx, events.TypeConversationAborted, map[string]interface{}{
		"session_id": sess.Id,
		"round":      round,
		"kind":       string(apperr.KindOf(cause)),
		"error":      cause.Error(),
	})
}

func (s *conversationService) publishState(ctx context.Context, sess *entity.ReviewSession) {
	s.publishTranscript(ctx, TranscriptEvent{SessionId: sess.Id, Type: TranscriptEventState, State: sess.State})
}

func (s *conversationService) publishTranscript(ctx context.Context, event TranscriptEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("CONVERSATION", "Failed to publish transcript event", map[string]interface{}{"session_id": event.SessionId, "error": err.Error()})
	}
}

func (s *conversationService) publishAudit(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.audit.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("CONVERSATION", "Failed to publish review event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}

// stateError classifies session state errors: an illegal transition is a
// conflict, anything else is invalid input.
func stateError(op string, err error) error {
	if errors.Is(err, entity.ErrInvalidTransition) {
		return apperr.Wrap(apperr.KindConflict, op, err)
	}
	return apperr.Wrap(apperr.KindValidation, op, err)
}
