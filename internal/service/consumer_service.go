package service

import (
	"context"
	"encoding/json"

	"ethics-review-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TranscriptSink receives transcript events for a session. The websocket hub
// implements it.
type TranscriptSink interface {
	SendToSession(sessionID, eventType string, data interface{}) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	sink       TranscriptSink
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	sink TranscriptSink,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		sink:       sink,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Delivery is best effort: every message is acked so a bad payload or a
	// gone viewer never blocks the topic.
	defer msg.Ack()

	var event TranscriptEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("TRANSCRIPT", "Failed to unmarshal transcript event", map[string]interface{}{"error": err.Error()})
		return
	}

	var data interface{}
	switch event.Type {
	case TranscriptEventEntry:
		data = event.Entry
	case TranscriptEventVerdict:
		data = event.Verdict
	case TranscriptEventState:
		data = map[string]interface{}{"state": event.State}
	default:
		cs.logger.Warn("TRANSCRIPT", "Unknown transcript event type", map[string]interface{}{"type": event.Type})
		return
	}

	if err := cs.sink.SendToSession(event.SessionId, event.Type, data); err != nil {
		cs.logger.Warn("TRANSCRIPT", "Failed to forward transcript event", map[string]interface{}{"session_id": event.SessionId, "error": err.Error()})
	}
}
