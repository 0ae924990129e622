package service

import (
	"context"
	"encoding/json"

	"ethics-review-be/internal/entity"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transcript event types pushed to live viewers.
const (
	TranscriptEventEntry   = "entry"
	TranscriptEventVerdict = "verdict"
	TranscriptEventState   = "state"
)

type TranscriptEvent struct {
	SessionId string                  `json:"session_id"`
	Type      string                  `json:"type"`
	Entry     *entity.TranscriptEntry `json:"entry,omitempty"`
	Verdict   *entity.RiskVerdict     `json:"verdict,omitempty"`
	State     entity.SessionState     `json:"state,omitempty"`
}

type IPublisherService interface {
	Publish(ctx context.Context, event TranscriptEvent) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event TranscriptEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, msg)
}
