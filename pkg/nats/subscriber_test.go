package nats

import (
	"encoding/json"
	"testing"
	"time"

	"ethics-review-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "review.REVIEW_ASSESSED", Subject(events.TypeReviewAssessed))
}

func TestDecodeRoundTripsPublishedBody(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	body, err := json.Marshal(events.BaseEvent{
		Type:       events.TypeDocumentsSynced,
		Data:       map[string]interface{}{"uploaded": 2},
		OccurredAt: at,
	})
	require.NoError(t, err)

	event, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, events.TypeDocumentsSynced, event.EventType())
	assert.Equal(t, float64(2), event.Payload()["uploaded"])
	assert.True(t, at.Equal(event.Timestamp()))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
