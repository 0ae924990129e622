package service_test

import (
	"context"
	"testing"

	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/service"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/assistant/memory"
	"ethics-review-be/pkg/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifierReplies(text string) memory.Option {
	return memory.WithResponder(risk.ClassifierName, func(a assistant.Assistant, thread []assistant.Message) memory.Reply {
		return memory.Reply{Text: text}
	})
}

func TestRiskServiceAssess(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		description string
		want        risk.Tier
		preScreened bool
	}{
		{
			name:        "facial recognition in public is prohibited without a remote call",
			reply:       `{"Category": "Minimal Risk", "Justification": "never used"}`,
			description: "Develop a surveillance system that utilizes real-time facial recognition technology to monitor public areas.",
			want:        risk.TierUnacceptable,
			preScreened: true,
		},
		{
			name:        "library chatbot is minimal",
			reply:       `{"Category": "Minimal Risk", "Justification": "Answers library hours."}`,
			description: "Create an AI chatbot that answers common questions regarding library hours.",
			want:        risk.TierMinimal,
		},
		{
			name:        "fenced reply",
			reply:       "```json\n{\"Category\": \"High Risk\", \"Justification\": \"Policing.\"}\n```",
			description: "Create a predictive policing system.",
			want:        risk.TierHigh,
		},
		{
			name:        "malformed reply is unknown",
			reply:       "I think this is fine.",
			description: "Create a recipe recommender.",
			want:        risk.TierUnknown,
		},
		{
			name:        "category outside the tiers is unknown",
			reply:       `{"Category": "Medium Risk", "Justification": "?"}`,
			description: "Create a recipe recommender.",
			want:        risk.TierUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, classifierReplies(tt.reply))
			svc := service.NewRiskService(f.client, f.agents, f.settings, f.log)

			assessment, err := svc.Assess(context.Background(), tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.want, assessment.Verdict.Category)
			assert.Equal(t, tt.preScreened, assessment.PreScreened)

			verdict := assessment.ToEntity()
			assert.Equal(t, tt.want.Color(), verdict.Color)
			assert.Equal(t, tt.want == risk.TierUnacceptable, verdict.Blocking)
			assert.NotEmpty(t, verdict.Raw)

			if tt.preScreened {
				assert.Zero(t, f.client.Calls["CreateRun"])
			} else {
				assert.Equal(t, 1, f.client.Calls["CreateRun"])
			}
		})
	}
}

func TestRiskServiceClassifierIsCreatedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, classifierReplies(`{"Category": "Limited Risk", "Justification": "Moderation."}`))
	svc := service.NewRiskService(f.client, f.agents, f.settings, f.log)

	for i := 0; i < 3; i++ {
		_, err := svc.Assess(ctx, "Develop a content moderation tool.")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.client.Calls["CreateAssistant"])
	assert.Equal(t, 3, f.client.Calls["CreateThread"])
}

func TestRiskServiceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty description", func(t *testing.T) {
		f := newFixture(t)
		svc := service.NewRiskService(f.client, f.agents, f.settings, f.log)
		_, err := svc.Assess(ctx, "   ")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("failed run", func(t *testing.T) {
		f := newFixture(t, memory.WithResponder(risk.ClassifierName, func(a assistant.Assistant, thread []assistant.Message) memory.Reply {
			return memory.Reply{Fail: true}
		}))
		svc := service.NewRiskService(f.client, f.agents, f.settings, f.log)
		_, err := svc.Assess(ctx, "Create a recipe recommender.")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindRunFailed))
	})

	t.Run("deleted classifier is recreated on the next call", func(t *testing.T) {
		f := newFixture(t, classifierReplies(`{"Category": "Minimal Risk", "Justification": "ok"}`))
		svc := service.NewRiskService(f.client, f.agents, f.settings, f.log)

		classifier, err := svc.EnsureClassifier(ctx)
		require.NoError(t, err)
		require.NoError(t, f.client.DeleteAssistant(ctx, classifier.RemoteId))

		_, err = svc.Assess(ctx, "Create a recipe recommender.")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		assessment, err := svc.Assess(ctx, "Create a recipe recommender.")
		require.NoError(t, err)
		assert.Equal(t, risk.TierMinimal, assessment.Verdict.Category)
	})
}
