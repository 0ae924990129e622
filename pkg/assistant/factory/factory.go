package factory

import (
	"fmt"
	"strings"

	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/assistant/memory"
	"ethics-review-be/pkg/assistant/openai"
	"ethics-review-be/pkg/risk"
)

func NewAssistantClient(providerType, apiKey, baseURL string) (assistant.Client, error) {
	switch providerType {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return openai.NewOpenAIProvider(apiKey, baseURL), nil
	case "memory":
		return memory.NewClient(memory.WithDefaultResponder(offlineResponder)), nil
	default:
		return nil, fmt.Errorf("unsupported assistant provider: %s", providerType)
	}
}

// offlineResponder keeps the app usable without a hosted backend. The
// classifier answers from the deterministic pre-screen only.
func offlineResponder(a assistant.Assistant, thread []assistant.Message) memory.Reply {
	last := ""
	if len(thread) > 0 {
		last = thread[len(thread)-1].Text
	}

	if strings.EqualFold(a.Name, risk.ClassifierName) {
		tier := risk.TierMinimal
		justification := "Offline provider: no prohibited or high-risk practice was detected by the local pre-screen."
		if hit, reason := risk.PreScreen(last); hit {
			tier = risk.TierUnacceptable
			justification = reason
		}
		return memory.Reply{Text: risk.FormatVerdictJSON(tier, justification)}
	}

	return memory.Reply{Text: fmt.Sprintf("**Reply**: %s acknowledges the discussion (%d characters of context). Running offline, no model was consulted.", a.Name, len(last))}
}
