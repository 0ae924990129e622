package service

import (
	"context"
	"strings"
	"sync"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/citation"
	"ethics-review-be/pkg/risk"
)

type Assessment struct {
	Verdict     risk.Verdict
	Citations   []citation.Citation
	PreScreened bool
}

// ToEntity converts the assessment into the verdict stored on a session.
func (a *Assessment) ToEntity() entity.RiskVerdict {
	return entity.RiskVerdict{
		Category:      string(a.Verdict.Category),
		Label:         a.Verdict.Label(),
		Justification: a.Verdict.Justification,
		Color:         a.Verdict.Category.Color(),
		Blocking:      a.Verdict.Category.BlocksConversation(),
		PreScreened:   a.PreScreened,
		Citations:     toEntryCitations(a.Citations),
		Raw:           a.raw(),
	}
}

func (a *Assessment) raw() string {
	if a.Verdict.Raw != "" {
		return a.Verdict.Raw
	}
	return risk.FormatVerdictJSON(a.Verdict.Category, a.Verdict.Justification)
}

type IRiskService interface {
	EnsureClassifier(ctx context.Context) (*entity.Agent, error)
	Assess(ctx context.Context, description string) (*Assessment, error)
}

type riskService struct {
	agents   IAgentService
	runner   *turnRunner
	settings ReviewSettings
	logger   logger.ILogger

	mu         sync.Mutex
	classifier *entity.Agent
}

func NewRiskService(client assistant.Client, agents IAgentService, settings ReviewSettings, log logger.ILogger) IRiskService {
	return &riskService{
		agents:   agents,
		runner:   newTurnRunner(client, settings.Poll, log),
		settings: settings,
		logger:   log,
	}
}

func (s *riskService) EnsureClassifier(ctx context.Context) (*entity.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classifier != nil {
		return s.classifier, nil
	}

	temperature := float32(0)
	topP := float32(0.5)
	spec := &assistant.AssistantSpec{
		Description:  risk.ClassifierDescription,
		Instructions: risk.ClassifierInstructions,
		Model:        s.settings.Model,
		Temperature:  &temperature,
		TopP:         &topP,
	}
	if s.settings.StoreID != "" {
		spec.Tools = []string{assistant.ToolFileSearch}
		spec.VectorStoreIDs = []string{s.settings.StoreID}
	}

	agent, err := s.agents.CreateOrGet(ctx, AgentParams{
		Name:  risk.ClassifierName,
		Role:  risk.ClassifierInstructions,
		Model: s.settings.Model,
		Spec:  spec,
	})
	if err != nil {
		return nil, err
	}
	s.classifier = agent
	return agent, nil
}

// Assess classifies description. Unparseable replies give an Unknown
// verdict; only remote failures are errors.
func (s *riskService) Assess(ctx context.Context, description string) (*Assessment, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.New(apperr.KindValidation, "risk.assess", "description is required")
	}

	if hit, reason := risk.PreScreen(description); hit {
		s.logger.Info("RISK", "Description matched a prohibited practice", map[string]interface{}{"category": string(risk.TierUnacceptable)})
		return &Assessment{
			Verdict: risk.Verdict{
				Category:      risk.TierUnacceptable,
				Justification: reason,
				Raw:           risk.FormatVerdictJSON(risk.TierUnacceptable, reason),
			},
			PreScreened: true,
		}, nil
	}

	classifier, err := s.EnsureClassifier(ctx)
	if err != nil {
		return nil, err
	}

	threadID, err := s.runner.newThread(ctx, s.settings.StoreID)
	if err != nil {
		return nil, err
	}
	resp, err := s.runner.run(ctx, "RISK", threadID, classifier.RemoteId, description)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.forgetClassifier()
		}
		return nil, err
	}

	verdict := risk.ParseVerdict(resp.Text)
	if verdict.Category == risk.TierUnknown {
		s.logger.Warn("RISK", "Classifier reply could not be decoded", map[string]interface{}{"reply": resp.Text})
	}
	s.logger.Info("RISK", "Risk assessed", map[string]interface{}{"category": string(verdict.Category)})

	return &Assessment{Verdict: verdict, Citations: resp.Citations}, nil
}

func (s *riskService) forgetClassifier() {
	s.mu.Lock()
	s.classifier = nil
	s.mu.Unlock()
}

func toEntryCitations(in []citation.Citation) []entity.EntryCitation {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.EntryCitation, len(in))
	for i, c := range in {
		out[i] = entity.EntryCitation{Index: c.Index, FileId: c.FileID, Filename: c.Filename}
	}
	return out
}
