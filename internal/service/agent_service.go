package service

import (
	"context"
	"errors"
	"strings"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/persona"
)

// AgentParams describes an agent to create or reuse.
type AgentParams struct {
	Name      string
	Role      string
	Model     string
	StoreID   string
	SessionID string
	// Spec overrides the generated assistant spec when set. Used for the
	// classifier, which needs its own sampling parameters.
	Spec *assistant.AssistantSpec
}

type IAgentService interface {
	// CreateOrGet returns the reserved agent with this name unchanged, or
	// replaces any same-named agent with a fresh one.
	CreateOrGet(ctx context.Context, params AgentParams) (*entity.Agent, error)
	// CreateForUser is CreateOrGet for names typed by a user. Reserved names
	// are rejected.
	CreateForUser(ctx context.Context, params AgentParams) (*entity.Agent, error)
	Delete(ctx context.Context, remoteID string) (bool, error)
	GetByID(ctx context.Context, remoteID string) (*entity.Agent, error)
	PurgeAll(ctx context.Context, keepReserved bool) (int, error)
}

type agentService struct {
	client   assistant.Client
	registry IRegistryService
	logger   logger.ILogger
}

func NewAgentService(client assistant.Client, registry IRegistryService, log logger.ILogger) IAgentService {
	return &agentService{
		client:   client,
		registry: registry,
		logger:   log,
	}
}

func (s *agentService) CreateForUser(ctx context.Context, params AgentParams) (*entity.Agent, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || strings.TrimSpace(params.Role) == "" {
		return nil, apperr.New(apperr.KindValidation, "agent.create", "agent name and role are required")
	}
	if entity.IsReservedName(name) {
		return nil, apperr.New(apperr.KindValidation, "agent.create", "agent name \""+name+"\" is reserved")
	}
	params.Name = name
	return s.CreateOrGet(ctx, params)
}

func (s *agentService) CreateOrGet(ctx context.Context, params AgentParams) (*entity.Agent, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, "agent.create", "agent name is required")
	}

	matches, err := s.registry.FindAgentsByName(ctx, name)
	if err != nil {
		return nil, err
	}

	// Every same-named record goes, except a live reserved agent which is
	// shared and returned as is.
	for _, existing := range matches {
		if entity.IsReservedName(existing.Name) {
			alive, err := s.isAlive(ctx, existing.RemoteId)
			if err != nil {
				return nil, err
			}
			if alive {
				s.logger.Info("AGENT", "Found reserved agent, returning without changes", map[string]interface{}{
					"name": existing.Name, "id": existing.RemoteId,
				})
				return existing, nil
			}
			s.logger.Warn("AGENT", "Reserved agent vanished remotely, recreating", map[string]interface{}{
				"name": existing.Name, "id": existing.RemoteId,
			})
			if err := s.registry.ForgetAgent(ctx, existing.RemoteId); err != nil {
				return nil, err
			}
			continue
		}
		s.logger.Info("AGENT", "Deleting existing agent before recreating it", map[string]interface{}{
			"name": existing.Name, "id": existing.RemoteId,
		})
		if _, err := s.Delete(ctx, existing.RemoteId); err != nil {
			return nil, err
		}
	}

	spec := s.buildSpec(name, params)
	created, err := s.client.CreateAssistant(ctx, spec)
	if err != nil {
		s.logger.Error("AGENT", "Failed to create agent", map[string]interface{}{"name": name, "error": err.Error()})
		return nil, apperr.Classify("agent.create", err)
	}

	agent := &entity.Agent{
		RemoteId:  created.ID,
		Name:      created.Name,
		Role:      params.Role,
		Model:     created.Model,
		Tools:     spec.Tools,
		SessionId: params.SessionID,
		Reserved:  entity.IsReservedName(name),
	}
	if agent.Reserved {
		agent.SessionId = ""
	}
	if err := s.registry.RecordAgent(ctx, agent); err != nil {
		return nil, err
	}

	s.logger.Info("AGENT", "New agent created", map[string]interface{}{"name": name, "id": created.ID})
	return agent, nil
}

func (s *agentService) buildSpec(name string, params AgentParams) assistant.AssistantSpec {
	if params.Spec != nil {
		spec := *params.Spec
		spec.Name = name
		if spec.Model == "" {
			spec.Model = params.Model
		}
		return spec
	}

	spec := assistant.AssistantSpec{
		Name:         name,
		Instructions: persona.WithGeneralInstructions(params.Role, entity.IsEthicistName(name)),
		Model:        params.Model,
	}
	if params.StoreID != "" {
		spec.Tools = []string{assistant.ToolFileSearch, assistant.ToolCodeInterpreter}
		spec.VectorStoreIDs = []string{params.StoreID}
	}
	return spec
}

func (s *agentService) isAlive(ctx context.Context, remoteID string) (bool, error) {
	_, err := s.client.RetrieveAssistant(ctx, remoteID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, assistant.ErrNotFound) {
		return false, nil
	}
	return false, apperr.Classify("agent.get", err)
}

// Delete checks the agent exists before deleting it. A missing agent is
// reported as (false, nil).
func (s *agentService) Delete(ctx context.Context, remoteID string) (bool, error) {
	alive, err := s.isAlive(ctx, remoteID)
	if err != nil {
		s.logger.Error("AGENT", "Failed to look up agent for deletion", map[string]interface{}{"id": remoteID, "error": err.Error()})
		return false, err
	}
	if !alive {
		s.logger.Warn("AGENT", "Agent not found", map[string]interface{}{"id": remoteID})
		if err := s.registry.ForgetAgent(ctx, remoteID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.client.DeleteAssistant(ctx, remoteID); err != nil {
		if errors.Is(err, assistant.ErrNotFound) {
			return false, s.registry.ForgetAgent(ctx, remoteID)
		}
		s.logger.Error("AGENT", "Failed to delete agent", map[string]interface{}{"id": remoteID, "error": err.Error()})
		return false, apperr.Classify("agent.delete", err)
	}
	if err := s.registry.ForgetAgent(ctx, remoteID); err != nil {
		return true, err
	}

	s.logger.Info("AGENT", "Agent deleted", map[string]interface{}{"id": remoteID})
	return true, nil
}

// GetByID returns (nil, nil) when the agent does not exist.
func (s *agentService) GetByID(ctx context.Context, remoteID string) (*entity.Agent, error) {
	remote, err := s.client.RetrieveAssistant(ctx, remoteID)
	if err != nil {
		if errors.Is(err, assistant.ErrNotFound) {
			s.logger.Warn("AGENT", "No agent found", map[string]interface{}{"id": remoteID})
			return nil, nil
		}
		return nil, apperr.Classify("agent.get", err)
	}

	local, err := s.registry.FindAgentByRemoteID(ctx, remoteID)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return local, nil
	}
	return &entity.Agent{
		RemoteId: remote.ID,
		Name:     remote.Name,
		Role:     remote.Instructions,
		Model:    remote.Model,
		Reserved: entity.IsReservedName(remote.Name),
	}, nil
}

// PurgeAll deletes every remote assistant, optionally sparing reserved ones.
func (s *agentService) PurgeAll(ctx context.Context, keepReserved bool) (int, error) {
	remote, err := s.client.ListAssistants(ctx)
	if err != nil {
		return 0, apperr.Classify("agent.purge", err)
	}

	deleted := 0
	for _, a := range remote {
		if keepReserved && entity.IsReservedName(a.Name) {
			continue
		}
		if err := s.client.DeleteAssistant(ctx, a.ID); err != nil && !errors.Is(err, assistant.ErrNotFound) {
			s.logger.Error("AGENT", "Failed to purge agent", map[string]interface{}{"id": a.ID, "error": err.Error()})
			return deleted, apperr.Classify("agent.purge", err)
		}
		if err := s.registry.ForgetAgent(ctx, a.ID); err != nil {
			return deleted, err
		}
		deleted++
	}

	s.logger.Info("AGENT", "Agents purged", map[string]interface{}{"deleted": deleted, "keep_reserved": keepReserved})
	return deleted, nil
}
