package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/internal/repository/memory"
	"ethics-review-be/pkg/persona"

	"github.com/google/uuid"
)

// ErrSessionBusy is returned when another request is already working on the
// session.
var ErrSessionBusy = apperr.New(apperr.KindBusy, "session.acquire", "another request is in progress for this session")

const teardownTimeout = 30 * time.Second

type ISessionService interface {
	// Create starts a session whose roster holds the reserved ethicist.
	Create(ctx context.Context) (*entity.ReviewSession, error)
	Get(sessionID string) (*entity.ReviewSession, error)
	// Acquire locks the session for the caller. The returned release func
	// must be called once the caller is done.
	Acquire(sessionID string) (*entity.ReviewSession, func(), error)
	// View runs fn under the session lock. fn must not keep the session.
	View(sessionID string, fn func(sess *entity.ReviewSession) error) error
	// End removes the session and deletes the agents it created.
	End(ctx context.Context, sessionID string) error
	AddAgent(ctx context.Context, sess *entity.ReviewSession, name, role string) (*entity.Agent, error)
	RemoveAgent(ctx context.Context, sess *entity.ReviewSession, remoteID string) error
}

type sessionService struct {
	repo     *memory.SessionRepository
	agents   IAgentService
	catalog  *persona.Catalog
	settings ReviewSettings
	logger   logger.ILogger

	locks sync.Map // session id -> *sync.Mutex
}

func NewSessionService(
	repo *memory.SessionRepository,
	agents IAgentService,
	catalog *persona.Catalog,
	settings ReviewSettings,
	log logger.ILogger,
) ISessionService {
	s := &sessionService{
		repo:     repo,
		agents:   agents,
		catalog:  catalog,
		settings: settings,
		logger:   log,
	}
	repo.OnEvicted(s.teardown)
	return s
}

func (s *sessionService) Create(ctx context.Context) (*entity.ReviewSession, error) {
	ethicist, err := s.agents.CreateOrGet(ctx, AgentParams{
		Name:    s.catalog.Ethicist.Name,
		Role:    s.catalog.Ethicist.Role,
		Model:   s.settings.Model,
		StoreID: s.settings.StoreID,
	})
	if err != nil {
		return nil, err
	}

	sess := entity.NewReviewSession(uuid.NewString(), time.Now())
	sess.Agents = []*entity.Agent{ethicist}
	s.repo.Save(sess)

	s.logger.Info("SESSION", "Session created", map[string]interface{}{"session_id": sess.Id})
	return sess, nil
}

func (s *sessionService) Get(sessionID string) (*entity.ReviewSession, error) {
	sess, ok := s.repo.Get(sessionID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "session.get", "session not found or expired")
	}
	return sess, nil
}

func (s *sessionService) Acquire(sessionID string) (*entity.ReviewSession, func(), error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	mu := s.lock(sessionID)
	if !mu.TryLock() {
		return nil, nil, ErrSessionBusy
	}

	release := func() {
		// Saving again restarts the expiry of an active session.
		if _, ok := s.repo.Get(sessionID); ok {
			s.repo.Save(sess)
		}
		mu.Unlock()
	}
	return sess, release, nil
}

func (s *sessionService) View(sessionID string, fn func(sess *entity.ReviewSession) error) error {
	sess, err := s.Get(sessionID)
	if err != nil {
		return err
	}
	mu := s.lock(sessionID)
	if !mu.TryLock() {
		return ErrSessionBusy
	}
	defer mu.Unlock()
	return fn(sess)
}

func (s *sessionService) lock(sessionID string) *sync.Mutex {
	value, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return value.(*sync.Mutex)
}

// End expects the caller to hold the session lock.
func (s *sessionService) End(ctx context.Context, sessionID string) error {
	if _, err := s.Get(sessionID); err != nil {
		return err
	}
	// Delete fires the eviction callback, which tears the agents down.
	s.repo.Delete(sessionID)
	s.logger.Info("SESSION", "Session ended", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (s *sessionService) AddAgent(ctx context.Context, sess *entity.ReviewSession, name, role string) (*entity.Agent, error) {
	name = strings.TrimSpace(name)
	if entity.IsReservedName(name) {
		return nil, apperr.New(apperr.KindValidation, "session.add_agent", "agent name \""+name+"\" is reserved")
	}
	if sess.HasAgentNamed(name) {
		return nil, apperr.New(apperr.KindConflict, "session.add_agent", "an agent named \""+name+"\" is already in the session")
	}

	agent, err := s.agents.CreateForUser(ctx, AgentParams{
		Name:      name,
		Role:      strings.TrimSpace(role),
		Model:     s.settings.Model,
		StoreID:   s.settings.StoreID,
		SessionID: sess.Id,
	})
	if err != nil {
		return nil, err
	}

	sess.Agents = append(sess.Agents, agent)
	sess.UpdatedAt = time.Now()
	s.logger.Info("SESSION", "Agent added to session", map[string]interface{}{"session_id": sess.Id, "agent": agent.Name})
	return agent, nil
}

func (s *sessionService) RemoveAgent(ctx context.Context, sess *entity.ReviewSession, remoteID string) error {
	agent, idx := sess.FindAgent(remoteID)
	if agent == nil {
		return apperr.New(apperr.KindNotFound, "session.remove_agent", "agent not found in session")
	}
	if agent.Reserved || entity.IsReservedName(agent.Name) {
		return apperr.New(apperr.KindValidation, "session.remove_agent", "the "+agent.Name+" cannot be removed")
	}

	if _, err := s.agents.Delete(ctx, remoteID); err != nil {
		return err
	}

	sess.Agents = append(sess.Agents[:idx], sess.Agents[idx+1:]...)
	sess.UpdatedAt = time.Now()
	s.logger.Info("SESSION", "Agent removed from session", map[string]interface{}{"session_id": sess.Id, "agent": agent.Name})
	return nil
}

// teardown deletes the remote agents a session created. Reserved agents are
// shared and stay.
func (s *sessionService) teardown(sess *entity.ReviewSession) {
	s.locks.Delete(sess.Id)

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	removed := 0
	for _, agent := range sess.Agents {
		if agent.Reserved || entity.IsReservedName(agent.Name) {
			continue
		}
		if _, err := s.agents.Delete(ctx, agent.RemoteId); err != nil {
			s.logger.Warn("SESSION", "Failed to delete session agent", map[string]interface{}{
				"session_id": sess.Id, "agent": agent.Name, "error": err.Error(),
			})
			continue
		}
		removed++
	}
	s.logger.Info("SESSION", "Session torn down", map[string]interface{}{"session_id": sess.Id, "agents_deleted": removed})
}
