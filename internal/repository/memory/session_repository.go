package memory

import (
	"time"

	"ethics-review-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps review sessions in process memory. Sessions expire
// after the configured TTL of inactivity.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	// Purge expired sessions every ttl/4, at least once a minute
	cleanup := ttl / 4
	if cleanup > time.Minute {
		cleanup = time.Minute
	}
	return &SessionRepository{
		cache: cache.New(ttl, cleanup),
	}
}

// OnEvicted registers fn to run when a session expires or is deleted.
func (r *SessionRepository) OnEvicted(fn func(session *entity.ReviewSession)) {
	r.cache.OnEvicted(func(_ string, value interface{}) {
		if session, ok := value.(*entity.ReviewSession); ok {
			fn(session)
		}
	})
}

// Save stores the session and restarts its expiry.
func (r *SessionRepository) Save(session *entity.ReviewSession) {
	r.cache.Set(session.Id, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*entity.ReviewSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.ReviewSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
