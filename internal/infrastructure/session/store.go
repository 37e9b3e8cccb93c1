package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

// Store keeps live sessions in memory. Nothing survives process restart;
// the TTL only bounds abandoned sessions. Each Put refreshes the TTL, so an
// active session never expires mid-conversation.
type Store struct {
	cache *gocache.Cache
}

func NewStore(ttl, cleanupInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &Store{cache: gocache.New(ttl, cleanupInterval)}
}

func (s *Store) Put(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return domain.NewError(domain.ErrInvalidInput, "store session", "session id is required")
	}
	s.cache.SetDefault(sess.ID, sess)
	return nil
}

func (s *Store) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	value, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, domain.NewError(domain.ErrSessionNotFound, "load session", sessionID)
	}
	return value.(*domain.Session), nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// Count reports live sessions, used for the active-session gauge.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
