package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/reshetovitsme/campus-bot/internal/modules/availability/domain"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// MemoryStorage implements Repository in process memory. Subscriptions do not
// survive a restart.
type MemoryStorage struct {
	subs map[string]*domain.Subscription
	mu   sync.RWMutex
	now  func() time.Time
}

func NewMemoryStorage() Repository {
	return &MemoryStorage{
		subs: make(map[string]*domain.Subscription),
		now:  time.Now,
	}
}

func (s *MemoryStorage) Save(sub *domain.Subscription) error {
	if sub == nil || sub.ID == "" {
		return oops.Wrapf(errors.ErrInvalidArgument, "subscription id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sub
	s.subs[sub.ID] = &stored
	return nil
}

func (s *MemoryStorage) Get(id string) (*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, oops.With("subscription_id", id).Wrapf(errors.ErrNotFound, "subscription not found")
	}
	copied := *sub
	return &copied, nil
}

// ListActive returns the active subscriptions of a chat, oldest first.
func (s *MemoryStorage) ListActive(chatID int64) ([]*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := lo.FilterMap(lo.Values(s.subs), func(sub *domain.Subscription, _ int) (*domain.Subscription, bool) {
		if sub.ChatID != chatID || !sub.IsActive() {
			return nil, false
		}
		copied := *sub
		return &copied, true
	})
	sortByCreation(subs)
	return subs, nil
}

// Retire moves an active subscription to retired and drops it from the set.
// It reports false if the subscription was already retired or unknown.
func (s *MemoryStorage) Retire(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok || !sub.IsActive() {
		return false, nil
	}
	sub.State = domain.SubscriptionStateRetired
	sub.RetiredAt = s.now()
	delete(s.subs, id)
	return true, nil
}

func sortByCreation(subs []*domain.Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].CreatedAt.Before(subs[j].CreatedAt)
	})
}
