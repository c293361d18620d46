package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reshetovitsme/campus-bot/internal/modules/availability/domain"
	"github.com/reshetovitsme/campus-bot/internal/modules/availability/repository"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Probe checks the reachability of a target once.
type Probe interface {
	CheckOnce(ctx context.Context, target string) (bool, error)
}

// Handle identifies a scheduled recheck.
type Handle string

// RecoveredFunc is called once when the target of a subscription is reachable again.
type RecoveredFunc func(ctx context.Context, sub domain.Subscription)

// Monitor runs recurring reachability checks. Every subscription gets its own
// goroutine, so a slow check never delays the others, and checks of one
// subscription never overlap.
type Monitor struct {
	probe  Probe
	repo   repository.Repository
	now    func() time.Time
	stops  map[string]context.CancelFunc
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a new availability monitor
func NewMonitor(probe Probe, repo repository.Repository) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		probe:  probe,
		repo:   repo,
		now:    time.Now,
		stops:  make(map[string]context.CancelFunc),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule checks target right away and then every interval until it is
// reachable, calls onRecovered once and retires. Scheduling the same target
// twice yields two independent subscriptions.
func (m *Monitor) Schedule(chatID int64, target string, interval time.Duration, onRecovered RecoveredFunc) (Handle, error) {
	if target == "" || interval <= 0 || onRecovered == nil {
		return "", oops.With("target", target, "interval", interval).Wrapf(errors.ErrInvalidArgument, "target, positive interval and callback are required")
	}
	sub := domain.Subscription{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Target:    target,
		Interval:  interval,
		CreatedAt: m.now(),
		State:     domain.SubscriptionStateActive,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return "", oops.Errorf("monitor stopped")
	}
	if err := m.repo.Save(&sub); err != nil {
		return "", oops.With("chat_id", chatID, "context", "failed to save subscription").Wrap(err)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.stops[sub.ID] = cancel
	m.wg.Add(1)
	go m.run(ctx, sub, onRecovered)

	slog.Info("Scheduled availability check", "subscription_id", sub.ID, "chat_id", chatID, "target", target, "interval", interval)
	return Handle(sub.ID), nil
}

// Cancel stops future checks of a subscription. It is safe to call more than
// once and reports whether the subscription was still active.
func (m *Monitor) Cancel(h Handle) bool {
	retired, err := m.repo.Retire(string(h))
	if err != nil {
		slog.Error("Failed to retire subscription", "subscription_id", h, "error", err)
	}
	m.release(string(h))
	if retired {
		slog.Info("Cancelled availability check", "subscription_id", h)
	}
	return retired
}

// CancelChat cancels every pending subscription of a chat and returns how many were active.
func (m *Monitor) CancelChat(chatID int64) int {
	return lo.CountBy(m.Pending(chatID), func(sub domain.Subscription) bool {
		return m.Cancel(Handle(sub.ID))
	})
}

// Pending lists the active subscriptions of a chat.
func (m *Monitor) Pending(chatID int64) []domain.Subscription {
	subs, err := m.repo.ListActive(chatID)
	if err != nil {
		slog.Error("Failed to list subscriptions", "chat_id", chatID, "error", err)
		return nil
	}
	return lo.Map(subs, func(sub *domain.Subscription, _ int) domain.Subscription {
		return *sub
	})
}

// Stop cancels all running checks, waits for them to return and retires
// their subscriptions. Checks in flight do not notify anymore.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.cancel()
	ids := lo.Keys(m.stops)
	m.mu.Unlock()

	m.wg.Wait()

	for _, id := range ids {
		if _, err := m.repo.Retire(id); err != nil {
			slog.Error("Failed to retire subscription", "subscription_id", id, "error", err)
		}
	}
}

func (m *Monitor) run(ctx context.Context, sub domain.Subscription, onRecovered RecoveredFunc) {
	defer m.wg.Done()
	defer m.release(sub.ID)

	ticker := time.NewTicker(sub.Interval)
	defer ticker.Stop()

	for {
		if m.tick(ctx, sub, onRecovered) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick runs one check and reports whether the subscription is finished.
// Retire happens before the callback, so a concurrent Cancel either wins and
// suppresses the callback or comes too late to matter.
func (m *Monitor) tick(ctx context.Context, sub domain.Subscription, onRecovered RecoveredFunc) bool {
	slog.Debug("Checking availability", "subscription_id", sub.ID, "target", sub.Target)

	reachable, err := m.probe.CheckOnce(ctx, sub.Target)
	if err != nil {
		slog.Warn("Availability check failed", "subscription_id", sub.ID, "target", sub.Target, "error", err)
	}
	if ctx.Err() != nil {
		return true
	}
	if !reachable {
		return false
	}

	retired, err := m.repo.Retire(sub.ID)
	if err != nil {
		slog.Error("Failed to retire subscription", "subscription_id", sub.ID, "error", err)
		return false
	}
	if !retired {
		return true
	}

	slog.Info("Target is reachable again", "subscription_id", sub.ID, "chat_id", sub.ChatID, "target", sub.Target)
	sub.State = domain.SubscriptionStateRetired
	sub.RetiredAt = m.now()
	onRecovered(ctx, sub)
	return true
}

func (m *Monitor) release(id string) {
	m.mu.Lock()
	stop, ok := m.stops[id]
	delete(m.stops, id)
	m.mu.Unlock()

	if ok {
		stop()
	}
}
