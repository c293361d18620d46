package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reshetovitsme/campus-bot/internal/modules/availability/domain"
	"github.com/reshetovitsme/campus-bot/internal/modules/availability/repository"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const target = "https://bildungsportal.sachsen.de/opal/"

// scriptedProbe answers from results in order and repeats the last answer.
type scriptedProbe struct {
	mu      sync.Mutex
	results []bool
	calls   int
}

func (p *scriptedProbe) CheckOnce(context.Context, string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := min(p.calls, len(p.results)-1)
	p.calls++
	return p.results[i], nil
}

func (p *scriptedProbe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recorder struct {
	mu   sync.Mutex
	subs []domain.Subscription
	done chan struct{}
	once sync.Once
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) onRecovered(_ context.Context, sub domain.Subscription) {
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func newTestMonitor(t *testing.T, probe Probe) *Monitor {
	t.Helper()
	m := NewMonitor(probe, repository.NewMemoryStorage())
	t.Cleanup(m.Stop)
	return m
}

func TestMonitor_FiresOnceOnRecovery(t *testing.T) {
	probe := &scriptedProbe{results: []bool{false, false, true}}
	m := newTestMonitor(t, probe)
	rec := newRecorder()

	h, err := m.Schedule(42, target, 5*time.Millisecond, rec.onRecovered)
	require.NoError(t, err)
	require.Len(t, m.Pending(42), 1)

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("onRecovered was not called")
	}

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 3, probe.Calls(), "checks stop after recovery")
	assert.Equal(t, string(h), rec.subs[0].ID)
	assert.Equal(t, int64(42), rec.subs[0].ChatID)
	assert.Equal(t, domain.SubscriptionStateRetired, rec.subs[0].State)
	assert.Empty(t, m.Pending(42))
	assert.False(t, m.Cancel(h), "retired subscriptions cannot be cancelled")
}

func TestMonitor_FirstCheckIsImmediate(t *testing.T) {
	probe := &scriptedProbe{results: []bool{true}}
	m := newTestMonitor(t, probe)
	rec := newRecorder()

	_, err := m.Schedule(1, target, time.Hour, rec.onRecovered)
	require.NoError(t, err)

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("first check must not wait for the interval")
	}
}

func TestMonitor_CancelIsIdempotent(t *testing.T) {
	probe := &scriptedProbe{results: []bool{false}}
	m := newTestMonitor(t, probe)
	rec := newRecorder()

	h, err := m.Schedule(1, target, 5*time.Millisecond, rec.onRecovered)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return probe.Calls() >= 2 }, time.Second, time.Millisecond)

	assert.True(t, m.Cancel(h))
	assert.NotPanics(t, func() { assert.False(t, m.Cancel(h)) })
	assert.False(t, m.Cancel(Handle("unknown")))

	time.Sleep(10 * time.Millisecond)
	calls := probe.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, probe.Calls(), "no checks after cancel")
	assert.Zero(t, rec.count())
	assert.Empty(t, m.Pending(1))
}

// blockingProbe parks every check until released, then reports reachable.
type blockingProbe struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProbe) CheckOnce(context.Context, string) (bool, error) {
	p.entered <- struct{}{}
	<-p.release
	return true, nil
}

func TestMonitor_CancelDuringInFlightCheck(t *testing.T) {
	probe := &blockingProbe{entered: make(chan struct{}, 1), release: make(chan struct{})}
	m := newTestMonitor(t, probe)
	var fired atomic.Int32

	h, err := m.Schedule(1, target, time.Millisecond, func(context.Context, domain.Subscription) {
		fired.Add(1)
	})
	require.NoError(t, err)

	<-probe.entered
	assert.True(t, m.Cancel(h))
	close(probe.release)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, fired.Load(), "a check in flight during cancel must not notify")
}

func TestMonitor_IndependentSubscriptions(t *testing.T) {
	probe := &scriptedProbe{results: []bool{false, true}}
	m := newTestMonitor(t, probe)
	var fired atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)
	notify := func(context.Context, domain.Subscription) {
		fired.Add(1)
		wg.Done()
	}

	h1, err := m.Schedule(7, target, 5*time.Millisecond, notify)
	require.NoError(t, err)
	h2, err := m.Schedule(7, target, 5*time.Millisecond, notify)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("both subscriptions must notify")
	}
	assert.Equal(t, int32(2), fired.Load())
}

func TestMonitor_CancelChat(t *testing.T) {
	probe := &scriptedProbe{results: []bool{false}}
	m := newTestMonitor(t, probe)
	rec := newRecorder()

	for i := 0; i < 3; i++ {
		_, err := m.Schedule(5, target, time.Hour, rec.onRecovered)
		require.NoError(t, err)
	}
	_, err := m.Schedule(6, target, time.Hour, rec.onRecovered)
	require.NoError(t, err)

	assert.Equal(t, 3, m.CancelChat(5))
	assert.Equal(t, 0, m.CancelChat(5))
	assert.Empty(t, m.Pending(5))
	assert.Len(t, m.Pending(6), 1)
}

func TestMonitor_ScheduleValidation(t *testing.T) {
	m := newTestMonitor(t, &scriptedProbe{results: []bool{false}})
	noop := func(context.Context, domain.Subscription) {}

	_, err := m.Schedule(1, "", time.Minute, noop)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = m.Schedule(1, target, 0, noop)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = m.Schedule(1, target, time.Minute, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestMonitor_StopEndsChecks(t *testing.T) {
	probe := &scriptedProbe{results: []bool{false}}
	m := NewMonitor(probe, repository.NewMemoryStorage())

	_, err := m.Schedule(1, target, time.Millisecond, func(context.Context, domain.Subscription) {})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return probe.Calls() > 0 }, time.Second, time.Millisecond)

	m.Stop()
	calls := probe.Calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, probe.Calls())

	_, err = m.Schedule(1, target, time.Millisecond, func(context.Context, domain.Subscription) {})
	assert.Error(t, err)
	assert.Empty(t, m.Pending(1), "stopped subscriptions are retired")
}

func TestMonitor_StopDuringInFlightCheck(t *testing.T) {
	probe := &blockingProbe{entered: make(chan struct{}, 1), release: make(chan struct{})}
	m := NewMonitor(probe, repository.NewMemoryStorage())
	var fired atomic.Int32

	_, err := m.Schedule(3, target, time.Hour, func(context.Context, domain.Subscription) {
		fired.Add(1)
	})
	require.NoError(t, err)
	<-probe.entered

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()
	require.Eventually(t, func() bool { return m.ctx.Err() != nil }, time.Second, time.Millisecond)
	close(probe.release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop must return once the check finishes")
	}
	assert.Zero(t, fired.Load(), "a check finishing after Stop must not notify")
	assert.Empty(t, m.Pending(3))
}

func TestMonitor_ScheduleConcurrentWithStop(t *testing.T) {
	m := NewMonitor(&scriptedProbe{results: []bool{false}}, repository.NewMemoryStorage())
	noop := func(context.Context, domain.Subscription) {}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			_, _ = m.Schedule(chatID, target, time.Millisecond, noop)
		}(int64(i))
	}
	m.Stop()
	wg.Wait()

	for i := 0; i < 20; i++ {
		assert.Empty(t, m.Pending(int64(i)))
	}
}
