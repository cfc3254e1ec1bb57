package infrastructure

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSession struct {
	drops        chan struct{}
	reconnects   atomic.Int32
	reconnectErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{drops: make(chan struct{}, 1)}
}

func (f *fakeSession) Disconnects() <-chan struct{} { return f.drops }

func (f *fakeSession) Reconnect(ctx context.Context) error {
	f.reconnects.Add(1)
	return f.reconnectErr
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSupervisorReconnectsAfterDisconnect(t *testing.T) {
	logger := zerolog.Nop()
	session := newFakeSession()
	sup := NewSessionSupervisor(session, 10*time.Millisecond, 1, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sup.Run(ctx) }()

	session.drops <- struct{}{}
	waitFor(t, time.Second, func() bool { return session.reconnects.Load() == 1 })
}

func TestSupervisorRearmsPerDisconnect(t *testing.T) {
	logger := zerolog.Nop()
	session := newFakeSession()
	sup := NewSessionSupervisor(session, 5*time.Millisecond, 1, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sup.Run(ctx) }()

	session.drops <- struct{}{}
	waitFor(t, time.Second, func() bool { return session.reconnects.Load() == 1 })

	session.drops <- struct{}{}
	waitFor(t, time.Second, func() bool { return session.reconnects.Load() == 2 })
}

func TestSupervisorRetriesUpToAttempts(t *testing.T) {
	logger := zerolog.Nop()
	session := newFakeSession()
	session.reconnectErr = errors.New("still down")
	sup := NewSessionSupervisor(session, time.Millisecond, 3, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sup.Run(ctx) }()

	session.drops <- struct{}{}
	waitFor(t, time.Second, func() bool { return session.reconnects.Load() == 3 })

	// Exhausted: no further attempts without a new disconnect signal.
	time.Sleep(20 * time.Millisecond)
	if n := session.reconnects.Load(); n != 3 {
		t.Fatalf("reconnects = %d, want 3", n)
	}
}

func TestSupervisorStopsOnContextCancel(t *testing.T) {
	logger := zerolog.Nop()
	session := newFakeSession()
	sup := NewSessionSupervisor(session, time.Hour, 1, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}
}
