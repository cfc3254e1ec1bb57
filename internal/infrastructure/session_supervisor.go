package infrastructure

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// reconnectable is the slice of the WhatsApp client the supervisor needs.
type reconnectable interface {
	Disconnects() <-chan struct{}
	Reconnect(ctx context.Context) error
}

// SessionSupervisor reinitializes the messaging session after transport
// drops. The policy is a one-shot supervised restart: every disconnect
// signal arms one delayed reconnect cycle, unconditionally, with no backoff.
type SessionSupervisor struct {
	session  reconnectable
	delay    time.Duration
	attempts int
	log      *zerolog.Logger
}

func NewSessionSupervisor(session reconnectable, delay time.Duration, attempts int, logger *zerolog.Logger) *SessionSupervisor {
	if attempts < 1 {
		attempts = 1
	}
	supLog := logger.With().Str("component", "SessionSupervisor").Logger()
	return &SessionSupervisor{
		session:  session,
		delay:    delay,
		attempts: attempts,
		log:      &supLog,
	}
}

// Run blocks until ctx is cancelled, servicing disconnect signals.
func (s *SessionSupervisor) Run(ctx context.Context) error {
	s.log.Info().Dur("delay", s.delay).Int("attempts", s.attempts).Msg("supervisor started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("supervisor stopped")
			return ctx.Err()
		case <-s.session.Disconnects():
			s.reconnectCycle(ctx)
		}
	}
}

func (s *SessionSupervisor) reconnectCycle(ctx context.Context) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if !s.wait(ctx) {
			return
		}
		s.log.Info().Int("attempt", attempt).Msg("reinitializing session")
		if err := s.session.Reconnect(ctx); err != nil {
			s.log.Error().Err(err).Int("attempt", attempt).Msg("reconnect failed")
			continue
		}
		s.log.Info().Msg("session reinitialized")
		return
	}
	// Exhausted this cycle; the next disconnect event re-arms it.
	s.log.Error().Int("attempts", s.attempts).Msg("reconnect attempts exhausted")
}

func (s *SessionSupervisor) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
