// Package ratelimit admits requests per client using two sliding windows.
//
// Every accepted request's timestamp is retained for the long horizon, so
// counts are exact at any instant: there is no bucket edge at which a fixed
// window would reset and let a second burst through.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pario-ai/memogate/pkg/clock"
	"github.com/pario-ai/memogate/pkg/models"
)

var (
	// ErrInvalidClient is returned for an empty client identity.
	ErrInvalidClient = errors.New("invalid client identity")
	// ErrInvalidConfig is returned by New for non-positive limits or horizons.
	ErrInvalidConfig = errors.New("invalid rate limit config")
)

// Config holds the two windows enforced for every client.
type Config struct {
	ShortLimit   int
	ShortHorizon time.Duration
	LongLimit    int
	LongHorizon  time.Duration
}

// DefaultConfig allows 10 requests per minute and 100 per hour.
func DefaultConfig() Config {
	return Config{
		ShortLimit:   10,
		ShortHorizon: time.Minute,
		LongLimit:    100,
		LongHorizon:  time.Hour,
	}
}

func (c Config) validate() error {
	switch {
	case c.ShortLimit <= 0 || c.LongLimit <= 0:
		return fmt.Errorf("%w: limits must be positive", ErrInvalidConfig)
	case c.ShortHorizon <= 0 || c.LongHorizon <= 0:
		return fmt.Errorf("%w: horizons must be positive", ErrInvalidConfig)
	case c.ShortHorizon > c.LongHorizon:
		return fmt.Errorf("%w: short horizon %v exceeds long horizon %v", ErrInvalidConfig, c.ShortHorizon, c.LongHorizon)
	}
	return nil
}

// Limiter tracks accepted request timestamps per client identity.
type Limiter struct {
	cfg Config

	mu   sync.Mutex
	logs map[string][]time.Time

	clock    clock.Clock
	log      zerolog.Logger
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithLogger sets the logger used for decisions.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// WithSweepInterval starts a background sweep that forgets idle clients.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) { l.interval = d }
}

// New creates a Limiter enforcing cfg.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	l := &Limiter{
		cfg:   cfg,
		logs:  make(map[string][]time.Time),
		clock: clock.System{},
		log:   zerolog.Nop(),
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.startSweeper()

	l.log.Info().
		Int("short_limit", cfg.ShortLimit).Dur("short_horizon", cfg.ShortHorizon).
		Int("long_limit", cfg.LongLimit).Dur("long_horizon", cfg.LongHorizon).
		Msg("rate limiter initialized")
	return l, nil
}

// Config returns the windows the limiter enforces.
func (l *Limiter) Config() Config { return l.cfg }

// CheckAndRecord decides whether clientID may make a request now and, if so,
// records it. A denial is a normal decision, not an error.
func (l *Limiter) CheckAndRecord(clientID string) (models.LimitDecision, error) {
	if clientID == "" {
		return models.LimitDecision{}, ErrInvalidClient
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	ts := l.prune(clientID, now)
	countShort, countLong := l.counts(ts, now)

	if reason := l.verdict(countShort, countLong); reason != models.ReasonOK {
		l.log.Warn().
			Str("client", clientID).
			Int("short", countShort).
			Int("long", countLong).
			Str("reason", reason).
			Msg("request denied")
		return l.denied(reason, countShort, countLong), nil
	}

	l.logs[clientID] = append(ts, now)
	l.log.Debug().
		Str("client", clientID).
		Int("short", countShort+1).
		Int("long", countLong+1).
		Msg("request admitted")

	return models.LimitDecision{
		Allowed:        true,
		Reason:         models.ReasonOK,
		RemainingShort: l.cfg.ShortLimit - countShort - 1,
		RemainingLong:  l.cfg.LongLimit - countLong - 1,
	}, nil
}

// Stats reports clientID's current window usage without recording a request.
func (l *Limiter) Stats(clientID string) (models.LimitStatus, error) {
	if clientID == "" {
		return models.LimitStatus{}, ErrInvalidClient
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	countShort, countLong := l.counts(l.prune(clientID, now), now)
	reason := l.verdict(countShort, countLong)
	return models.LimitStatus{
		ClientID:       clientID,
		Allowed:        reason == models.ReasonOK,
		Reason:         reason,
		CountShort:     countShort,
		CountLong:      countLong,
		LimitShort:     l.cfg.ShortLimit,
		LimitLong:      l.cfg.LongLimit,
		RemainingShort: max(l.cfg.ShortLimit-countShort, 0),
		RemainingLong:  max(l.cfg.LongLimit-countLong, 0),
	}, nil
}

// Clients returns the number of client identities currently tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.logs)
}

// Close stops the background sweeper.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// verdict returns the reason a request with these counts would get. The
// short window is checked first.
func (l *Limiter) verdict(countShort, countLong int) string {
	switch {
	case countShort >= l.cfg.ShortLimit:
		return models.ReasonShortWindow
	case countLong >= l.cfg.LongLimit:
		return models.ReasonLongWindow
	}
	return models.ReasonOK
}

func (l *Limiter) denied(reason string, countShort, countLong int) models.LimitDecision {
	return models.LimitDecision{
		Allowed:        false,
		Reason:         reason,
		RemainingShort: max(l.cfg.ShortLimit-countShort, 0),
		RemainingLong:  max(l.cfg.LongLimit-countLong, 0),
	}
}

// prune drops timestamps at or before now-LongHorizon and returns what is
// left. Clients without a log are not added to the map. Caller holds mu.
func (l *Limiter) prune(clientID string, now time.Time) []time.Time {
	ts, ok := l.logs[clientID]
	if !ok {
		return nil
	}
	cutoff := now.Add(-l.cfg.LongHorizon)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(ts, ts[i:])
		ts = ts[:n]
		l.logs[clientID] = ts
	}
	return ts
}

// counts returns the number of timestamps inside the short and long windows.
// ts must already be pruned to the long horizon.
func (l *Limiter) counts(ts []time.Time, now time.Time) (short, long int) {
	cutoff := now.Add(-l.cfg.ShortHorizon)
	for i := len(ts) - 1; i >= 0 && ts[i].After(cutoff); i-- {
		short++
	}
	return short, len(ts)
}
