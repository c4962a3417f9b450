// Package ledger tracks cooldown and throttle state: per-animation
// last-played instants, per-user throttle records and the bot-wide
// last-trigger instant shared by all chat-originated plays.
package ledger

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/fiercekittenz/gifbot/internal/domain"
)

// userSource looks up persisted per-user throttle configuration.
type userSource interface {
	User(name string) (domain.UserConfig, bool)
}

type throttleRecord struct {
	lastThrottled time.Time
}

// Ledger is the cooldown/throttle state object. All reads and writes are
// serialized through one mutex because playback and dashboard edits race.
type Ledger struct {
	mu    sync.Mutex
	clock clockwork.Clock
	users userSource

	lastUsed    map[uuid.UUID]time.Time
	throttled   map[string]*throttleRecord
	lastTrigger time.Time
}

func New(clock clockwork.Clock, users userSource) *Ledger {
	return &Ledger{
		clock:     clock,
		users:     users,
		lastUsed:  make(map[uuid.UUID]time.Time),
		throttled: make(map[string]*throttleRecord),
	}
}

// IsOnCooldown reports whether the animation's per-animation cooldown
// window is still open.
func (l *Ledger) IsOnCooldown(a *domain.Animation) bool {
	if a.CooldownMinutes <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastUsed[a.ID]
	if !ok {
		return false
	}
	return l.clock.Since(last) < a.Cooldown()
}

// SetOnCooldown stamps the animation as just played. Called by the
// scheduler at play start, never by resolvers.
func (l *Ledger) SetOnCooldown(a *domain.Animation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.lastUsed[a.ID] = now
	a.LastUsed = now
}

// ClearCooldown drops the animation's timestamp (dashboard reset).
func (l *Ledger) ClearCooldown(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lastUsed, id)
}

// IsThrottled reports whether the user is banned or inside their personal
// throttle window.
func (l *Ledger) IsThrottled(username string) bool {
	cfg, ok := l.users.User(username)
	if !ok {
		return false
	}
	if cfg.Banned {
		return true
	}
	if cfg.ThrottleSeconds <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.throttled[normalize(username)]
	if !ok {
		return false
	}
	return l.clock.Since(record.lastThrottled) < time.Duration(cfg.ThrottleSeconds)*time.Second
}

// MarkThrottled updates the user's throttle timestamp. Applied only when a
// play was actually queued as a result of that user's message.
func (l *Ledger) MarkThrottled(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.throttled[normalize(username)] = &throttleRecord{lastThrottled: l.clock.Now()}
}

// IsOnGlobalCooldown reports whether the bot-wide chat cooldown window is
// still open. Applies only to chat-originated triggers.
func (l *Ledger) IsOnGlobalCooldown(window time.Duration) bool {
	if window <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastTrigger.IsZero() {
		return false
	}
	return l.clock.Since(l.lastTrigger) < window
}

// MarkGlobalTrigger stamps the bot-wide last-trigger instant.
func (l *Ledger) MarkGlobalTrigger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastTrigger = l.clock.Now()
}

func normalize(username string) string {
	return strings.ToLower(username)
}
