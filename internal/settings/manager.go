// Package settings owns the persisted bot-wide configuration document:
// global cooldown, crazy/streamer-only modes, global positioning, pacing
// delay, user groups and per-user throttle config.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/metrics"
)

const area = "settings"

// Manager guards the settings document behind a coarse lock. Readers get
// value snapshots; all mutations persist the full document synchronously.
type Manager struct {
	mu       sync.Mutex
	store    domain.DocumentStore
	settings domain.Settings
}

// NewManager loads the settings document. A missing or unreadable document
// leaves defaults in place and is logged, never raised.
func NewManager(ctx context.Context, store domain.DocumentStore) *Manager {
	m := &Manager{
		store: store,
		settings: domain.Settings{
			Version:               domain.SettingsVersion,
			GlobalCooldownSeconds: 30,
			AnimationDelaySeconds: int(domain.DefaultAnimationDelay.Seconds()),
		},
	}

	var loaded domain.Settings
	if err := store.Load(ctx, area, &loaded); err != nil {
		if errors.Is(err, domain.ErrNoDocument) {
			slog.Info("No settings document found, using defaults")
		} else {
			slog.Error("Failed to load settings document, using defaults", "error", err)
		}
		return m
	}

	loaded.Version = domain.SettingsVersion
	m.settings = loaded
	return m
}

// Get returns a copy of the current settings. Slices in the copy must be
// treated as read-only.
func (m *Manager) Get() domain.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Update replaces the mutable settings fields and persists. Group and user
// lists are managed through their own operations.
func (m *Manager) Update(ctx context.Context, updated domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated.Version = domain.SettingsVersion
	updated.UserGroups = m.settings.UserGroups
	updated.Users = m.settings.Users
	m.settings = updated
	return m.persist(ctx)
}

// UpsertGroup creates or renames a user group.
func (m *Manager) UpsertGroup(ctx context.Context, group domain.UserGroup) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(group.Name) == "" {
		return uuid.Nil, fmt.Errorf("group name must not be empty")
	}

	if group.ID == uuid.Nil {
		group.ID = uuid.New()
		m.settings.UserGroups = append(m.settings.UserGroups, &group)
		return group.ID, m.persist(ctx)
	}

	for i, existing := range m.settings.UserGroups {
		if existing.ID == group.ID {
			m.settings.UserGroups[i] = &group
			return group.ID, m.persist(ctx)
		}
	}
	return uuid.Nil, domain.ErrGroupNotFound
}

// DeleteGroup removes a user group.
func (m *Manager) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.settings.UserGroups {
		if existing.ID == id {
			m.settings.UserGroups = append(m.settings.UserGroups[:i], m.settings.UserGroups[i+1:]...)
			return m.persist(ctx)
		}
	}
	return domain.ErrGroupNotFound
}

// UpsertUser sets a user's ban/throttle configuration.
func (m *Manager) UpsertUser(ctx context.Context, user domain.UserConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(user.Name) == "" {
		return fmt.Errorf("user name must not be empty")
	}

	for i, existing := range m.settings.Users {
		if strings.EqualFold(existing.Name, user.Name) {
			m.settings.Users[i] = &user
			return m.persist(ctx)
		}
	}
	m.settings.Users = append(m.settings.Users, &user)
	return m.persist(ctx)
}

// User returns the throttle configuration for a user, if any.
func (m *Manager) User(name string) (domain.UserConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.settings.Users {
		if strings.EqualFold(existing.Name, name) {
			return *existing, true
		}
	}
	return domain.UserConfig{}, false
}

func (m *Manager) persist(ctx context.Context) error {
	if err := m.store.Save(ctx, area, &m.settings); err != nil {
		metrics.PersistFailuresTotal.WithLabelValues(area).Inc()
		slog.Error("Failed to persist settings document", "error", err)
		return err
	}
	return nil
}
