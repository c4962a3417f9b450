package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SettingsVersion is the current settings document schema version.
const SettingsVersion = 1

// DefaultAnimationDelay is the normal pacing window between animations.
const DefaultAnimationDelay = 5 * time.Second

// ChainedAnimationDelay is the shortened pacing window while a chain drains,
// so chained animations feel continuous.
const ChainedAnimationDelay = 500 * time.Millisecond

// UserGroup is a named member list referenced by AccessUserGroup policies.
type UserGroup struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Members []string  `json:"members"`
}

// Contains reports whether name appears in the group, case-insensitively.
func (g *UserGroup) Contains(name string) bool {
	for _, member := range g.Members {
		if strings.EqualFold(member, name) {
			return true
		}
	}
	return false
}

// UserConfig is the persisted per-user throttle configuration.
type UserConfig struct {
	Name            string `json:"name"`
	Banned          bool   `json:"banned"`
	ThrottleSeconds int    `json:"throttleSeconds"`
}

// Settings is the persisted bot-wide configuration document.
type Settings struct {
	Version int `json:"version"`

	BotName         string `json:"botName"`
	BroadcasterName string `json:"broadcasterName"`

	GlobalCooldownSeconds int  `json:"globalCooldownSeconds"`
	CrazyMode             bool `json:"crazyMode"`
	StreamerOnlyMode      bool `json:"streamerOnlyMode"`

	UseGlobalPositioning bool      `json:"useGlobalPositioning"`
	GlobalPlacement      Placement `json:"globalPlacement"`

	AnimationDelaySeconds int `json:"animationDelaySeconds"`

	UserGroups []*UserGroup  `json:"userGroups,omitempty"`
	Users      []*UserConfig `json:"users,omitempty"`
}

// AnimationDelay returns the configured inter-animation pacing window.
func (s Settings) AnimationDelay() time.Duration {
	if s.AnimationDelaySeconds <= 0 {
		return DefaultAnimationDelay
	}
	return time.Duration(s.AnimationDelaySeconds) * time.Second
}

// GlobalCooldown returns the bot-wide chat cooldown window.
func (s Settings) GlobalCooldown() time.Duration {
	return time.Duration(s.GlobalCooldownSeconds) * time.Second
}

// Group finds a user group by id.
func (s Settings) Group(id uuid.UUID) *UserGroup {
	for _, g := range s.UserGroups {
		if g.ID == id {
			return g
		}
	}
	return nil
}
