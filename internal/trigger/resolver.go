package trigger

import (
	"context"
	"strings"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/ledger"
	"github.com/fiercekittenz/gifbot/internal/logging"
	"github.com/fiercekittenz/gifbot/internal/metrics"
	"github.com/fiercekittenz/gifbot/internal/settings"
)

// Resolver answers whether a plain chat command may trigger an animation.
// All checks short-circuit on first failure; rejections are expected
// control flow, not errors.
type Resolver struct {
	ledger   *ledger.Ledger
	settings *settings.Manager
	follow   domain.FollowChecker
}

// NewResolver creates a resolver. follow may be nil when the platform
// collaborator is not configured; follower-gated animations then reject.
func NewResolver(led *ledger.Ledger, mgr *settings.Manager, follow domain.FollowChecker) *Resolver {
	return &Resolver{
		ledger:   led,
		settings: mgr,
		follow:   follow,
	}
}

// CanTrigger applies the ordered eligibility checks for a chat-originated
// trigger of a.
func (r *Resolver) CanTrigger(ctx context.Context, a *domain.Animation, ev domain.TriggerEvent) bool {
	if a.Disabled {
		return r.skip(a, "disabled")
	}
	if !a.HasPayload() {
		return r.skip(a, "no_payload")
	}

	cfg := r.settings.Get()

	// The broadcaster and the bot's own account bypass every further
	// check, including the alert-class gate and cooldowns.
	if r.isPrivileged(ev, cfg) {
		return true
	}

	// Alert-class animations never fire from plain commands; they match
	// through their own selectors.
	if a.IsAlertOnly() {
		return r.skip(a, "alert_only")
	}

	if !r.checkAccess(ctx, a, ev, cfg) {
		return r.skip(a, "access_denied")
	}

	if r.ledger.IsOnCooldown(a) {
		return r.skip(a, "cooldown")
	}

	// The bot-wide cooldown gates chat-originated triggers only, and
	// crazy mode turns it off entirely.
	if ev.Kind == domain.EventChat && !cfg.CrazyMode {
		if r.ledger.IsOnGlobalCooldown(cfg.GlobalCooldown()) {
			return r.skip(a, "global_cooldown")
		}
	}

	return true
}

func (r *Resolver) isPrivileged(ev domain.TriggerEvent, cfg domain.Settings) bool {
	if ev.IsBroadcaster {
		return true
	}
	if cfg.BotName != "" && strings.EqualFold(ev.DisplayName, cfg.BotName) {
		return true
	}
	if cfg.BroadcasterName != "" && strings.EqualFold(ev.DisplayName, cfg.BroadcasterName) {
		return true
	}
	return false
}

func (r *Resolver) checkAccess(ctx context.Context, a *domain.Animation, ev domain.TriggerEvent, cfg domain.Settings) bool {
	switch a.Access.Kind {
	case domain.AccessAnyone, "":
		return true

	case domain.AccessFollower:
		if r.follow == nil {
			logging.WithAnimation(a.Command).Debug("Follower check unavailable, rejecting")
			return false
		}
		following, err := r.follow.IsFollower(ctx, ev.UserID)
		if err != nil {
			logging.WithAnimation(a.Command).Warn("Follow check failed", "user", ev.DisplayName, "error", err)
			return false
		}
		return following

	case domain.AccessSubscriber:
		return ev.IsSubscriber

	case domain.AccessVIP:
		return ev.IsVip

	case domain.AccessModerator:
		return ev.IsModerator

	case domain.AccessUserGroup:
		group := cfg.Group(a.Access.GroupID)
		return group != nil && group.Contains(ev.DisplayName)

	case domain.AccessSpecificViewer:
		if !strings.EqualFold(a.Access.ViewerName, ev.DisplayName) {
			return false
		}
		return !a.Access.ViewerMustBeSub || ev.IsSubscriber

	case domain.AccessBotOnly:
		// Only internal bot flows may fire these, never plain chat.
		return false

	default:
		logging.WithAnimation(a.Command).Warn("Unknown access policy, rejecting", "kind", string(a.Access.Kind))
		return false
	}
}

func (r *Resolver) skip(a *domain.Animation, reason string) bool {
	metrics.SkipsTotal.WithLabelValues(reason).Inc()
	logging.WithAnimation(a.Command).Debug("Trigger skipped", "reason", reason)
	return false
}
