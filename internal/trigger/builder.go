package trigger

import (
	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/library"
	"github.com/fiercekittenz/gifbot/internal/logging"
	"github.com/fiercekittenz/gifbot/internal/settings"
)

// Builder expands a triggered animation into one primary play request plus
// its chained follow-ups.
type Builder struct {
	library  *library.Library
	settings *settings.Manager
	layer    string
}

func NewBuilder(lib *library.Library, mgr *settings.Manager, layer string) *Builder {
	return &Builder{
		library:  lib,
		settings: mgr,
		layer:    layer,
	}
}

// BuildOptions carries the trigger-path flags onto the requests.
type BuildOptions struct {
	Manual   bool
	Priority bool
}

// Build constructs the primary request and one request per resolvable
// chained command. Disabled or missing chain targets are skipped. Each
// request pulls its own variant independently; the chained count on the
// primary lets the scheduler shorten pacing while the chain drains.
func (b *Builder) Build(a *domain.Animation, ev domain.TriggerEvent, opts BuildOptions) (*domain.PlayRequest, []*domain.PlayRequest) {
	cfg := b.settings.Get()

	primary := b.request(a, ev, cfg)
	primary.ChatMessageID = ev.ChatMessageID
	primary.Manual = opts.Manual
	primary.Priority = opts.Priority

	var chained []*domain.PlayRequest
	for _, command := range a.ChainedCommands {
		target := b.library.FindByCommand(command)
		if target == nil {
			logging.WithAnimation(command).Debug("Chained command not found, skipping")
			continue
		}
		if target.Disabled || !target.HasPayload() {
			logging.WithAnimation(command).Debug("Chained animation not playable, skipping")
			continue
		}

		follow := b.request(target, ev, cfg)
		follow.Manual = opts.Manual
		follow.Priority = opts.Priority
		chained = append(chained, follow)
	}

	primary.ChainedCount = len(chained)
	return primary, chained
}

func (b *Builder) request(a *domain.Animation, ev domain.TriggerEvent, cfg domain.Settings) *domain.PlayRequest {
	placement := a.Placement
	if cfg.UseGlobalPositioning {
		placement = cfg.GlobalPlacement
	}

	return &domain.PlayRequest{
		Animation: a,
		Variant:   b.library.PullVariant(a),
		Command:   a.Command,
		Layer:     b.layer,
		Placement: placement,
		User:      ev.DisplayName,
		Amount:    ev.Bits,
	}
}
