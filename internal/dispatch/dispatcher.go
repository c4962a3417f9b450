// Package dispatch runs the inbound-event worker: one long-lived goroutine
// consuming normalized trigger events and feeding the play scheduler
// through throttle checks, eligibility resolution and request building.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/ledger"
	"github.com/fiercekittenz/gifbot/internal/library"
	"github.com/fiercekittenz/gifbot/internal/logging"
	"github.com/fiercekittenz/gifbot/internal/metrics"
	"github.com/fiercekittenz/gifbot/internal/scheduler"
	"github.com/fiercekittenz/gifbot/internal/trigger"
)

const eventBuffer = 256

// Dispatcher owns the event channel between producers (webhook handlers,
// chat transport, timers) and the single consuming worker.
type Dispatcher struct {
	events    chan domain.TriggerEvent
	library   *library.Library
	resolver  *trigger.Resolver
	alerts    *trigger.AlertSelector
	builder   *trigger.Builder
	scheduler *scheduler.Scheduler
	ledger    *ledger.Ledger
	done      chan struct{}
}

func New(lib *library.Library, resolver *trigger.Resolver, alerts *trigger.AlertSelector, builder *trigger.Builder, sched *scheduler.Scheduler, led *ledger.Ledger) *Dispatcher {
	return &Dispatcher{
		events:    make(chan domain.TriggerEvent, eventBuffer),
		library:   lib,
		resolver:  resolver,
		alerts:    alerts,
		builder:   builder,
		scheduler: sched,
		ledger:    led,
		done:      make(chan struct{}),
	}
}

// Submit hands an event to the worker without blocking the producer. When
// the channel is full the event is dropped and counted; trigger volume is
// human-paced, so a full channel means something is badly wrong already.
func (d *Dispatcher) Submit(ev domain.TriggerEvent) bool {
	metrics.EventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	select {
	case d.events <- ev:
		return true
	default:
		metrics.EventsDroppedTotal.Inc()
		logging.WithUser(ev.DisplayName).Warn("Event channel full, dropping event", "kind", string(ev.Kind))
		return false
	}
}

// Run consumes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	slog.Info("Event dispatcher started")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Event dispatcher stopped")
			return
		case ev := <-d.events:
			d.handle(ctx, ev)
		}
	}
}

// Done is closed once the worker has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// handle processes one event. A panic anywhere inside resolution is caught
// here so the worker survives to the next item.
func (d *Dispatcher) handle(ctx context.Context, ev domain.TriggerEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Dispatch panic recovered", "kind", string(ev.Kind), "panic", r)
		}
	}()

	switch ev.Kind {
	case domain.EventChat:
		d.handleChat(ctx, ev)
	case domain.EventBits:
		d.handleBits(ctx, ev)
	case domain.EventSub:
		d.enqueueAlert(ctx, d.alerts.SelectSub(d.library.AllEnabled(), ev), ev)
	case domain.EventGiftSub:
		d.enqueueAlert(ctx, d.alerts.SelectGiftSub(d.library.AllEnabled(), ev), ev)
	case domain.EventTip:
		d.enqueueAlert(ctx, d.alerts.SelectTip(d.library.AllEnabled(), ev), ev)
	case domain.EventDonation:
		d.enqueueAlert(ctx, d.alerts.SelectDonation(d.library.AllEnabled(), ev), ev)
	case domain.EventHost, domain.EventRaid:
		d.enqueueAlert(ctx, d.alerts.SelectChannel(d.library.AllEnabled(), ev), ev)
	case domain.EventHypeTrain:
		d.enqueueAlert(ctx, d.alerts.SelectHypeTrain(d.library.AllEnabled(), ev), ev)
	case domain.EventChannelPoint:
		d.enqueueAlert(ctx, d.alerts.SelectChannelPoint(d.library.AllEnabled(), ev), ev)
	default:
		slog.Warn("Unknown event kind", "kind", string(ev.Kind))
	}
}

// handleChat resolves a plain chat command: throttle gate first, then the
// ordered eligibility checks. Throttle and the global cooldown are marked
// only when a play was actually queued.
func (d *Dispatcher) handleChat(ctx context.Context, ev domain.TriggerEvent) {
	if d.ledger.IsThrottled(ev.DisplayName) {
		metrics.SkipsTotal.WithLabelValues("throttled").Inc()
		return
	}

	animation := d.library.FindByCommand(ev.RawMessage)
	if animation == nil {
		return
	}

	if !d.resolver.CanTrigger(ctx, animation, ev) {
		return
	}

	primary, chained := d.builder.Build(animation, ev, trigger.BuildOptions{})
	if !d.scheduler.Enqueue(ctx, primary, chained) {
		return
	}

	d.ledger.MarkThrottled(ev.DisplayName)
	d.ledger.MarkGlobalTrigger()
}

// handleBits matches a cheer through the bit selectors. Bit messages count
// against the user's throttle just like command plays.
func (d *Dispatcher) handleBits(ctx context.Context, ev domain.TriggerEvent) {
	if d.ledger.IsThrottled(ev.DisplayName) {
		metrics.SkipsTotal.WithLabelValues("throttled").Inc()
		return
	}

	animation := d.alerts.SelectBits(d.library.AllEnabled(), ev)
	if animation == nil {
		return
	}

	primary, chained := d.builder.Build(animation, ev, trigger.BuildOptions{})
	if !d.scheduler.Enqueue(ctx, primary, chained) {
		return
	}

	d.ledger.MarkThrottled(ev.DisplayName)
}

// enqueueAlert is the shared tail for alert-class events: no throttling,
// no global cooldown, straight to the queue.
func (d *Dispatcher) enqueueAlert(ctx context.Context, animation *domain.Animation, ev domain.TriggerEvent) {
	if animation == nil {
		return
	}
	primary, chained := d.builder.Build(animation, ev, trigger.BuildOptions{})
	d.scheduler.Enqueue(ctx, primary, chained)
}

// TriggerManual fires an animation by id as a priority request, the path
// used by the dashboard test button and administrative plays. It bypasses
// eligibility entirely.
func (d *Dispatcher) TriggerManual(ctx context.Context, id uuid.UUID, user string) error {
	animation := d.library.FindByID(id)
	if animation == nil {
		return domain.ErrAnimationNotFound
	}
	if !animation.HasPayload() {
		return domain.ErrAnimationNotFound
	}

	ev := domain.TriggerEvent{
		Kind:          domain.EventManual,
		DisplayName:   user,
		IsBroadcaster: true,
	}
	primary, chained := d.builder.Build(animation, ev, trigger.BuildOptions{Manual: true, Priority: true})
	d.scheduler.Enqueue(ctx, primary, chained)
	return nil
}
