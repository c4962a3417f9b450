// Package scheduler serializes play requests onto one overlay layer. Each
// layer runs a dedicated worker that dequeues requests in order, honors
// priority pre-emption and the per-command single-flight constraint, and
// paces playback with inter-animation delays. Deactivation is deferred
// work scheduled for the play duration, never a blocking sleep inside the
// loop, so a stop-all can pre-empt it.
package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/ledger"
	"github.com/fiercekittenz/gifbot/internal/logging"
	"github.com/fiercekittenz/gifbot/internal/metrics"
	"github.com/fiercekittenz/gifbot/internal/settings"
)

const chatSendTimeout = 5 * time.Second

// streamerOnlyRetryDelay paces the skip-and-retry loop while streamer-only
// mode holds back non-manual requests.
const streamerOnlyRetryDelay = 1 * time.Second

type activeEntry struct {
	request *domain.PlayRequest
	cancel  chan struct{}
}

// Scheduler owns one layer's queue and active set. All queue and active
// mutation happens under its mutex; the playback loop is the only
// goroutine that dequeues.
type Scheduler struct {
	layer     string
	clock     clockwork.Clock
	publisher domain.OverlayPublisher
	chat      domain.ChatSender
	settings  *settings.Manager
	ledger    *ledger.Ledger
	log       *slog.Logger

	// persist saves the animation library after an enqueue, because
	// pulling variants flips played-once flags.
	persist func(context.Context) error

	mu             sync.Mutex
	queue          []*domain.PlayRequest
	active         map[string]*activeEntry
	chainRemaining int

	wake chan struct{}
	done chan struct{}
}

// New creates a scheduler for one layer. chat may be nil; persist may be
// nil in tests.
func New(layer string, clock clockwork.Clock, publisher domain.OverlayPublisher, chat domain.ChatSender, mgr *settings.Manager, led *ledger.Ledger, persist func(context.Context) error) *Scheduler {
	return &Scheduler{
		layer:     layer,
		clock:     clock,
		publisher: publisher,
		chat:      chat,
		settings:  mgr,
		ledger:    led,
		log:       logging.WithLayer(layer),
		persist:   persist,
		active:    make(map[string]*activeEntry),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Enqueue appends the primary request and its chain to the queue. Requests
// carrying a chat-message identity already present in the queue are
// dropped, making double-delivery from the chat transport idempotent.
// Priority batches splice to the front of the queue. Returns false when
// the request was de-duplicated away.
func (s *Scheduler) Enqueue(ctx context.Context, primary *domain.PlayRequest, chained []*domain.PlayRequest) bool {
	s.mu.Lock()
	if primary.ChatMessageID != "" {
		for _, queued := range s.queue {
			if queued.ChatMessageID == primary.ChatMessageID {
				s.mu.Unlock()
				metrics.DuplicatesDroppedTotal.Inc()
				s.log.Debug("Dropped duplicate request", "command", primary.Command, "chat_message_id", primary.ChatMessageID)
				return false
			}
		}
	}

	batch := make([]*domain.PlayRequest, 0, 1+len(chained))
	batch = append(batch, primary)
	batch = append(batch, chained...)

	if primary.Priority {
		// Front splice: rebuild the queue behind the new batch. O(n) per
		// priority enqueue, acceptable at interactive queue depth.
		s.queue = append(batch, s.queue...)
	} else {
		s.queue = append(s.queue, batch...)
	}
	metrics.QueueDepth.WithLabelValues(s.layer).Set(float64(len(s.queue)))
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	// Variant played-once flags changed while building this batch.
	if s.persist != nil {
		if err := s.persist(ctx); err != nil {
			s.log.Error("Failed to persist library after enqueue", "error", err)
		}
	}
	return true
}

// Run is the playback loop. It exits when ctx is cancelled, observed at
// the next dequeue or pacing sleep. In-flight deactivation timers also
// stop at cancellation without completing.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	s.log.Info("Playback worker started")

	for {
		request, ok := s.dequeue(ctx)
		if !ok {
			s.log.Info("Playback worker stopped")
			return
		}

		requeued := s.process(ctx, request)

		var delay time.Duration
		if requeued {
			delay = streamerOnlyRetryDelay
		} else {
			delay = s.nextDelay(request)
		}
		if !s.sleep(ctx, delay) {
			s.log.Info("Playback worker stopped")
			return
		}
	}
}

// Done is closed once the playback loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// StopAll clears the queue without processing it and force-deactivates
// every active command immediately, bypassing the deactivation timers.
// The worker keeps running.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	dropped := len(s.queue)
	s.queue = nil
	s.chainRemaining = 0

	entries := make([]*activeEntry, 0, len(s.active))
	for _, entry := range s.active {
		entries = append(entries, entry)
	}
	s.active = make(map[string]*activeEntry)

	metrics.QueueDepth.WithLabelValues(s.layer).Set(0)
	metrics.ActiveAnimations.WithLabelValues(s.layer).Set(0)
	s.mu.Unlock()

	for _, entry := range entries {
		close(entry.cancel)
		s.publisher.NotifyStop(entry.request.Command)
	}
	s.log.Info("Stopped all animations", "dropped_queued", dropped, "stopped_active", len(entries))
}

// QueueDepth returns the current queue length.
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// ActiveCommands returns the commands currently playing.
func (s *Scheduler) ActiveCommands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	commands := make([]string, 0, len(s.active))
	for command := range s.active {
		commands = append(commands, command)
	}
	return commands
}

func (s *Scheduler) dequeue(ctx context.Context) (*domain.PlayRequest, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			request := s.queue[0]
			s.queue = s.queue[1:]
			metrics.QueueDepth.WithLabelValues(s.layer).Set(float64(len(s.queue)))
			s.mu.Unlock()
			return request, true
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-s.wake:
		}
	}
}

// process plays one request. Returns true when the request was re-enqueued
// by streamer-only mode instead of played. Panics inside resolution or
// playback never kill the worker; they are logged and the loop moves on.
func (s *Scheduler) process(ctx context.Context, request *domain.PlayRequest) (requeued bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SchedulerPanicsTotal.Inc()
			s.log.Error("Playback panic recovered", "command", request.Command, "panic", r)
		}
	}()

	// Streamer-only mode holds back everything the streamer didn't fire
	// manually: skip-and-retry, not drop.
	if s.settings.Get().StreamerOnlyMode && !request.Manual {
		s.mu.Lock()
		s.queue = append(s.queue, request)
		metrics.QueueDepth.WithLabelValues(s.layer).Set(float64(len(s.queue)))
		s.mu.Unlock()
		return true
	}

	s.mu.Lock()
	if _, busy := s.active[request.Command]; busy {
		// Single-flight per command: the second request for a command is
		// dropped while the first occupies the slot.
		s.mu.Unlock()
		metrics.SingleFlightDropsTotal.Inc()
		s.log.Debug("Command already active, dropping request", "command", request.Command)
		return false
	}
	entry := &activeEntry{request: request, cancel: make(chan struct{})}
	s.active[request.Command] = entry
	metrics.ActiveAnimations.WithLabelValues(s.layer).Set(float64(len(s.active)))
	s.mu.Unlock()

	s.ledger.SetOnCooldown(request.Animation)
	metrics.PlaysTotal.WithLabelValues(s.layer).Inc()

	if pre := request.PreText(); pre != "" {
		s.sendChat(pre, request.User)
	}

	s.publisher.NotifyPlay(request.Snapshot())
	s.log.Info("Animation started", "command", request.Command, "user", request.User, "duration", request.Duration())

	go s.awaitDeactivation(ctx, entry)
	return false
}

// awaitDeactivation is the deferred deactivation unit: it fires after the
// play duration unless stop-all cancelled it first or shutdown abandoned
// it.
func (s *Scheduler) awaitDeactivation(ctx context.Context, entry *activeEntry) {
	timer := s.clock.NewTimer(entry.request.Duration())
	defer timer.Stop()

	select {
	case <-timer.Chan():
		s.deactivate(entry)
	case <-entry.cancel:
		// Force-deactivated by StopAll; it already notified.
	case <-ctx.Done():
		// Shutdown: exit without completing the deactivation.
	}
}

func (s *Scheduler) deactivate(entry *activeEntry) {
	command := entry.request.Command

	s.mu.Lock()
	current, ok := s.active[command]
	if !ok || current != entry {
		s.mu.Unlock()
		return
	}
	delete(s.active, command)
	metrics.ActiveAnimations.WithLabelValues(s.layer).Set(float64(len(s.active)))
	s.mu.Unlock()

	s.publisher.NotifyStop(command)
	s.log.Debug("Animation finished", "command", command)

	if post := entry.request.PostText(); post != "" {
		s.sendChat(post, entry.request.User)
	}
}

// nextDelay consumes the chain bookkeeping for the request just played and
// returns the pacing window before the next dequeue. While a chain is
// draining the short fixed delay keeps chained animations feeling
// continuous.
func (s *Scheduler) nextDelay(request *domain.PlayRequest) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.ChainedCount > 0 {
		s.chainRemaining = request.ChainedCount
	} else if s.chainRemaining > 0 {
		s.chainRemaining--
	}

	if s.chainRemaining > 0 {
		return domain.ChainedAnimationDelay
	}
	return s.settings.Get().AnimationDelay()
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

// sendChat substitutes the triggering username into the template and posts
// it. Chat failures are logged and swallowed; a failed send never stalls
// the queue.
func (s *Scheduler) sendChat(template, user string) {
	if s.chat == nil {
		return
	}

	text := strings.ReplaceAll(template, "{user}", user)
	ctx, cancel := context.WithTimeout(context.Background(), chatSendTimeout)
	defer cancel()

	if err := s.chat.SendMessage(ctx, text); err != nil {
		s.log.Warn("Failed to send chat message", "error", err)
	}
}
