package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/ledger"
	"github.com/fiercekittenz/gifbot/internal/library"
	"github.com/fiercekittenz/gifbot/internal/scheduler"
	"github.com/fiercekittenz/gifbot/internal/settings"
	"github.com/fiercekittenz/gifbot/internal/trigger"
)

// --- Mocks ---

type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (m *memStore) Load(_ context.Context, area string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.docs[area]
	if !ok {
		return domain.ErrNoDocument
	}
	return json.Unmarshal(data, v)
}

func (m *memStore) Save(_ context.Context, area string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.docs[area] = data
	return nil
}

type nopPublisher struct{}

func (nopPublisher) NotifyPlay(domain.PlaySnapshot) {}
func (nopPublisher) NotifyStop(string)              {}

// --- Fixture ---

type fixture struct {
	dispatcher *Dispatcher
	library    *library.Library
	settings   *settings.Manager
	ledger     *ledger.Ledger
	scheduler  *scheduler.Scheduler
	clock      *clockwork.FakeClock
}

// newFixture wires the full resolution pipeline against an in-memory
// store. The scheduler is not running: queue depth is the observable.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClock()
	lib := library.New(context.Background(), newMemStore())
	mgr := settings.NewManager(context.Background(), newMemStore())
	led := ledger.New(clock, mgr)
	sched := scheduler.New("base", clock, nopPublisher{}, nil, mgr, led, nil)

	resolver := trigger.NewResolver(led, mgr, nil)
	alerts := trigger.NewAlertSelector()
	builder := trigger.NewBuilder(lib, mgr, "base")

	return &fixture{
		dispatcher: New(lib, resolver, alerts, builder, sched, led),
		library:    lib,
		settings:   mgr,
		ledger:     led,
		scheduler:  sched,
		clock:      clock,
	}
}

func (f *fixture) addAnimation(t *testing.T, a *domain.Animation) uuid.UUID {
	t.Helper()

	categories := f.library.Categories()
	if len(categories) == 0 {
		_, err := f.library.AddCategory(context.Background(), "Test")
		require.NoError(t, err)
		categories = f.library.Categories()
	}

	id, err := f.library.AddAnimation(context.Background(), categories[0].ID, a)
	require.NoError(t, err)
	return id
}

// --- Chat events ---

func TestHandleChatQueuesMatchingCommand(t *testing.T) {
	f := newFixture(t)
	f.addAnimation(t, &domain.Animation{Command: "!hug", Visual: "hug.gif"})

	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "!hug everyone",
		DisplayName: "viewer",
	})

	assert.Equal(t, 1, f.scheduler.QueueDepth())
}

func TestHandleChatIgnoresUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.addAnimation(t, &domain.Animation{Command: "!hug", Visual: "hug.gif"})

	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "hello chat",
		DisplayName: "viewer",
	})

	assert.Equal(t, 0, f.scheduler.QueueDepth())
}

func TestHandleChatMarksThrottleOnlyAfterQueueing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.settings.UpsertUser(context.Background(), domain.UserConfig{
		Name:            "viewer",
		ThrottleSeconds: 60,
	}))
	f.addAnimation(t, &domain.Animation{Command: "!hug", Visual: "hug.gif"})

	// A miss must not start the throttle window.
	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "no command here",
		DisplayName: "viewer",
	})
	assert.False(t, f.ledger.IsThrottled("viewer"))

	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "!hug",
		DisplayName: "viewer",
	})
	assert.Equal(t, 1, f.scheduler.QueueDepth())
	assert.True(t, f.ledger.IsThrottled("viewer"))

	// While throttled, further commands never reach the queue.
	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "!hug",
		DisplayName: "viewer",
	})
	assert.Equal(t, 1, f.scheduler.QueueDepth())
}

func TestHandleChatStampsGlobalCooldown(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.settings.Update(context.Background(), domain.Settings{GlobalCooldownSeconds: 30}))
	f.addAnimation(t, &domain.Animation{Command: "!hug", Visual: "hug.gif"})
	f.addAnimation(t, &domain.Animation{Command: "!wave", Visual: "wave.gif"})

	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "!hug",
		DisplayName: "alice",
	})
	require.Equal(t, 1, f.scheduler.QueueDepth())

	// A different user hits the bot-wide cooldown.
	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "!wave",
		DisplayName: "bob",
	})
	assert.Equal(t, 1, f.scheduler.QueueDepth())

	f.clock.Advance(30 * time.Second)
	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventChat,
		RawMessage:  "!wave",
		DisplayName: "bob",
	})
	assert.Equal(t, 2, f.scheduler.QueueDepth())
}

// --- Alert events ---

func TestHandleBitsSelectsAndQueues(t *testing.T) {
	f := newFixture(t)
	f.addAnimation(t, &domain.Animation{
		Command: "!boom",
		Visual:  "boom.gif",
		Bits:    &domain.BitAlert{Behavior: domain.BitMinimumAtLeast, Amount: 100},
	})

	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventBits,
		DisplayName: "viewer",
		Bits:        500,
	})

	assert.Equal(t, 1, f.scheduler.QueueDepth())
	assert.False(t, f.ledger.IsThrottled("viewer"), "throttle applies only to configured users")
}

func TestHandleSubEventQueuesAlert(t *testing.T) {
	f := newFixture(t)
	f.addAnimation(t, &domain.Animation{
		Command: "!newsub",
		Visual:  "sub.gif",
		Sub:     &domain.SubAlert{},
	})

	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventSub,
		DisplayName: "viewer",
		Tier:        1,
		Months:      1,
	})

	assert.Equal(t, 1, f.scheduler.QueueDepth())
}

func TestAlertEventsBypassGlobalCooldown(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.settings.Update(context.Background(), domain.Settings{GlobalCooldownSeconds: 30}))
	f.ledger.MarkGlobalTrigger()

	f.addAnimation(t, &domain.Animation{
		Command: "!raid",
		Visual:  "raid.gif",
		Channel: &domain.ChannelAlert{OnRaid: true},
	})

	f.dispatcher.handle(context.Background(), domain.TriggerEvent{
		Kind:        domain.EventRaid,
		DisplayName: "friendchannel",
	})

	assert.Equal(t, 1, f.scheduler.QueueDepth())
}

// --- Manual trigger ---

func TestTriggerManualQueuesPriorityRequest(t *testing.T) {
	f := newFixture(t)
	id := f.addAnimation(t, &domain.Animation{
		Command:  "!hug",
		Visual:   "hug.gif",
		Disabled: false,
	})

	require.NoError(t, f.dispatcher.TriggerManual(context.Background(), id, "streamer"))
	assert.Equal(t, 1, f.scheduler.QueueDepth())
}

func TestTriggerManualUnknownAnimation(t *testing.T) {
	f := newFixture(t)
	err := f.dispatcher.TriggerManual(context.Background(), uuid.New(), "streamer")
	assert.ErrorIs(t, err, domain.ErrAnimationNotFound)
}

// --- Submit ---

func TestSubmitDropsWhenChannelFull(t *testing.T) {
	f := newFixture(t)

	// Nobody is consuming: fill the channel to the brim.
	for i := 0; i < eventBuffer; i++ {
		require.True(t, f.dispatcher.Submit(domain.TriggerEvent{Kind: domain.EventChat, DisplayName: "v"}))
	}
	assert.False(t, f.dispatcher.Submit(domain.TriggerEvent{Kind: domain.EventChat, DisplayName: "v"}))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	go f.dispatcher.Run(ctx)
	cancel()

	select {
	case <-f.dispatcher.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
