// Package coordination fans play/stop notifications out across instances
// through Redis pub/sub, so overlay clients connected to another instance
// stay in sync. Everything here is best-effort: a failed publish is logged
// and forgotten.
package coordination

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/metrics"
)

const (
	playChannel = "overlay:play"
	stopChannel = "overlay:stop"
)

type playEnvelope struct {
	Instance string              `json:"instance"`
	Play     domain.PlaySnapshot `json:"play"`
}

type stopEnvelope struct {
	Instance string `json:"instance"`
	Command  string `json:"command"`
}

// Publisher mirrors local play/stop notifications onto Redis channels and
// forwards them to the local hub. It implements domain.OverlayPublisher.
// Envelopes carry an instance id so a node never replays its own messages.
type Publisher struct {
	redis    *redis.Client
	local    domain.OverlayPublisher
	instance string
}

func NewPublisher(client *redis.Client, local domain.OverlayPublisher, instance uuid.UUID) *Publisher {
	return &Publisher{redis: client, local: local, instance: instance.String()}
}

// NotifyPlay delivers locally and broadcasts to peers.
func (p *Publisher) NotifyPlay(snapshot domain.PlaySnapshot) {
	p.local.NotifyPlay(snapshot)

	data, err := json.Marshal(playEnvelope{Instance: p.instance, Play: snapshot})
	if err != nil {
		slog.Error("Failed to marshal play notification", "error", err)
		return
	}
	if err := p.redis.Publish(context.Background(), playChannel, data).Err(); err != nil {
		slog.Warn("Failed to publish play notification", "error", err)
		return
	}
	metrics.PubSubMessagesPublished.WithLabelValues(playChannel).Inc()
}

// NotifyStop delivers locally and broadcasts to peers.
func (p *Publisher) NotifyStop(command string) {
	p.local.NotifyStop(command)

	data, err := json.Marshal(stopEnvelope{Instance: p.instance, Command: command})
	if err != nil {
		slog.Error("Failed to marshal stop notification", "error", err)
		return
	}
	if err := p.redis.Publish(context.Background(), stopChannel, data).Err(); err != nil {
		slog.Warn("Failed to publish stop notification", "error", err)
		return
	}
	metrics.PubSubMessagesPublished.WithLabelValues(stopChannel).Inc()
}

// Listener replays peer play/stop messages into the local hub.
type Listener struct {
	redis    *redis.Client
	local    domain.OverlayPublisher
	instance string
}

func NewListener(client *redis.Client, local domain.OverlayPublisher, instance uuid.UUID) *Listener {
	return &Listener{redis: client, local: local, instance: instance.String()}
}

// Start blocks until ctx is cancelled, forwarding peer messages to the
// local publisher.
func (l *Listener) Start(ctx context.Context) {
	pubsub := l.redis.Subscribe(ctx, playChannel, stopChannel)
	defer func() {
		_ = pubsub.Close()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				return
			}
			l.handle(msg.Channel, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Listener) handle(channel, payload string) {
	switch channel {
	case playChannel:
		var envelope playEnvelope
		if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
			slog.Warn("Invalid play notification from peer", "error", err)
			return
		}
		if envelope.Instance == l.instance {
			return
		}
		l.local.NotifyPlay(envelope.Play)
	case stopChannel:
		var envelope stopEnvelope
		if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
			slog.Warn("Invalid stop notification from peer", "error", err)
			return
		}
		if envelope.Instance == l.instance {
			return
		}
		l.local.NotifyStop(envelope.Command)
	}
}
