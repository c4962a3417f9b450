package domain

import "context"

// OverlayPublisher is the broadcast collaborator notified at playback
// start/stop. Delivery is fire-and-forget, at-most-once; the scheduler
// never retries a failed publish.
type OverlayPublisher interface {
	NotifyPlay(snapshot PlaySnapshot)
	NotifyStop(command string)
}

// ChatSender posts a message back to the channel's chat.
type ChatSender interface {
	SendMessage(ctx context.Context, text string) error
}

// FollowChecker answers live follow checks against the platform for
// follower-gated animations.
type FollowChecker interface {
	IsFollower(ctx context.Context, userID string) (bool, error)
}

// DocumentStore persists one serialized document per feature area.
// Loads and saves are whole-document: no partial writes.
type DocumentStore interface {
	Load(ctx context.Context, area string, v any) error
	Save(ctx context.Context, area string, v any) error
}
