package domain

import "time"

// PlayRequest is one scheduled unit of playback derived from a triggered
// animation. Requests are ephemeral: built by the request builder, consumed
// and discarded by the scheduler, never persisted.
type PlayRequest struct {
	Animation *Animation
	Variant   *Variant

	Command   string
	Layer     string
	Placement Placement

	User          string
	Amount        int
	ChatMessageID string

	// Priority requests (manual/administrative plays) splice to the front
	// of the queue.
	Priority bool
	// Manual marks a play fired by the streamer; streamer-only mode lets
	// these through while re-enqueueing everything else.
	Manual bool

	// ChainedCount is the number of trailing chained requests enqueued
	// right behind this one. The scheduler shortens pacing while the
	// chain drains.
	ChainedCount int
}

// Duration resolves the effective play duration: the variant override wins
// when a variant is selected.
func (r *PlayRequest) Duration() time.Duration {
	if r.Variant != nil && r.Variant.DurationMs > 0 {
		return r.Variant.Duration()
	}
	return r.Animation.Duration()
}

// PreText resolves the pre-play chat text, variant override first.
func (r *PlayRequest) PreText() string {
	if r.Variant != nil && r.Variant.PreText != "" {
		return r.Variant.PreText
	}
	return r.Animation.PreText
}

// PostText resolves the post-play chat text, variant override first.
func (r *PlayRequest) PostText() string {
	if r.Variant != nil && r.Variant.PostText != "" {
		return r.Variant.PostText
	}
	return r.Animation.PostText
}

// PlaySnapshot is the JSON frame published to overlay clients when a
// request starts playing.
type PlaySnapshot struct {
	Command    string    `json:"command"`
	Visual     string    `json:"visual,omitempty"`
	Audio      string    `json:"audio,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Volume     float64   `json:"volume"`
	Placement  Placement `json:"placement"`
	Layer      string    `json:"layer"`
	User       string    `json:"user,omitempty"`
	Amount     int       `json:"amount,omitempty"`
}

// Snapshot flattens the request and its variant into the wire frame.
func (r *PlayRequest) Snapshot() PlaySnapshot {
	snap := PlaySnapshot{
		Command:    r.Command,
		Visual:     r.Animation.Visual,
		Audio:      r.Animation.Audio,
		DurationMs: r.Duration().Milliseconds(),
		Volume:     r.Animation.Volume,
		Placement:  r.Placement,
		Layer:      r.Layer,
		User:       r.User,
		Amount:     r.Amount,
	}
	if r.Variant != nil {
		if r.Variant.Visual != "" {
			snap.Visual = r.Variant.Visual
		}
		if r.Variant.Audio != "" {
			snap.Audio = r.Variant.Audio
		}
		if r.Variant.Volume > 0 {
			snap.Volume = r.Variant.Volume
		}
	}
	return snap
}
