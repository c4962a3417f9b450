package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxCommandLength is the maximum length of an animation command.
const MaxCommandLength = 20

// AccessKind discriminates the access policy variants.
type AccessKind string

const (
	AccessAnyone         AccessKind = "anyone"
	AccessFollower       AccessKind = "follower"
	AccessSubscriber     AccessKind = "subscriber"
	AccessVIP            AccessKind = "vip"
	AccessModerator      AccessKind = "moderator"
	AccessUserGroup      AccessKind = "user_group"
	AccessSpecificViewer AccessKind = "specific_viewer"
	AccessBotOnly        AccessKind = "bot_only"
)

// AccessPolicy is a tagged union over who may trigger an animation.
// Only the fields relevant to Kind are populated.
type AccessPolicy struct {
	Kind            AccessKind `json:"kind"`
	GroupID         uuid.UUID  `json:"groupId,omitempty"`
	ViewerName      string     `json:"viewerName,omitempty"`
	ViewerMustBeSub bool       `json:"viewerMustBeSub,omitempty"`
}

// BitBehavior selects how a bit alert matches cheered amounts.
type BitBehavior string

const (
	BitExactMatch     BitBehavior = "exact"
	BitMinimumAtLeast BitBehavior = "minimum"
)

// BitAlert configures an animation to fire on bit cheers.
type BitAlert struct {
	Behavior BitBehavior `json:"behavior"`
	Amount   int         `json:"amount"`
}

// SubAlert configures an animation to fire on subscriptions and resubs.
type SubAlert struct {
	MinTier   int `json:"minTier"`
	MinMonths int `json:"minMonths"`
}

// GiftSubAlert configures an animation to fire on gifted subscriptions.
type GiftSubAlert struct {
	MinCount int `json:"minCount"`
}

// TipAlert configures an animation to fire on streamer tips.
type TipAlert struct {
	MinAmount float64 `json:"minAmount"`
}

// DonationAlert configures an animation to fire on charity donations.
type DonationAlert struct {
	MinAmount float64 `json:"minAmount"`
}

// ChannelAlert configures an animation to fire on hosts and raids,
// optionally restricted to a single source channel.
type ChannelAlert struct {
	OnHost         bool   `json:"onHost"`
	OnRaid         bool   `json:"onRaid"`
	RestrictedUser string `json:"restrictedUser,omitempty"`
}

// HypeTrainAlert configures an animation to fire when a hype train
// reaches at least the given level.
type HypeTrainAlert struct {
	Level int `json:"level"`
}

// ChannelPointAlert configures an animation to fire on a channel-point
// redemption of the given type.
type ChannelPointAlert struct {
	RedemptionType string `json:"redemptionType"`
}

// Placement is the overlay rectangle an animation renders into.
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Variant is an alternate payload for an animation. Zero-valued fields
// fall back to the parent animation's values.
type Variant struct {
	ID         uuid.UUID `json:"id"`
	Visual     string    `json:"visual,omitempty"`
	Audio      string    `json:"audio,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	Volume     float64   `json:"volume,omitempty"`
	PreText    string    `json:"preText,omitempty"`
	PostText   string    `json:"postText,omitempty"`
	Played     bool      `json:"played"`
}

// Duration returns the variant override as a time.Duration (0 = no override).
func (v *Variant) Duration() time.Duration {
	return time.Duration(v.DurationMs) * time.Millisecond
}

// Animation is one configured trigger→payload mapping.
type Animation struct {
	ID       uuid.UUID    `json:"id"`
	Command  string       `json:"command"`
	Disabled bool         `json:"disabled"`
	Access   AccessPolicy `json:"access"`

	Visual     string    `json:"visual,omitempty"`
	Audio      string    `json:"audio,omitempty"`
	Placement  Placement `json:"placement"`
	Volume     float64   `json:"volume"`
	DurationMs int64     `json:"durationMs"`

	CooldownMinutes int `json:"cooldownMinutes"`

	Bits         *BitAlert          `json:"bits,omitempty"`
	Sub          *SubAlert          `json:"sub,omitempty"`
	GiftSub      *GiftSubAlert      `json:"giftSub,omitempty"`
	Tip          *TipAlert          `json:"tip,omitempty"`
	Donation     *DonationAlert     `json:"donation,omitempty"`
	Channel      *ChannelAlert      `json:"channel,omitempty"`
	HypeTrain    *HypeTrainAlert    `json:"hypeTrain,omitempty"`
	ChannelPoint *ChannelPointAlert `json:"channelPoint,omitempty"`

	PreText  string `json:"preText,omitempty"`
	PostText string `json:"postText,omitempty"`

	ChainedCommands []string   `json:"chainedCommands,omitempty"`
	Variants        []*Variant `json:"variants,omitempty"`

	// PlayAllVariants makes every variant (and the original payload)
	// surface once before any repeats.
	PlayAllVariants bool `json:"playAllVariants"`
	OriginalPlayed  bool `json:"originalPlayed"`

	// Legacy v1 fields, rewritten into Bits on load.
	LegacyRequiresBits *bool `json:"requiresBits,omitempty"`
	LegacyBitAmount    int   `json:"bitAmount,omitempty"`

	// LastUsed is runtime state: stamped by the scheduler at play start,
	// reset on load, never persisted.
	LastUsed time.Time `json:"-"`
}

// Duration returns the base play duration.
func (a *Animation) Duration() time.Duration {
	return time.Duration(a.DurationMs) * time.Millisecond
}

// Cooldown returns the per-animation cooldown window.
func (a *Animation) Cooldown() time.Duration {
	return time.Duration(a.CooldownMinutes) * time.Minute
}

// HasPayload reports whether the animation has anything to render.
func (a *Animation) HasPayload() bool {
	return a.Visual != "" || a.Audio != ""
}

// IsAlertOnly reports whether the animation belongs to any alert trigger
// class. Alert-class animations are never eligible for plain chat-command
// triggering; they match through their own specialized selectors.
func (a *Animation) IsAlertOnly() bool {
	return a.Bits != nil || a.Sub != nil || a.GiftSub != nil ||
		a.Tip != nil || a.Donation != nil || a.Channel != nil ||
		a.HypeTrain != nil || a.ChannelPoint != nil
}

// MatchesCommand reports whether text equals the command, case-insensitively.
func (a *Animation) MatchesCommand(text string) bool {
	return strings.EqualFold(a.Command, text)
}

// Category is a named, ordered grouping of animations. Animations cannot
// exist outside a category.
type Category struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	Animations []*Animation `json:"animations"`
}
