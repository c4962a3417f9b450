package domain

import "strings"

// EventKind classifies a normalized trigger event.
type EventKind string

const (
	EventChat         EventKind = "chat"
	EventBits         EventKind = "bits"
	EventSub          EventKind = "sub"
	EventGiftSub      EventKind = "gift_sub"
	EventTip          EventKind = "tip"
	EventDonation     EventKind = "donation"
	EventChannelPoint EventKind = "channel_point"
	EventHost         EventKind = "host"
	EventRaid         EventKind = "raid"
	EventHypeTrain    EventKind = "hype_train"
	EventManual       EventKind = "manual"
)

// TriggerEvent is the normalized "something happened" record produced by
// the chat/API transport. The core never talks to the transport directly.
type TriggerEvent struct {
	Kind          EventKind `json:"kind"`
	RawMessage    string    `json:"rawMessage,omitempty"`
	ChatMessageID string    `json:"chatMessageId,omitempty"`
	DisplayName   string    `json:"displayName"`
	UserID        string    `json:"userId,omitempty"`
	RoomID        string    `json:"roomId,omitempty"`

	Bits           int     `json:"bits,omitempty"`
	Tier           int     `json:"tier,omitempty"`
	Months         int     `json:"months,omitempty"`
	GiftCount      int     `json:"giftCount,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	RedemptionType string  `json:"redemptionType,omitempty"`
	HypeLevel      int     `json:"hypeLevel,omitempty"`

	IsBroadcaster bool `json:"isBroadcaster,omitempty"`
	IsSubscriber  bool `json:"isSubscriber,omitempty"`
	IsVip         bool `json:"isVip,omitempty"`
	IsModerator   bool `json:"isModerator,omitempty"`
}

// FirstToken returns the first whitespace-separated token of the raw
// message. Command matching tests only this token.
func (e TriggerEvent) FirstToken() string {
	fields := strings.Fields(e.RawMessage)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Tokens returns all whitespace-separated tokens of the raw message.
// Bit alerts paired with a command scan every token.
func (e TriggerEvent) Tokens() []string {
	return strings.Fields(e.RawMessage)
}
