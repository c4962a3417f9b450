package trigger

import (
	"math/rand"
	"strings"

	"github.com/fiercekittenz/gifbot/internal/domain"
)

// AlertSelector matches alert-class events (bits, subs, gifts, tips,
// donations, hosts, raids, hype trains, channel points) against their
// specialized animations. Plain-command eligibility never applies here.
type AlertSelector struct {
	// randIntn is swapped out in tests for deterministic tie-breaks.
	randIntn func(n int) int
}

func NewAlertSelector() *AlertSelector {
	return &AlertSelector{randIntn: rand.Intn}
}

// SelectBits picks the bit-alert animation for a cheer. A cheer carrying a
// recognized command name pairs with that specific animation and
// suppresses every generic match, so a single cheer never fires two
// alerts. Otherwise exact-amount matches beat minimum-at-least matches,
// and minimum-at-least picks the highest qualifying threshold with ties
// broken randomly.
func (s *AlertSelector) SelectBits(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	if ev.Bits <= 0 {
		return nil
	}

	// Command-paired: scan message tokens for a bit-alert command.
	for _, token := range ev.Tokens() {
		for _, a := range enabled {
			if !playable(a) || a.Bits == nil {
				continue
			}
			if a.MatchesCommand(token) && bitsSatisfied(a.Bits, ev.Bits) {
				return a
			}
		}
	}

	var exact []*domain.Animation
	for _, a := range enabled {
		if !playable(a) || a.Bits == nil {
			continue
		}
		if a.Bits.Behavior == domain.BitExactMatch && a.Bits.Amount == ev.Bits {
			exact = append(exact, a)
		}
	}
	if len(exact) > 0 {
		return exact[s.randIntn(len(exact))]
	}

	return s.highest(enabled, func(a *domain.Animation) (int, bool) {
		if a.Bits == nil || a.Bits.Behavior != domain.BitMinimumAtLeast {
			return 0, false
		}
		if a.Bits.Amount > ev.Bits {
			return 0, false
		}
		return a.Bits.Amount, true
	})
}

// SelectSub picks the subscription alert whose tier/months thresholds the
// event meets, preferring the highest months threshold.
func (s *AlertSelector) SelectSub(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	return s.highest(enabled, func(a *domain.Animation) (int, bool) {
		if a.Sub == nil {
			return 0, false
		}
		if a.Sub.MinTier > ev.Tier || a.Sub.MinMonths > ev.Months {
			return 0, false
		}
		return a.Sub.MinMonths, true
	})
}

// SelectGiftSub picks the gifted-sub alert with the highest qualifying
// count threshold.
func (s *AlertSelector) SelectGiftSub(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	return s.highest(enabled, func(a *domain.Animation) (int, bool) {
		if a.GiftSub == nil || a.GiftSub.MinCount > ev.GiftCount {
			return 0, false
		}
		return a.GiftSub.MinCount, true
	})
}

// SelectTip picks the streamer-tip alert with the highest qualifying
// amount threshold.
func (s *AlertSelector) SelectTip(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	return s.highestFloat(enabled, func(a *domain.Animation) (float64, bool) {
		if a.Tip == nil || a.Tip.MinAmount > ev.Amount {
			return 0, false
		}
		return a.Tip.MinAmount, true
	})
}

// SelectDonation picks the charity-donation alert with the highest
// qualifying amount threshold.
func (s *AlertSelector) SelectDonation(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	return s.highestFloat(enabled, func(a *domain.Animation) (float64, bool) {
		if a.Donation == nil || a.Donation.MinAmount > ev.Amount {
			return 0, false
		}
		return a.Donation.MinAmount, true
	})
}

// SelectChannel picks the host/raid alert for the event. An alert
// restricted to the incoming channel's name beats any unrestricted one.
func (s *AlertSelector) SelectChannel(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	var restricted, generic []*domain.Animation
	for _, a := range enabled {
		if !playable(a) || a.Channel == nil {
			continue
		}
		if ev.Kind == domain.EventHost && !a.Channel.OnHost {
			continue
		}
		if ev.Kind == domain.EventRaid && !a.Channel.OnRaid {
			continue
		}
		if a.Channel.RestrictedUser != "" {
			if strings.EqualFold(a.Channel.RestrictedUser, ev.DisplayName) {
				restricted = append(restricted, a)
			}
			continue
		}
		generic = append(generic, a)
	}

	if len(restricted) > 0 {
		return restricted[s.randIntn(len(restricted))]
	}
	if len(generic) > 0 {
		return generic[s.randIntn(len(generic))]
	}
	return nil
}

// SelectHypeTrain picks the hype-train alert with the highest level not
// exceeding the event's level.
func (s *AlertSelector) SelectHypeTrain(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	return s.highest(enabled, func(a *domain.Animation) (int, bool) {
		if a.HypeTrain == nil || a.HypeTrain.Level > ev.HypeLevel {
			return 0, false
		}
		return a.HypeTrain.Level, true
	})
}

// SelectChannelPoint matches a channel-point redemption by type.
func (s *AlertSelector) SelectChannelPoint(enabled []*domain.Animation, ev domain.TriggerEvent) *domain.Animation {
	var matches []*domain.Animation
	for _, a := range enabled {
		if !playable(a) || a.ChannelPoint == nil {
			continue
		}
		if strings.EqualFold(a.ChannelPoint.RedemptionType, ev.RedemptionType) {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return matches[s.randIntn(len(matches))]
}

// highest selects the animation with the largest qualifying integer
// threshold; equal thresholds are resolved by random choice.
func (s *AlertSelector) highest(enabled []*domain.Animation, threshold func(*domain.Animation) (int, bool)) *domain.Animation {
	return s.highestFloat(enabled, func(a *domain.Animation) (float64, bool) {
		value, ok := threshold(a)
		return float64(value), ok
	})
}

func (s *AlertSelector) highestFloat(enabled []*domain.Animation, threshold func(*domain.Animation) (float64, bool)) *domain.Animation {
	var best []*domain.Animation
	bestValue := 0.0
	for _, a := range enabled {
		if !playable(a) {
			continue
		}
		value, ok := threshold(a)
		if !ok {
			continue
		}
		switch {
		case len(best) == 0 || value > bestValue:
			best = best[:0]
			best = append(best, a)
			bestValue = value
		case value == bestValue:
			best = append(best, a)
		}
	}
	if len(best) == 0 {
		return nil
	}
	return best[s.randIntn(len(best))]
}

func bitsSatisfied(alert *domain.BitAlert, bits int) bool {
	switch alert.Behavior {
	case domain.BitExactMatch:
		return alert.Amount == bits
	case domain.BitMinimumAtLeast:
		return alert.Amount <= bits
	default:
		return false
	}
}

func playable(a *domain.Animation) bool {
	return !a.Disabled && a.HasPayload()
}
