package library

import (
	"github.com/fiercekittenz/gifbot/internal/domain"
)

// PullVariant picks which payload the next play of a uses: one of its
// variants, or nil for the original. Flag mutations happen under the
// library lock because playback and dashboard edits race.
//
// With PlayAllVariants off the choice is uniform over variants plus the
// original, so the original carries probability 1/(N+1). With it on, every
// variant and the original surface exactly once before the rotation
// resets.
func (l *Library) PullVariant(a *domain.Animation) *domain.Variant {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(a.Variants) == 0 {
		return nil
	}

	if !a.PlayAllVariants {
		idx := l.randIntn(len(a.Variants) + 1)
		if idx == len(a.Variants) {
			return nil
		}
		return a.Variants[idx]
	}

	candidates := unplayed(a)
	if len(candidates) == 0 && a.OriginalPlayed {
		for _, v := range a.Variants {
			v.Played = false
		}
		a.OriginalPlayed = false
		candidates = unplayed(a)
	}

	// The slot one past the candidates selects the original. When the
	// original has already played it is excluded from the draw.
	slots := len(candidates)
	if !a.OriginalPlayed {
		slots++
	}
	idx := l.randIntn(slots)
	if idx >= len(candidates) {
		a.OriginalPlayed = true
		return nil
	}

	candidates[idx].Played = true
	return candidates[idx]
}

func unplayed(a *domain.Animation) []*domain.Variant {
	var candidates []*domain.Variant
	for _, v := range a.Variants {
		if !v.Played {
			candidates = append(candidates, v)
		}
	}
	return candidates
}
