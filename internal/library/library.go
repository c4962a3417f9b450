// Package library holds the in-memory animation catalog: categories,
// animations and variants. It owns the persistence round-trip for the
// library document and serializes all structural mutations through one
// coarse lock shared with the scheduler's variant bookkeeping.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/metrics"
)

const (
	area = "library"

	// docVersion 2 replaced the implicit v1 "requires bits" boolean with
	// the bit-behavior flag set.
	docVersion = 2
)

type document struct {
	Version    int                `json:"version"`
	Categories []*domain.Category `json:"categories"`
}

// Library is the animation catalog. Every mutation persists the whole
// document synchronously; there are no partial writes.
type Library struct {
	mu    sync.Mutex
	store domain.DocumentStore
	doc   document

	// randIntn is swapped out in tests for deterministic variant pulls.
	randIntn func(n int) int
}

// New loads the library document. An absent or unreadable document leaves
// the library empty and is logged, never raised.
func New(ctx context.Context, store domain.DocumentStore) *Library {
	l := &Library{
		store:    store,
		doc:      document{Version: docVersion},
		randIntn: rand.Intn,
	}

	var loaded document
	if err := store.Load(ctx, area, &loaded); err != nil {
		if errors.Is(err, domain.ErrNoDocument) {
			slog.Info("No animation library document found, starting empty")
		} else {
			slog.Error("Failed to load animation library, starting empty", "error", err)
		}
		return l
	}

	migrate(&loaded)
	l.doc = loaded
	return l
}

// migrate applies one-time schema upgrades on load.
func migrate(doc *document) {
	if doc.Version < 2 {
		for _, category := range doc.Categories {
			for _, a := range category.Animations {
				if a.LegacyRequiresBits != nil && *a.LegacyRequiresBits && a.Bits == nil {
					a.Bits = &domain.BitAlert{
						Behavior: domain.BitExactMatch,
						Amount:   a.LegacyBitAmount,
					}
				}
				a.LegacyRequiresBits = nil
				a.LegacyBitAmount = 0
			}
		}
	}
	doc.Version = docVersion

	for _, category := range doc.Categories {
		if category.ID == uuid.Nil {
			category.ID = uuid.New()
		}
		for _, a := range category.Animations {
			if a.ID == uuid.Nil {
				a.ID = uuid.New()
			}
			for _, v := range a.Variants {
				if v.ID == uuid.Nil {
					v.ID = uuid.New()
				}
			}
		}
	}
}

// Save persists the full library document. Exposed so the scheduler can
// persist variant played-once flags after an enqueue.
func (l *Library) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persist(ctx)
}

func (l *Library) persist(ctx context.Context) error {
	if err := l.store.Save(ctx, area, &l.doc); err != nil {
		metrics.PersistFailuresTotal.WithLabelValues(area).Inc()
		slog.Error("Failed to persist animation library", "error", err)
		return err
	}
	return nil
}

// FindByCommand matches the first whitespace token of message against
// animation commands, case-insensitively.
func (l *Library) FindByCommand(message string) *domain.Animation {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return nil
	}
	token := fields[0]

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findByCommand(token)
}

func (l *Library) findByCommand(token string) *domain.Animation {
	for _, category := range l.doc.Categories {
		for _, a := range category.Animations {
			if a.MatchesCommand(token) {
				return a
			}
		}
	}
	return nil
}

// FindByID returns the animation with the given id, or nil.
func (l *Library) FindByID(id uuid.UUID) *domain.Animation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findByID(id)
}

func (l *Library) findByID(id uuid.UUID) *domain.Animation {
	for _, category := range l.doc.Categories {
		for _, a := range category.Animations {
			if a.ID == id {
				return a
			}
		}
	}
	return nil
}

// AllEnabled returns every enabled animation across all categories.
func (l *Library) AllEnabled() []*domain.Animation {
	l.mu.Lock()
	defer l.mu.Unlock()

	var enabled []*domain.Animation
	for _, category := range l.doc.Categories {
		for _, a := range category.Animations {
			if !a.Disabled {
				enabled = append(enabled, a)
			}
		}
	}
	return enabled
}

// Categories returns the category list for display purposes.
func (l *Library) Categories() []*domain.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*domain.Category(nil), l.doc.Categories...)
}

// AddCategory creates a named category. Names are unique case-insensitively.
func (l *Library) AddCategory(ctx context.Context, name string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("category name must not be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, category := range l.doc.Categories {
		if strings.EqualFold(category.Name, name) {
			return uuid.Nil, domain.ErrDuplicateCategory
		}
	}

	category := &domain.Category{ID: uuid.New(), Name: name}
	l.doc.Categories = append(l.doc.Categories, category)
	if err := l.persist(ctx); err != nil {
		return category.ID, err
	}
	return category.ID, nil
}

// RenameCategory changes a category's name, keeping names unique.
func (l *Library) RenameCategory(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name must not be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var target *domain.Category
	for _, category := range l.doc.Categories {
		if category.ID == id {
			target = category
		} else if strings.EqualFold(category.Name, name) {
			return domain.ErrDuplicateCategory
		}
	}
	if target == nil {
		return domain.ErrCategoryNotFound
	}

	target.Name = name
	return l.persist(ctx)
}

// DeleteCategory removes an empty category. Deleting a category that still
// holds animations is refused.
func (l *Library) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, category := range l.doc.Categories {
		if category.ID != id {
			continue
		}
		if len(category.Animations) > 0 {
			return domain.ErrCategoryNotEmpty
		}
		l.doc.Categories = append(l.doc.Categories[:i], l.doc.Categories[i+1:]...)
		return l.persist(ctx)
	}
	return domain.ErrCategoryNotFound
}

// AddAnimation validates and inserts an animation into a category.
func (l *Library) AddAnimation(ctx context.Context, categoryID uuid.UUID, a *domain.Animation) (uuid.UUID, error) {
	command, err := normalizeCommand(a.Command)
	if err != nil {
		return uuid.Nil, err
	}
	a.Command = command

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.findByCommand(a.Command) != nil {
		return uuid.Nil, domain.ErrDuplicateCommand
	}

	for _, category := range l.doc.Categories {
		if category.ID != categoryID {
			continue
		}
		a.ID = uuid.New()
		for _, v := range a.Variants {
			if v.ID == uuid.Nil {
				v.ID = uuid.New()
			}
		}
		category.Animations = append(category.Animations, a)
		if err := l.persist(ctx); err != nil {
			return a.ID, err
		}
		return a.ID, nil
	}
	return uuid.Nil, domain.ErrCategoryNotFound
}

// UpdateAnimation replaces an animation's definition in place.
func (l *Library) UpdateAnimation(ctx context.Context, updated *domain.Animation) error {
	command, err := normalizeCommand(updated.Command)
	if err != nil {
		return err
	}
	updated.Command = command

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing := l.findByCommand(updated.Command); existing != nil && existing.ID != updated.ID {
		return domain.ErrDuplicateCommand
	}

	for _, category := range l.doc.Categories {
		for i, a := range category.Animations {
			if a.ID == updated.ID {
				for _, v := range updated.Variants {
					if v.ID == uuid.Nil {
						v.ID = uuid.New()
					}
				}
				category.Animations[i] = updated
				return l.persist(ctx)
			}
		}
	}
	return domain.ErrAnimationNotFound
}

// DeleteAnimation removes an animation from its category. Variants go
// with it.
func (l *Library) DeleteAnimation(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, category := range l.doc.Categories {
		for i, a := range category.Animations {
			if a.ID == id {
				category.Animations = append(category.Animations[:i], category.Animations[i+1:]...)
				return l.persist(ctx)
			}
		}
	}
	return domain.ErrAnimationNotFound
}

// AddVariant appends a variant to an animation.
func (l *Library) AddVariant(ctx context.Context, animationID uuid.UUID, v *domain.Variant) (uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.findByID(animationID)
	if a == nil {
		return uuid.Nil, domain.ErrAnimationNotFound
	}

	v.ID = uuid.New()
	v.Played = false
	a.Variants = append(a.Variants, v)
	if err := l.persist(ctx); err != nil {
		return v.ID, err
	}
	return v.ID, nil
}

// DeleteVariant removes a variant from an animation.
func (l *Library) DeleteVariant(ctx context.Context, animationID, variantID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.findByID(animationID)
	if a == nil {
		return domain.ErrAnimationNotFound
	}

	for i, v := range a.Variants {
		if v.ID == variantID {
			a.Variants = append(a.Variants[:i], a.Variants[i+1:]...)
			return l.persist(ctx)
		}
	}
	return domain.ErrVariantNotFound
}

// SetChainedCommands replaces an animation's chained command list.
func (l *Library) SetChainedCommands(ctx context.Context, animationID uuid.UUID, commands []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.findByID(animationID)
	if a == nil {
		return domain.ErrAnimationNotFound
	}

	a.ChainedCommands = append([]string(nil), commands...)
	return l.persist(ctx)
}

// normalizeCommand trims surrounding whitespace and validates the result.
// Callers store the returned form so lookups and the duplicate check see
// the same spelling.
func normalizeCommand(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" || len(command) > domain.MaxCommandLength {
		return "", domain.ErrInvalidCommand
	}
	if len(strings.Fields(command)) != 1 {
		return "", domain.ErrInvalidCommand
	}
	return command, nil
}
