package library

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiercekittenz/gifbot/internal/domain"
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

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	return New(context.Background(), newMemStore())
}

func addAnimation(t *testing.T, lib *Library, categoryID uuid.UUID, command string) uuid.UUID {
	t.Helper()
	id, err := lib.AddAnimation(context.Background(), categoryID, &domain.Animation{
		Command: command,
		Visual:  command + ".gif",
	})
	require.NoError(t, err)
	return id
}

// --- Categories ---

func TestAddCategory(t *testing.T) {
	lib := newTestLibrary(t)

	id, err := lib.AddCategory(context.Background(), "Greetings")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	categories := lib.Categories()
	require.Len(t, categories, 1)
	assert.Equal(t, "Greetings", categories[0].Name)
}

func TestAddCategoryRejectsDuplicateName(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.AddCategory(context.Background(), "Greetings")
	require.NoError(t, err)

	_, err = lib.AddCategory(context.Background(), "greetings")
	assert.ErrorIs(t, err, domain.ErrDuplicateCategory)
}

func TestRenameCategory(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	id, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	other, err := lib.AddCategory(ctx, "Alerts")
	require.NoError(t, err)

	require.NoError(t, lib.RenameCategory(ctx, id, "Hellos"))
	assert.Equal(t, "Hellos", lib.Categories()[0].Name)

	assert.ErrorIs(t, lib.RenameCategory(ctx, other, "hellos"), domain.ErrDuplicateCategory)
	assert.ErrorIs(t, lib.RenameCategory(ctx, uuid.New(), "Nope"), domain.ErrCategoryNotFound)
}

func TestDeleteCategoryRefusesNonEmpty(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	id, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	addAnimation(t, lib, id, "!hug")

	assert.ErrorIs(t, lib.DeleteCategory(ctx, id), domain.ErrCategoryNotEmpty)

	animationID := lib.FindByCommand("!hug").ID
	require.NoError(t, lib.DeleteAnimation(ctx, animationID))
	require.NoError(t, lib.DeleteCategory(ctx, id))
	assert.Empty(t, lib.Categories())
}

// --- Animations ---

func TestAddAnimationValidatesCommand(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)

	cases := []struct {
		name    string
		command string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"multiple tokens", "!hug me"},
		{"too long", "!averyverylongcommand1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lib.AddAnimation(ctx, categoryID, &domain.Animation{Command: tc.command, Visual: "x.gif"})
			assert.ErrorIs(t, err, domain.ErrInvalidCommand)
		})
	}
}

func TestAddAnimationStoresTrimmedCommand(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)

	id, err := lib.AddAnimation(ctx, categoryID, &domain.Animation{Command: "  !hug  ", Visual: "hug.gif"})
	require.NoError(t, err)
	assert.Equal(t, "!hug", lib.FindByID(id).Command)

	found := lib.FindByCommand("!hug everyone")
	require.NotNil(t, found, "padded submissions must still match chat lookups")
	assert.Equal(t, id, found.ID)

	_, err = lib.AddAnimation(ctx, categoryID, &domain.Animation{Command: " !hug ", Visual: "y.gif"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCommand, "padding must not dodge the duplicate check")

	waveID, err := lib.AddAnimation(ctx, categoryID, &domain.Animation{Command: "!wave", Visual: "w.gif"})
	require.NoError(t, err)
	require.NoError(t, lib.UpdateAnimation(ctx, &domain.Animation{ID: waveID, Command: "\t!wave \n", Visual: "w.gif"}))
	assert.Equal(t, "!wave", lib.FindByID(waveID).Command)
}

func TestAddAnimationRejectsDuplicateCommand(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	addAnimation(t, lib, categoryID, "!hug")

	_, err = lib.AddAnimation(ctx, categoryID, &domain.Animation{Command: "!HUG", Visual: "y.gif"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCommand)
}

func TestFindByCommandMatchesFirstTokenCaseInsensitively(t *testing.T) {
	lib := newTestLibrary(t)

	categoryID, err := lib.AddCategory(context.Background(), "Greetings")
	require.NoError(t, err)
	id := addAnimation(t, lib, categoryID, "!hug")

	found := lib.FindByCommand("!HUG everyone in chat")
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)

	assert.Nil(t, lib.FindByCommand("give me a !hug"), "command must be the first token")
	assert.Nil(t, lib.FindByCommand(""))
}

func TestUpdateAnimationKeepsCommandUnique(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	hugID := addAnimation(t, lib, categoryID, "!hug")
	addAnimation(t, lib, categoryID, "!wave")

	waveID := lib.FindByCommand("!wave").ID
	err = lib.UpdateAnimation(ctx, &domain.Animation{ID: waveID, Command: "!hug", Visual: "w.gif"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCommand)

	// Updating an animation to its own command is fine.
	err = lib.UpdateAnimation(ctx, &domain.Animation{ID: hugID, Command: "!hug", Visual: "new.gif"})
	require.NoError(t, err)
	assert.Equal(t, "new.gif", lib.FindByID(hugID).Visual)
}

func TestAllEnabledSkipsDisabled(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	hugID := addAnimation(t, lib, categoryID, "!hug")
	addAnimation(t, lib, categoryID, "!wave")

	require.NoError(t, lib.UpdateAnimation(ctx, &domain.Animation{ID: hugID, Command: "!hug", Visual: "h.gif", Disabled: true}))

	enabled := lib.AllEnabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "!wave", enabled[0].Command)
}

// --- Variants and chains ---

func TestVariantLifecycle(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	animationID := addAnimation(t, lib, categoryID, "!hug")

	variantID, err := lib.AddVariant(ctx, animationID, &domain.Variant{Visual: "alt.gif"})
	require.NoError(t, err)
	require.Len(t, lib.FindByID(animationID).Variants, 1)

	assert.ErrorIs(t, lib.DeleteVariant(ctx, animationID, uuid.New()), domain.ErrVariantNotFound)
	require.NoError(t, lib.DeleteVariant(ctx, animationID, variantID))
	assert.Empty(t, lib.FindByID(animationID).Variants)
}

func TestSetChainedCommands(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	animationID := addAnimation(t, lib, categoryID, "!hug")

	require.NoError(t, lib.SetChainedCommands(ctx, animationID, []string{"!confetti", "!fanfare"}))
	assert.Equal(t, []string{"!confetti", "!fanfare"}, lib.FindByID(animationID).ChainedCommands)

	assert.ErrorIs(t, lib.SetChainedCommands(ctx, uuid.New(), nil), domain.ErrAnimationNotFound)
}

// --- Persistence and migration ---

func TestLibraryRoundTripsThroughStore(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	lib := New(ctx, store)
	categoryID, err := lib.AddCategory(ctx, "Greetings")
	require.NoError(t, err)
	id := addAnimation(t, lib, categoryID, "!hug")

	reloaded := New(ctx, store)
	found := reloaded.FindByID(id)
	require.NotNil(t, found)
	assert.Equal(t, "!hug", found.Command)
}

func TestMigrationRewritesLegacyBitFields(t *testing.T) {
	store := newMemStore()
	legacy := `{
		"version": 1,
		"categories": [{
			"name": "Alerts",
			"animations": [
				{"command": "!cheer", "visual": "c.gif", "requiresBits": true, "bitAmount": 100},
				{"command": "!hug", "visual": "h.gif", "requiresBits": false}
			]
		}]
	}`
	store.docs["library"] = []byte(legacy)

	lib := New(context.Background(), store)

	cheer := lib.FindByCommand("!cheer")
	require.NotNil(t, cheer)
	require.NotNil(t, cheer.Bits)
	assert.Equal(t, domain.BitExactMatch, cheer.Bits.Behavior)
	assert.Equal(t, 100, cheer.Bits.Amount)
	assert.Nil(t, cheer.LegacyRequiresBits)

	hug := lib.FindByCommand("!hug")
	require.NotNil(t, hug)
	assert.Nil(t, hug.Bits)

	// Migration also backfills missing identifiers.
	assert.NotEqual(t, uuid.Nil, cheer.ID)
	assert.NotEqual(t, uuid.Nil, lib.Categories()[0].ID)
}
