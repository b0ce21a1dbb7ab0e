package templates_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookops/overload/internal/templates"
	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
)

func openStore(t *testing.T) *templates.Store {
	t.Helper()
	store, err := templates.Open(filepath.Join(t.TempDir(), "templates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTemplate(name string) *bibs.Template {
	return &bibs.Template{
		Name:  name,
		Agent: "selector",
		Fund:  "10001adbk",
		Matchpoints: bibs.Matchpoints{
			Primary:   bibs.MatchpointISBN,
			Secondary: bibs.MatchpointOCLC,
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, newTemplate("juv fiction"))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "juv fiction", saved.Name)
	assert.Equal(t, "10001adbk", saved.Fund)
	assert.Equal(t, bibs.MatchpointOCLC, saved.Matchpoints.Secondary)

	byName, err := store.GetByName(ctx, "juv fiction")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byName.ID)
}

func TestSaveRejectsInvalidTemplate(t *testing.T) {
	store := openStore(t)

	invalid := newTemplate("no matchpoint")
	invalid.Matchpoints = bibs.Matchpoints{}
	_, err := store.Save(context.Background(), invalid)
	assert.Error(t, err)
}

func TestGetMissingTemplate(t *testing.T) {
	store := openStore(t)

	_, err := store.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = store.GetByName(context.Background(), "nope")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListOrdersByName(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, name := range []string{"world lang", "adult fiction", "juv dvd"} {
		_, err := store.Save(ctx, newTemplate(name))
		require.NoError(t, err)
	}

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "adult fiction", listed[0].Name)
	assert.Equal(t, "juv dvd", listed[1].Name)
	assert.Equal(t, "world lang", listed[2].Name)
}

func TestUpdate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, newTemplate("juv fiction"))
	require.NoError(t, err)

	saved.Fund = "10002adbk"
	saved.VendorCode = "btcls"
	require.NoError(t, store.Update(ctx, saved))

	updated, err := store.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "10002adbk", updated.Fund)
	assert.Equal(t, "btcls", updated.VendorCode)
}

func TestUpdateMissingTemplate(t *testing.T) {
	store := openStore(t)

	missing := newTemplate("ghost")
	missing.ID = 99
	err := store.Update(context.Background(), missing)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRemove(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, newTemplate("juv fiction"))
	require.NoError(t, err)

	removed, err := store.Remove(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Remove(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDuplicateNameRejected(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, newTemplate("juv fiction"))
	require.NoError(t, err)
	_, err = store.Save(ctx, newTemplate("juv fiction"))
	assert.Error(t, err)
}
