package jsondb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeapp/recipe-app/model"
	"github.com/recipeapp/recipe-app/store"
)

func newTestDB(t *testing.T) *JsonDB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	require.NoError(t, db.Init())
	return db
}

func TestInitSeedsRecipes(t *testing.T) {
	db := newTestDB(t)

	recipes, err := db.GetRecipes()
	require.NoError(t, err)
	require.Len(t, recipes, len(store.DefaultRecipes()))
	for i := 1; i < len(recipes); i++ {
		assert.LessOrEqual(t, recipes[i-1].Title, recipes[i].Title)
	}

	// a second Init keeps edits to the catalog
	edited := recipes[0]
	edited.Summary = "edited"
	require.NoError(t, db.SaveRecipe(edited))
	require.NoError(t, db.Init())

	got, err := db.GetRecipeBySlug(edited.Slug)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Summary)
}

func TestGetRecipeBySlug(t *testing.T) {
	db := newTestDB(t)

	recipe, err := db.GetRecipeBySlug("pasta-bake")
	require.NoError(t, err)
	assert.Equal(t, "Pasta Bake", recipe.Title)
	assert.NotEmpty(t, recipe.Ingredients)

	_, err = db.GetRecipeBySlug("no-such-dish")
	assert.ErrorIs(t, err, store.ErrRecipeNotFound)

	_, err = db.GetRecipeBySlug("../origins")
	assert.ErrorIs(t, err, store.ErrRecipeNotFound)
}

func TestSaveRecipeRejectsEmptySlug(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.SaveRecipe(model.Recipe{Title: "Nameless"}))
}

func TestOriginStorage(t *testing.T) {
	db := newTestDB(t)
	scope := xid.New().String()

	storage, err := db.Origin(scope)
	require.NoError(t, err)

	_, ok, err := storage.GetItem("users")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.SetItem("users", `{"alice":"pw1"}`))
	value, ok, err := storage.GetItem("users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"alice":"pw1"}`, value)

	// empty strings are stored values, not absence
	require.NoError(t, storage.SetItem("currentUser", ""))
	value, ok, err = storage.GetItem("currentUser")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", value)

	require.NoError(t, storage.RemoveItem("currentUser"))
	require.NoError(t, storage.RemoveItem("currentUser"))
	_, ok, err = storage.GetItem("currentUser")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOriginStorageSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	scope := xid.New().String()

	db, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, db.Init())
	storage, err := db.Origin(scope)
	require.NoError(t, err)
	require.NoError(t, storage.SetItem("loggedIn", "true"))

	reopened, err := New(dir)
	require.NoError(t, err)
	storage, err = reopened.Origin(scope)
	require.NoError(t, err)
	value, ok, err := storage.GetItem("loggedIn")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)
}

func TestOriginsAreIsolated(t *testing.T) {
	db := newTestDB(t)

	a, err := db.Origin(xid.New().String())
	require.NoError(t, err)
	b, err := db.Origin(xid.New().String())
	require.NoError(t, err)

	require.NoError(t, a.SetItem("currentUser", "alice"))
	_, ok, err := b.GetItem("currentUser")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOriginRejectsInvalidScope(t *testing.T) {
	db := newTestDB(t)

	for _, scope := range []string{"", "../recipes", "not-an-id"} {
		_, err := db.Origin(scope)
		assert.ErrorIs(t, err, store.ErrInvalidScope, "scope %q", scope)
	}
}

func TestOriginStorageRejectsBadKeys(t *testing.T) {
	db := newTestDB(t)
	storage, err := db.Origin(xid.New().String())
	require.NoError(t, err)

	assert.Error(t, storage.SetItem("", "x"))
	assert.Error(t, storage.SetItem("../users", "x"))
	_, _, err = storage.GetItem(".hidden")
	assert.Error(t, err)
}

func TestOriginStorageCorruptFile(t *testing.T) {
	db := newTestDB(t)
	scope := xid.New().String()
	storage, err := db.Origin(scope)
	require.NoError(t, err)
	require.NoError(t, storage.SetItem("users", "{}"))

	record := filepath.Join(db.dbPath, originsCollection, scope, "users.json")
	require.NoError(t, os.WriteFile(record, []byte("{not json"), 0o644))

	_, _, err = storage.GetItem("users")
	assert.Error(t, err)
}
