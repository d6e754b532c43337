package store

import (
	"errors"

	"github.com/recipeapp/recipe-app/model"
)

// ErrRecipeNotFound is returned when no recipe is stored under a slug
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrInvalidScope is returned for browser scopes that are not valid ids
var ErrInvalidScope = errors.New("invalid storage scope")

// Storage is a durable string-keyed, string-valued namespace. It plays the
// part of a browser's local storage: one namespace per browser.
type Storage interface {
	// GetItem returns the stored value and whether the key was present.
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	// RemoveItem deletes the key. Removing a missing key is not an error.
	RemoveItem(key string) error
}

// OriginProvider hands out the storage namespace of a browser scope
type OriginProvider interface {
	Origin(scope string) (Storage, error)
}

type IStore interface {
	OriginProvider
	Init() error
	GetRecipes() ([]model.Recipe, error)
	GetRecipeBySlug(slug string) (model.Recipe, error)
	SaveRecipe(recipe model.Recipe) error
}
