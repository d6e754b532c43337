package jsondb

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/rs/xid"
	"github.com/sdomino/scribble"

	"github.com/recipeapp/recipe-app/model"
	"github.com/recipeapp/recipe-app/store"
)

const originsCollection = "origins"

type JsonDB struct {
	conn   *scribble.Driver
	dbPath string
}

// New returns a new pointer JsonDB
func New(dbPath string) (*JsonDB, error) {
	conn, err := scribble.New(dbPath, nil)
	if err != nil {
		return nil, err
	}
	ans := JsonDB{
		conn:   conn,
		dbPath: dbPath,
	}
	return &ans, nil
}

func (o *JsonDB) Init() error {
	var recipePath string = path.Join(o.dbPath, model.RecipeCollectionName)
	var originPath string = path.Join(o.dbPath, originsCollection)

	// create directories if they do not exist
	if _, err := os.Stat(recipePath); os.IsNotExist(err) {
		if err := os.MkdirAll(recipePath, os.ModePerm); err != nil {
			return err
		}
	}
	if _, err := os.Stat(originPath); os.IsNotExist(err) {
		if err := os.MkdirAll(originPath, os.ModePerm); err != nil {
			return err
		}
	}

	// default recipe catalog
	results, err := o.conn.ReadAll(model.RecipeCollectionName)
	if err != nil || len(results) < 1 {
		for _, recipe := range store.DefaultRecipes() {
			if err := o.SaveRecipe(recipe); err != nil {
				return fmt.Errorf("cannot seed recipe %s: %w", recipe.Slug, err)
			}
		}
	}

	return nil
}

// Origin returns the storage namespace of one browser scope
func (o *JsonDB) Origin(scope string) (store.Storage, error) {
	if _, err := xid.FromString(scope); err != nil {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidScope, scope)
	}
	return &originStorage{
		conn:       o.conn,
		dbPath:     o.dbPath,
		collection: path.Join(originsCollection, scope),
	}, nil
}

// GetRecipes returns every stored recipe ordered by title
func (o *JsonDB) GetRecipes() ([]model.Recipe, error) {
	var recipes []model.Recipe

	records, err := o.conn.ReadAll(model.RecipeCollectionName)
	if err != nil {
		return recipes, err
	}

	for _, f := range records {
		recipe := model.Recipe{}
		if err := json.Unmarshal([]byte(f), &recipe); err != nil {
			return recipes, fmt.Errorf("cannot decode recipe json structure: %v", err)
		}
		recipes = append(recipes, recipe)
	}

	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].Title < recipes[j].Title
	})
	return recipes, nil
}

// GetRecipeBySlug reads a single recipe
func (o *JsonDB) GetRecipeBySlug(slug string) (model.Recipe, error) {
	recipe := model.Recipe{Slug: slug}
	resourceName, err := recipe.ResolveResourceName()
	if err != nil {
		return recipe, fmt.Errorf("%w: %v", store.ErrRecipeNotFound, err)
	}

	if err := o.conn.Read(model.RecipeCollectionName, resourceName, &recipe); err != nil {
		if os.IsNotExist(err) {
			return recipe, fmt.Errorf("%w: %s", store.ErrRecipeNotFound, slug)
		}
		return recipe, err
	}
	return recipe, nil
}

// SaveRecipe writes a recipe under its slug
func (o *JsonDB) SaveRecipe(recipe model.Recipe) error {
	resourceName, err := recipe.ResolveResourceName()
	if err != nil {
		return err
	}
	recipe.Slug = resourceName
	return o.conn.Write(model.RecipeCollectionName, resourceName, recipe)
}

// originStorage keeps each key of a namespace in its own json file
type originStorage struct {
	conn       *scribble.Driver
	dbPath     string
	collection string
}

func (s *originStorage) GetItem(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	var value string
	if err := s.conn.Read(s.collection, key, &value); err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cannot read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *originStorage) SetItem(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.conn.Write(s.collection, key, value)
}

func (s *originStorage) RemoveItem(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	record := path.Join(s.dbPath, s.collection, key+".json")
	if _, err := os.Stat(record); os.IsNotExist(err) {
		return nil
	}
	return s.conn.Delete(s.collection, key)
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
