package model

import (
	"errors"
	"strings"
)

// Recipe model
type Recipe struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Minutes     int      `json:"minutes"`
	Servings    int      `json:"servings"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Tags        []string `json:"tags"`
}

// ResolveResourceName returns the file name the recipe is stored under
func (r Recipe) ResolveResourceName() (string, error) {
	slug := strings.ToLower(strings.TrimSpace(r.Slug))
	if slug == "" {
		return "", errors.New("recipe slug is empty")
	}
	if strings.ContainsAny(slug, `/\.`) {
		return "", errors.New("recipe slug contains a path separator")
	}
	return slug, nil
}

const RecipeCollectionName = "recipes"
