package handler

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/recipeapp/recipe-app/model"
	"github.com/recipeapp/recipe-app/news"
	"github.com/recipeapp/recipe-app/store"
	"github.com/recipeapp/recipe-app/util"
	"github.com/recipeapp/recipe-app/view"
)

const (
	featuredRecipes = 3
	qrCodeSize      = 256
)

var (
	LoadingView  = view.View{Name: "loading.html"}
	FallbackView = view.View{Name: "error_fallback.html", Status: http.StatusServiceUnavailable}
	NotFoundView = view.View{Name: "not_found.html", Status: http.StatusNotFound}
)

// NewsSource provides the items of the news page
type NewsSource interface {
	Fetch(ctx context.Context) ([]model.NewsItem, error)
}

// PageConfig holds the settings shared by every deferred page
type PageConfig struct {
	Delay     time.Duration
	Timeout   time.Duration
	PublicURL string
	BasePath  string
}

// NewPageTable builds the route table of the app pages
func NewPageTable(db store.IStore, feed NewsSource, cfg PageConfig) (*view.Table, error) {
	deferred := func(load view.LoadFunc) *view.Deferred {
		return &view.Deferred{
			Load:        load,
			Placeholder: LoadingView,
			Fallback:    FallbackView,
			Delay:       cfg.Delay,
			Timeout:     cfg.Timeout,
		}
	}

	var table *view.Table
	table, err := view.NewTable(
		view.Route{Path: "/", Name: "home", Deferred: deferred(homeLoader(db))},
		view.Route{Path: "/news", Name: "news", Deferred: deferred(newsLoader(feed))},
		view.Route{Path: "/about", Name: "about", Deferred: deferred(staticLoader("about.html"))},
		view.Route{Path: "/login", Name: "login", Deferred: deferred(staticLoader("login.html"))},
		view.Route{Path: "/register", Name: "register", Deferred: deferred(staticLoader("register.html"))},
		view.Route{Path: "/recipes", Name: "recipes", Deferred: deferred(recipesLoader(db))},
		view.Route{Path: "/recipe/:slug", Name: "recipe-detail", Deferred: deferred(func(ctx context.Context, params view.Params) (view.View, error) {
			return recipeDetail(db, params["slug"], func(slug string) string {
				return shareURL(table, cfg, slug)
			})
		})},
		view.Route{Path: "/terms", Name: "terms", Deferred: deferred(staticLoader("terms.html"))},
		view.Route{Path: "/privacy", Name: "privacy", Deferred: deferred(staticLoader("privacy.html"))},
	)
	if err != nil {
		return nil, err
	}
	return table, nil
}

func staticLoader(name string) view.LoadFunc {
	return func(ctx context.Context, params view.Params) (view.View, error) {
		return view.View{Name: name}, nil
	}
}

func homeLoader(db store.IStore) view.LoadFunc {
	return func(ctx context.Context, params view.Params) (view.View, error) {
		recipes, err := db.GetRecipes()
		if err != nil {
			return view.View{}, err
		}
		if len(recipes) > featuredRecipes {
			recipes = recipes[:featuredRecipes]
		}
		return view.View{Name: "home.html", Data: map[string]interface{}{
			"featured": recipes,
		}}, nil
	}
}

func recipesLoader(db store.IStore) view.LoadFunc {
	return func(ctx context.Context, params view.Params) (view.View, error) {
		recipes, err := db.GetRecipes()
		if err != nil {
			return view.View{}, err
		}
		return view.View{Name: "recipes.html", Data: map[string]interface{}{
			"recipes": recipes,
		}}, nil
	}
}

func newsLoader(feed NewsSource) view.LoadFunc {
	return func(ctx context.Context, params view.Params) (view.View, error) {
		items, err := feed.Fetch(ctx)
		if errors.Is(err, news.ErrNoFeed) {
			return view.View{Name: "news.html", Data: map[string]interface{}{
				"configured": false,
			}}, nil
		}
		if err != nil {
			return view.View{}, err
		}
		return view.View{Name: "news.html", Data: map[string]interface{}{
			"configured": true,
			"items":      items,
		}}, nil
	}
}

func recipeDetail(db store.IStore, slug string, share func(string) string) (view.View, error) {
	recipe, err := db.GetRecipeBySlug(slug)
	if errors.Is(err, store.ErrRecipeNotFound) {
		return view.View{Name: "recipe_detail.html", Status: http.StatusNotFound, Data: map[string]interface{}{
			"slug": slug,
		}}, nil
	}
	if err != nil {
		return view.View{}, err
	}

	data := map[string]interface{}{
		"slug":   slug,
		"recipe": recipe,
	}
	if link := share(recipe.Slug); link != "" {
		qr, err := util.QRCodeDataURI(link, qrCodeSize)
		if err != nil {
			log.Error("Cannot generate QRCode: ", err)
		} else {
			data["shareURL"] = link
			data["qrCode"] = template.URL(qr)
		}
	}
	return view.View{Name: "recipe_detail.html", Data: data}, nil
}

// shareURL is the absolute link to a recipe, empty without a public url
func shareURL(table *view.Table, cfg PageConfig, slug string) string {
	if cfg.PublicURL == "" || table == nil {
		return ""
	}
	path, err := table.URL("recipe-detail", "slug", slug)
	if err != nil {
		log.Warnf("Cannot build share link for %q: %v", slug, err)
		return ""
	}
	return strings.TrimRight(cfg.PublicURL, "/") + cfg.BasePath + path
}
