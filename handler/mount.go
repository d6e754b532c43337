package handler

import (
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/recipeapp/recipe-app/auth"
	"github.com/recipeapp/recipe-app/view"
)

// Metrics is what the handlers report to
type Metrics interface {
	AuthRecorder
	view.Recorder
	Handler() http.Handler
}

// Dependencies of the app routes
type Dependencies struct {
	Pages         *view.Table
	Registry      *auth.Registry
	Metrics       Metrics
	Assets        fs.FS
	AuthRateLimit float64
}

// Mount registers the app routes under basePath
func Mount(app *echo.Echo, basePath string, deps Dependencies) {
	app.GET(basePath+"/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	if deps.Assets != nil {
		assetHandler := http.FileServer(http.FS(deps.Assets))
		app.GET(basePath+"/static/*", echo.WrapHandler(http.StripPrefix(basePath+"/static/", assetHandler)))
	}

	g := app.Group(basePath, BrowserSession(deps.Registry))

	authMiddlewares := []echo.MiddlewareFunc{ContentTypeJson}
	if deps.AuthRateLimit > 0 {
		limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(deps.AuthRateLimit)))
		authMiddlewares = append([]echo.MiddlewareFunc{limiter}, authMiddlewares...)
	}
	g.POST("/register", Register(deps.Metrics), authMiddlewares...)
	g.POST("/login", Login(deps.Metrics), authMiddlewares...)
	g.GET("/logout", Logout(deps.Metrics))
	g.GET("/api/session", SessionInfo())
	g.GET("/ws/navigate", Navigate(deps.Pages, deps.Metrics))

	page := Page(deps.Pages, deps.Metrics)
	if basePath != "" {
		g.GET("", page)
	}
	g.GET("/*", page)
}
