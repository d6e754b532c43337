package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/recipeapp/recipe-app/model"
	"github.com/recipeapp/recipe-app/router"
	"github.com/recipeapp/recipe-app/util"
	"github.com/recipeapp/recipe-app/view"
)

type jsonHTTPResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// AuthRecorder receives the outcome of every register and login attempt
type AuthRecorder interface {
	RecordAuth(op string, ok bool, err error)
}

// Register handler
func Register(rec AuthRecorder) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := new(model.User)
		if err := c.Bind(user); err != nil {
			return c.JSON(http.StatusBadRequest, jsonHTTPResponse{false, "Bad post data"})
		}
		if err := c.Validate(user); err != nil {
			return c.JSON(http.StatusBadRequest, jsonHTTPResponse{false, err.Error()})
		}

		st, err := authStore(c)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, jsonHTTPResponse{false, "No session"})
		}

		ok, err := st.Register(user.Username, user.Password)
		rec.RecordAuth("register", ok, err)
		if err != nil {
			log.Error("Cannot register user: ", err)
			return c.JSON(http.StatusInternalServerError, jsonHTTPResponse{false, "Cannot save user"})
		}
		if !ok {
			log.Infof("Registration rejected, user %q already exists", user.Username)
			return c.JSON(http.StatusBadRequest, jsonHTTPResponse{false, "Username already exists"})
		}

		log.Infof("Registered user %q", user.Username)
		return c.JSON(http.StatusOK, jsonHTTPResponse{true, "Registered successfully"})
	}
}

// Login for signing in handler
func Login(rec AuthRecorder) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := new(model.User)
		if err := c.Bind(user); err != nil {
			return c.JSON(http.StatusBadRequest, jsonHTTPResponse{false, "Bad post data"})
		}
		if err := c.Validate(user); err != nil {
			return c.JSON(http.StatusBadRequest, jsonHTTPResponse{false, err.Error()})
		}

		st, err := authStore(c)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, jsonHTTPResponse{false, "No session"})
		}

		ok, err := st.Login(user.Username, user.Password)
		rec.RecordAuth("login", ok, err)
		if err != nil {
			log.Error("Cannot save session: ", err)
			return c.JSON(http.StatusInternalServerError, jsonHTTPResponse{false, "Cannot save session"})
		}
		if !ok {
			log.Warnf("Invalid credentials for user %q. Cannot log in", user.Username)
			return c.JSON(http.StatusBadRequest, jsonHTTPResponse{false, "Invalid credentials"})
		}

		log.Infof("Logged in successfully as %q", user.Username)
		return c.JSON(http.StatusOK, jsonHTTPResponse{true, "Logged in successfully"})
	}
}

// Logout to log a user out
func Logout(rec AuthRecorder) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, err := authStore(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		err = st.Logout()
		rec.RecordAuth("logout", err == nil, err)
		if err != nil {
			log.Error("Cannot clear session: ", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Cannot clear session")
		}
		return c.Redirect(http.StatusTemporaryRedirect, util.BasePath+"/")
	}
}

// SessionInfo returns the login state of the requesting browser
func SessionInfo() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, currentState(c))
	}
}

// Page resolves the request path through the route table and renders the
// settled view as a full page
func Page(table *view.Table, rec view.Recorder) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		path := util.StripBasePath(util.BasePath, c.Request().URL.Path)

		route, params, _ := table.Resolve(path, NotFoundView)
		nav := view.Start(ctx, path, route, params, nil)
		v, err := nav.Wait(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, view.ErrNavigationAbandoned) {
			nav.Cancel()
			return nil
		}
		rec.RecordNavigation(route.Name, nav.State(), nav.Elapsed())
		if err != nil {
			log.Warnf("Rendering fallback for %s: %v", path, err)
		}

		return c.Render(v.StatusCode(), v.Name, viewData(c, route.Name, v, false))
	}
}

// viewData merges the view data with the data every template expects
func viewData(c echo.Context, active string, v view.View, fragment bool) map[string]interface{} {
	data := make(map[string]interface{}, len(v.Data)+2)
	for k, val := range v.Data {
		data[k] = val
	}
	data["baseData"] = baseData(c, active)
	data[router.FragmentKey] = fragment
	return data
}
