package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/rs/xid"

	"github.com/recipeapp/recipe-app/auth"
	"github.com/recipeapp/recipe-app/model"
	"github.com/recipeapp/recipe-app/util"
)

const (
	sessionName  = "session"
	scopeKey     = "origin"
	authStoreKey = "auth_store"
	scopeMaxAge  = 86400 * 365
)

// browserScope returns the id of the storage namespace of the requesting
// browser, issuing a new one on first visit
func browserScope(c echo.Context) (string, error) {
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return "", err
	}
	if err != nil {
		// unreadable cookie, e.g. after the session secret changed
		log.Warnf("Discarding invalid session cookie: %v", err)
	}

	if scope, ok := sess.Values[scopeKey].(string); ok {
		if _, err := xid.FromString(scope); err == nil {
			return scope, nil
		}
	}

	scope := xid.New().String()
	sess.Values[scopeKey] = scope
	sess.Options = &sessions.Options{
		Path:     cookiePath(),
		MaxAge:   scopeMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return scope, nil
}

func cookiePath() string {
	if util.BasePath == "" {
		return "/"
	}
	return util.BasePath
}

// authStore returns the session store loaded by BrowserSession
func authStore(c echo.Context) (*auth.Store, error) {
	st, ok := c.Get(authStoreKey).(*auth.Store)
	if !ok || st == nil {
		return nil, errors.New("no session store in request context")
	}
	return st, nil
}

// currentState returns the login state of the requesting browser
func currentState(c echo.Context) model.SessionState {
	st, err := authStore(c)
	if err != nil {
		return model.SessionState{}
	}
	return st.State()
}

func baseData(c echo.Context, active string) model.BaseData {
	state := currentState(c)
	return model.BaseData{
		Active:      active,
		BasePath:    util.BasePath,
		LoggedIn:    state.LoggedIn,
		CurrentUser: state.CurrentUser,
	}
}
