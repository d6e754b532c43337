// Package view resolves request paths to page views.
//
// A route either names its view directly or defers it to a loader. Deferred
// views show a placeholder when loading is slow and a fallback when it fails
// or times out; see Navigation.
package view

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// NotFoundRoute is the route name given to paths no route matches
const NotFoundRoute = "not-found"

var ErrDuplicateRoute = errors.New("duplicate route name")

// Params holds the values bound to the dynamic segments of a path
type Params map[string]string

// View is a renderable page: a template name, its data and an HTTP status
type View struct {
	Name   string
	Status int
	Data   map[string]interface{}
}

// StatusCode returns the view status, 200 when unset
func (v View) StatusCode() int {
	if v.Status == 0 {
		return http.StatusOK
	}
	return v.Status
}

// Route maps a path pattern such as "/recipe/:slug" to a view.
// When Deferred is set, View is ignored.
type Route struct {
	Path     string
	Name     string
	View     View
	Deferred *Deferred
}

// Table matches paths against routes in declaration order
type Table struct {
	mux    *mux.Router
	routes map[string]Route
}

func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		mux:    mux.NewRouter(),
		routes: make(map[string]Route),
	}
	for _, r := range routes {
		if err := t.Add(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add appends a route. Routes added earlier win when several match.
func (t *Table) Add(r Route) error {
	if r.Name == "" || r.Name == NotFoundRoute {
		return fmt.Errorf("invalid route name %q", r.Name)
	}
	if _, exists := t.routes[r.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, r.Name)
	}
	if r.Deferred != nil && r.Deferred.Load == nil {
		return fmt.Errorf("route %s: deferred view without loader", r.Name)
	}

	tpl, err := pathTemplate(r.Path)
	if err != nil {
		return fmt.Errorf("route %s: %w", r.Name, err)
	}
	route := t.mux.NewRoute().Path(tpl).Name(r.Name)
	if err := route.GetError(); err != nil {
		return fmt.Errorf("route %s: %w", r.Name, err)
	}

	t.routes[r.Name] = r
	return nil
}

// Match returns the first route whose pattern matches path
func (t *Table) Match(path string) (Route, Params, bool) {
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: path}}
	var match mux.RouteMatch
	if !t.mux.Match(req, &match) || match.Route == nil {
		return Route{}, nil, false
	}

	r, ok := t.routes[match.Route.GetName()]
	if !ok {
		return Route{}, nil, false
	}
	params := make(Params, len(match.Vars))
	for k, v := range match.Vars {
		params[k] = v
	}
	return r, params, true
}

// Resolve is Match with unmatched paths mapped to a not-found route
func (t *Table) Resolve(path string, notFound View) (Route, Params, bool) {
	r, params, ok := t.Match(path)
	if !ok {
		if notFound.Status == 0 {
			notFound.Status = http.StatusNotFound
		}
		return Route{Path: path, Name: NotFoundRoute, View: notFound}, Params{}, false
	}
	return r, params, true
}

// URL builds the path of a named route, e.g. URL("recipe-detail", "slug", "pasta-bake")
func (t *Table) URL(name string, pairs ...string) (string, error) {
	route := t.mux.Get(name)
	if route == nil {
		return "", fmt.Errorf("no route named %q", name)
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}

// pathTemplate turns "/recipe/:slug" into the mux template "/recipe/{slug}"
func pathTemplate(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("path %q must start with /", path)
	}
	if strings.ContainsAny(path, "{}") {
		return "", fmt.Errorf("path %q contains braces", path)
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		if name == "" || strings.ContainsAny(name, ":?*+()") {
			return "", fmt.Errorf("invalid dynamic segment %q", seg)
		}
		segments[i] = "{" + name + "}"
	}
	return strings.Join(segments, "/"), nil
}
