package router

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/recipeapp/recipe-app/util"
)

// Pages lists the page templates; each defines "title" and "content" blocks
// rendered inside base.html
var Pages = []string{
	"home.html",
	"news.html",
	"about.html",
	"login.html",
	"register.html",
	"recipes.html",
	"recipe_detail.html",
	"terms.html",
	"privacy.html",
	"loading.html",
	"error_fallback.html",
	"not_found.html",
}

// FragmentKey in the template data renders only the "content" block
const FragmentKey = "fragment"

// TemplateRegistry is a custom html/template renderer for Echo framework
type TemplateRegistry struct {
	templates map[string]*template.Template
	extraData map[string]interface{}
}

// Render e.Renderer interface
func (t *TemplateRegistry) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return errors.New("Template not found -> " + name)
	}

	// inject more app data information. E.g. appVersion
	m, isMap := data.(map[string]interface{})
	if isMap {
		for k, v := range t.extraData {
			if _, exists := m[k]; !exists {
				m[k] = v
			}
		}
		if fragment, _ := m[FragmentKey].(bool); fragment {
			return tmpl.ExecuteTemplate(w, "content", data)
		}
	}

	return tmpl.ExecuteTemplate(w, "base.html", data)
}

// NewTemplateRegistry parses base.html together with every page template
func NewTemplateRegistry(tmplDir fs.FS, extraData map[string]interface{}) (*TemplateRegistry, error) {
	tmplBaseString, err := util.StringFromEmbedFile(tmplDir, "base.html")
	if err != nil {
		return nil, err
	}

	funcs := template.FuncMap{
		"StringsJoin": strings.Join,
	}
	templates := make(map[string]*template.Template)
	for _, page := range Pages {
		pageString, err := util.StringFromEmbedFile(tmplDir, page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(page, ".html")
		tmpl, err := template.New(name).Funcs(funcs).Parse(tmplBaseString + pageString)
		if err != nil {
			return nil, err
		}
		templates[page] = tmpl
	}

	return &TemplateRegistry{
		templates: templates,
		extraData: extraData,
	}, nil
}

// New function
func New(tmplDir fs.FS, extraData map[string]interface{}, secret []byte) (*echo.Echo, error) {
	e := echo.New()
	store := sessions.NewCookieStore(secret)
	store.Options.HttpOnly = true
	e.Use(session.Middleware(store))

	registry, err := NewTemplateRegistry(tmplDir, extraData)
	if err != nil {
		return nil, err
	}

	lvl, err := util.ParseLogLevel(util.LookupEnvOrString(util.LogLevel, "INFO"))
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)

	logConfig := middleware.DefaultLoggerConfig
	logConfig.Skipper = func(c echo.Context) bool {
		resp := c.Response()
		if resp.Status >= 500 && lvl > log.ERROR { // do not log if response is 5XX but log level is higher than ERROR
			return true
		} else if resp.Status >= 400 && lvl > log.WARN { // do not log if response is 4XX but log level is higher than WARN
			return true
		} else if lvl > log.DEBUG { // do not log if log level is higher than DEBUG
			return true
		}
		return false
	}

	e.Logger.SetLevel(lvl)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.LoggerWithConfig(logConfig))
	e.Use(middleware.Recover())
	e.HideBanner = true
	e.HidePort = lvl > log.INFO // hide the port output if the log level is higher than INFO
	e.Validator = NewValidator()
	e.Renderer = registry

	return e, nil
}
