package handler

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/recipeapp/recipe-app/util"
	"github.com/recipeapp/recipe-app/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type navigateRequest struct {
	Path string `json:"path"`
}

type renderEvent struct {
	Navigation string `json:"navigation"`
	Path       string `json:"path"`
	Route      string `json:"route"`
	State      string `json:"state"`
	View       string `json:"view"`
	Status     int    `json:"status"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	HTML       string `json:"html"`
}

// same-origin check of the default upgrader
var upgrader = websocket.Upgrader{}

// wsWriter serialises writes of render callbacks and pings
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(env wsEnvelope) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(env)
}

func (w *wsWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// Navigate serves live navigation over a websocket. Every path the client
// sends starts a navigation and abandons the previous one; each view shown
// is pushed back as a rendered fragment.
func Navigate(table *view.Table, rec view.Recorder) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			log.Warnf("Cannot upgrade to websocket: %v", err)
			return nil
		}
		defer func() { _ = conn.Close() }()

		conn.SetReadLimit(maxMsgSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()

		w := &wsWriter{conn: conn}
		navigator := view.NewNavigator(table, NotFoundView, view.WithRecorder(rec))
		defer navigator.Close()

		requests := make(chan string)
		done := make(chan struct{})
		go readNavigations(ctx, conn, requests, done)

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		for {
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return nil
			case <-ping.C:
				if err := w.ping(); err != nil {
					log.Debugf("Websocket ping failed: %v", err)
					return nil
				}
			case path := <-requests:
				if !strings.HasPrefix(path, "/") {
					if err := w.send(wsEnvelope{Type: "error", Error: "path must be absolute"}); err != nil {
						return nil
					}
					continue
				}
				navigator.Navigate(ctx, util.StripBasePath(util.BasePath, path), func(n *view.Navigation, v view.View) {
					env := renderEnvelope(c, n, v)
					if err := w.send(env); err != nil {
						log.Debugf("Websocket write failed: %v", err)
						cancel()
					}
				})
			}
		}
	}
}

func readNavigations(ctx context.Context, conn *websocket.Conn, requests chan<- string, done chan<- struct{}) {
	defer close(done)
	for {
		var req navigateRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("Websocket read closed: %v", err)
			}
			return
		}
		select {
		case requests <- req.Path:
		case <-ctx.Done():
			return
		}
	}
}

// renderEnvelope renders v as a page fragment for the client
func renderEnvelope(c echo.Context, n *view.Navigation, v view.View) wsEnvelope {
	var buf bytes.Buffer
	if err := c.Echo().Renderer.Render(&buf, v.Name, viewData(c, n.Route().Name, v, true), c); err != nil {
		log.Error("Cannot render view: ", err)
		return wsEnvelope{Type: "error", Error: "cannot render " + v.Name}
	}
	return wsEnvelope{Type: "render", Data: renderEvent{
		Navigation: n.ID(),
		Path:       n.Path(),
		Route:      n.Route().Name,
		State:      n.State().String(),
		View:       v.Name,
		Status:     v.StatusCode(),
		ElapsedMs:  n.Elapsed().Milliseconds(),
		HTML:       buf.String(),
	}}
}
