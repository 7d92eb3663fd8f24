package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"device_console/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxInboundWS = 1 << 12 // 4 KB; clients only send control frames

	defaultViewInterval = 500 * time.Millisecond
	maxViewInterval     = 10 * time.Second

	wsTypeView  = "view"
	wsTypeError = "error"
)

type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// The console is served to operators on the local network; any origin may connect.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// viewCursor remembers the last view pushed so unchanged views are skipped.
type viewCursor struct {
	sent      bool
	gen       int
	updatedAt time.Time
}

func (vc *viewCursor) changed(v models.View) bool {
	if vc.sent && v.Generation == vc.gen && v.UpdatedAt.Equal(vc.updatedAt) {
		return false
	}
	vc.sent, vc.gen, vc.updatedAt = true, v.Generation, v.UpdatedAt
	return true
}

// @Summary      Live view stream
// @Description  WebSocket. Pushes {"type":"view","data":View} whenever the view changes, checked every interval (default 500ms, max 10s).
// @Tags         console
// @Param        interval      query  string  false  "Go duration, e.g. 250ms"
// @Param        interval_ms   query  int     false  "Milliseconds"
// @Param        access_token  query  string  false  "Bearer token when headers cannot be set"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := viewInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxInboundWS)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go h.drainReads(conn, closed)

	ctx := c.Request.Context()
	var cursor viewCursor
	if err := h.pushView(ctx, conn, &cursor); err != nil {
		if h.log != nil {
			h.log.Infow("ws_initial_push_failed", "err", err)
		}
		return
	}

	views := time.NewTicker(interval)
	defer views.Stop()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-pings.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-views.C:
			if err := h.pushView(ctx, conn, &cursor); err != nil {
				if h.log != nil {
					h.log.Infow("ws_push_failed", "err", err)
				}
				return
			}
		}
	}
}

// viewInterval reads ?interval=250ms or ?interval_ms=250; out-of-range values use the default.
func viewInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxViewInterval {
			return d
		}
	}
	if s := c.Query("interval_ms"); s != "" {
		if ms, err := strconv.Atoi(s); err == nil && ms > 0 && time.Duration(ms)*time.Millisecond <= maxViewInterval {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultViewInterval
}

// drainReads consumes control frames and closes done when the peer goes away.
func (h *Handler) drainReads(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// pushView writes the view when it differs from the last one sent. A failed
// lookup is reported to the client before the error is returned.
func (h *Handler) pushView(ctx context.Context, conn *websocket.Conn, cursor *viewCursor) error {
	v, err := h.services.Monitoring.GetView(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_view_failed", "err", err)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(wsEnvelope{Type: wsTypeError, Error: errGetView})
		return err
	}
	if !cursor.changed(v) {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: wsTypeView, Data: v})
}
