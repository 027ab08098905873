package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/middleware"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
	ws "github.com/bimuz/bimuz-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// InvoiceEventSource streams invoice status changes until ctx ends.
type InvoiceEventSource interface {
	Subscribe(ctx context.Context) <-chan model.InvoiceEvent
}

// WSHandler pushes live invoice status changes to staff dashboards.
type WSHandler struct {
	events   InvoiceEventSource
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(events InvoiceEventSource, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		events:   events,
		log:      logger.Component(log, "ws_handler"),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// InvoiceEventsStream godoc
// WS /api/v1/employee/ws/invoices?token=
// Mentors only receive events for their own groups.
func (h *WSHandler) InvoiceEventsStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	scope := service.ScopeFor(claims)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int64("employee_id", claims.UserID).Str("role", string(claims.Role)).Logger()
	wsLog.Info().Msg("Employee connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := h.events.Subscribe(ctx)
	pongs := make(chan struct{}, 1)
	go h.readLoop(conn, wsLog, pongs, cancel)

	scopeName := "all"
	if scope.MentorID != nil {
		scopeName = "mentor"
	}
	if err := ws.WriteTyped(conn, ws.ConnectedResponse{Event: ws.EventConnected, Employee: claims.UserID, Scope: scopeName}); err != nil {
		return
	}

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Connection closed")
			return
		case ev, ok := <-events:
			if !ok {
				ws.WriteError(conn, "event stream closed")
				return
			}
			if !eventVisible(ev, scope) {
				continue
			}
			if err := ws.WriteTyped(conn, ws.InvoiceStatusResponse{Event: ws.EventInvoiceStatus, Invoice: ev}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-pongs:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readLoop drains client messages. The write side is owned by the caller,
// so pong replies are handed over through pongs.
func (h *WSHandler) readLoop(conn *websocket.Conn, log zerolog.Logger, pongs chan<- struct{}, done context.CancelFunc) {
	defer done()
	ws.KeepAlive(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			select {
			case pongs <- struct{}{}:
			default:
			}
		default:
			log.Debug().Str("action", string(msg.Action)).Msg("Ignoring unknown action")
		}
	}
}

// eventVisible applies the caller's read scope to an invoice event.
func eventVisible(ev model.InvoiceEvent, scope service.Scope) bool {
	if scope.MentorID != nil {
		return ev.MentorID != nil && *ev.MentorID == *scope.MentorID
	}
	return true
}
