package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/middleware"
	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/response"
	"github.com/stemsi/exstem-progress/internal/service"
	ws "github.com/stemsi/exstem-progress/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams pipeline runs to an admin over a WebSocket.
type WSHandler struct {
	reportService *service.ReportService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

func NewWSHandler(reportService *service.ReportService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		reportService: reportService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// RunStream godoc
// WS /ws/v1/admin/runs/stream?token=
// Each {"action":"run"} message triggers a run whose diagnostics are pushed
// as they are found, followed by a completed or error event.
func (h *WSHandler) RunStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	wsLog := h.log.With().Str("admin", claims.Subject).Logger()
	wsLog.Info().Msg("Admin connected to run stream")

	for {
		var raw json.RawMessage
		if err := ws.ReadJSON(conn, &raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var msg ws.RunRequest
		if err := json.Unmarshal(raw, &msg); err != nil {
			ws.WriteError(conn, "invalid message")
			continue
		}

		switch msg.Action {
		case ws.ActionRun:
			h.handleRun(c, conn, wsLog, msg)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleRun(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, msg ws.RunRequest) {
	if len(msg.DataDir) > 4096 {
		ws.WriteError(conn, "data_dir too long")
		return
	}

	ws.WriteTyped(conn, ws.StartedResponse{Event: ws.EventStarted, DataDir: msg.DataDir})

	report, err := h.reportService.Run(c.Request.Context(), model.RunRequest{
		DataDir:    msg.DataDir,
		SkipHeader: msg.SkipHeader,
	}, func(d model.Diagnostic) {
		if err := ws.WriteTyped(conn, ws.DiagnosticResponse{Event: ws.EventDiagnostic, Diagnostic: d}); err != nil {
			wsLog.Debug().Err(err).Msg("Dropped diagnostic event")
		}
	})
	if err != nil {
		wsLog.Warn().Err(err).Msg("Streamed run failed")
		ws.WriteError(conn, err.Error())
		return
	}

	ws.WriteTyped(conn, ws.CompletedResponse{
		Event:       ws.EventCompleted,
		RunID:       report.RunID,
		Students:    len(report.Students),
		Instructors: len(report.Faculty),
		Majors:      len(report.Majors),
		Diagnostics: len(report.Diagnostics),
	})
}
