package handler

import (
	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/internal/pkg/serverutils"
	"ethics-review-be/internal/service"
	internalWS "ethics-review-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TranscriptHandler streams transcript entries of a session over a websocket.
type TranscriptHandler struct {
	sessions service.ISessionService
	tokens   *serverutils.SessionTokens
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewTranscriptHandler(sessions service.ISessionService, tokens *serverutils.SessionTokens, hub *internalWS.Hub, log logger.ILogger) *TranscriptHandler {
	return &TranscriptHandler{
		sessions: sessions,
		tokens:   tokens,
		hub:      hub,
		logger:   log,
	}
}

func (h *TranscriptHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/review/v1/ws", h.ServeWs)
}

// ServeWs handles websocket requests from the peer.
func (h *TranscriptHandler) ServeWs(c *fiber.Ctx) error {
	// Priority 1: session cookie or bearer token, resolved by the session middleware
	sessionID := serverutils.SessionID(c)

	// Priority 2: query param, browsers cannot set headers on websocket requests
	if sessionID == "" {
		if tokenStr := c.Query("token"); tokenStr != "" {
			id, err := h.tokens.Parse(tokenStr)
			if err != nil {
				h.logger.Warn("TranscriptHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
				return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
			}
			sessionID = id
		}
	}
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing session"))
	}
	if _, err := h.sessions.Get(sessionID); err != nil {
		return err
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	var backlog [][]byte
	if c.QueryBool("replay") {
		backlog = h.backlog(sessionID)
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("TranscriptHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID, "replayed": len(backlog)})
		internalWS.Attach(h.hub, conn, sessionID, backlog)
		h.logger.Info("TranscriptHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

// backlog encodes the verdict and transcript recorded so far. A session busy
// with a running conversation is streamed live only.
func (h *TranscriptHandler) backlog(sessionID string) [][]byte {
	var out [][]byte
	add := func(eventType string, data interface{}) {
		if msg, err := internalWS.Envelope(eventType, data); err == nil {
			out = append(out, msg)
		}
	}
	err := h.sessions.View(sessionID, func(sess *entity.ReviewSession) error {
		if sess.Verdict != nil {
			add(service.TranscriptEventVerdict, sess.Verdict)
		}
		for _, entry := range sess.Transcript {
			add(service.TranscriptEventEntry, entry)
		}
		add(service.TranscriptEventState, map[string]interface{}{"state": sess.State})
		return nil
	})
	if err != nil {
		h.logger.Info("TranscriptHandler", "Skipping replay", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return nil
	}
	return out
}
