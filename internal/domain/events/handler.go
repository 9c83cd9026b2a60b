package events

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/pkg/response"
)

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler accepts websocket upgrades from the given origins; an empty
// list allows any origin (local development).
func NewHandler(hub *Hub, jwtService *jwt.Service, log *logger.Logger, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		hub: hub,
		jwt: jwtService,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws/events", h.HandleWebSocket)
}

// HandleWebSocket authenticates with ?token= because browsers cannot set
// headers on websocket handshakes.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	h.log.Debug("websocket connected", "user_id", claims.UserID)
	h.hub.ServeWS(conn, claims.UserID)
	h.log.Debug("websocket disconnected", "user_id", claims.UserID)
}
