/*
Package handler provides the HTTP handlers and routing setup for the server.

This file defines the main router, applying logging, CORS and per-IP rate
limiting before delegating to the REST and websocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"mingle/internal/pkg/auth/jwt"
	"mingle/internal/pkg/limiter"
	"mingle/internal/pkg/logx"
	"mingle/internal/pkg/resp"
)

const (
	// ConnectRate limits new websocket handshakes per IP.
	ConnectRate  = 0.2
	ConnectBurst = 5

	// APIRate limits REST calls per IP.
	APIRate  = 5
	APIBurst = 10
)

// Router builds the HTTP routing table: health check, authenticated REST
// endpoints (history, attachment presigning), and the websocket entry point.
func Router(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
	apiLimiter := limiter.NewIPRateLimiter(rate.Limit(APIRate), APIBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Mingle Chat Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(apiLimiter.Middleware)
		api.Use(jwt.RequireIdentity(deps.Config.JWTSecret))

		api.Get("/chat/history/{peerID}", HandleConversationHistory(deps))

		api.Post("/file/presign-upload", HandlePresignUpload(deps))
		api.Get("/file/presign-download", HandlePresignDownload(deps))
		api.Post("/file/upload", HandleDirectUpload(deps))
		api.Delete("/file", HandleAttachmentDelete(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
