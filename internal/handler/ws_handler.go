/*
Package handler provides the HTTP handlers and routing setup for the server.

This file contains the websocket connection handler: rate limiting, token
verification before the upgrade, registry admission with single-session
replacement, and the client lifecycle start.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"mingle/internal/app/chat"
	"mingle/internal/pkg/auth/jwt"
	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/limiter"
	"mingle/internal/pkg/logx"
	"mingle/internal/pkg/resp"
)

// connectionToken extracts the identity token from the request. Browsers
// cannot set headers on a websocket handshake, so the token travels in the
// "token" query parameter; an Authorization header is honored when present.
func connectionToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}

	return ""
}

// HandleWebSocket processes websocket connection requests. Verification runs
// to completion before the upgrade: a connection that fails authentication is
// refused with an HTTP error and never touches the registry.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := connectionToken(r)
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, customErr := jwt.VerifyToken(token, deps.Config.JWTSecret)
		if customErr != nil {
			logx.Warn("WebSocket connection rejected: Token verification failed.",
				"error_code", customErr.Code)
			resp.RespondError(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(conn, payload.UserID, deps.Registry, deps.Router)

		// Single-session policy: a fresh admission supersedes any prior
		// connection for the identity. The registry hands back the old
		// handle; closing it is this handler's job, not the registry's.
		if prior, hadPrior := deps.Registry.Admit(payload.UserID, client); hadPrior {
			logx.Warn("Replacing existing session for identity.", "user_id", payload.UserID)
			prior.Kick(errs.NewError(errs.ErrSessionReplaced).Message)
		}

		go client.WritePump()

		logx.Info("WebSocket connection established.", "user_id", payload.UserID)

		client.ReadPump()
	}
}
