/*
Package handler provides the HTTP handlers and routing setup for the server.

This file contains the conversation history endpoint used to hydrate a chat
view. Live delivery is best-effort; this read path is how a recipient catches
up on anything it missed while offline.
*/
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mingle/internal/pkg/auth/jwt"
	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/logx"
	"mingle/internal/pkg/resp"
)

const (
	// defaultHistoryLimit applies when the client does not ask for a limit.
	defaultHistoryLimit = 50

	// maxHistoryLimit caps a single history page.
	maxHistoryLimit = 200
)

// HandleConversationHistory returns the messages exchanged between the
// authenticated user and the peer in the URL, oldest first.
func HandleConversationHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		peerID := chi.URLParam(r, "peerID")
		if peerID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		limit := defaultHistoryLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 1 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			limit = min(parsed, maxHistoryLimit)
		}

		messages, err := deps.History.ListBetween(r.Context(), payload.UserID, peerID, limit)
		if err != nil {
			logx.Error(err, "Failed to load conversation history",
				"user_id", payload.UserID, "peer_id", peerID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": messages,
		})
	}
}
