package handler

import (
	"mingle/internal/app/chat"
	"mingle/internal/app/history"
	"mingle/internal/app/presence"
	"mingle/internal/app/storage"
	"mingle/internal/configs"
)

// AppDeps bundles the collaborators the HTTP and websocket handlers need.
type AppDeps struct {
	Registry *presence.Registry
	Router   *chat.Router
	History  history.Store
	Storage  storage.Service
	Config   *configs.AppConfig
}
