package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/voxnote/internal/conversation"
	"github.com/starford/voxnote/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(engine *conversation.Engine, svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(engine, svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Conversation.
	r.Post("/sessions", h.OpenSession)
	r.Post("/sessions/{id}/turns", h.Turn)
	r.Get("/sessions/{id}/history", h.History)
	r.Delete("/sessions/{id}", h.CloseSession)

	// Notes, read-only: changes go through the conversation.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Get("/graph", h.Graph)

	r.Get("/help", h.Help)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
