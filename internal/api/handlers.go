package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/voxnote/internal/checksum"
	"github.com/starford/voxnote/internal/conversation"
	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	engine *conversation.Engine
	svc    *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(engine *conversation.Engine, svc *noteservice.Service) *Handler {
	return &Handler{engine: engine, svc: svc}
}

// OpenSession handles POST /api/sessions.
//
//	@Summary		Start a conversation
//	@Tags			sessions
//	@Produce		json
//	@Success		201	{object}	SessionResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: h.engine.Open()})
}

// Turn handles POST /api/sessions/{id}/turns.
//
//	@Summary		Process one utterance
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session id"
//	@Param			body	body		TurnRequest	true	"Utterance"
//	@Success		200		{object}	TurnResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/turns [post]
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.engine.Exists(id) {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	var req TurnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var lang locale.Language
	if req.Language != "" {
		lang = locale.ParseLanguage(req.Language)
	}
	_, res := h.engine.Process(r.Context(), id, req.Text, lang)
	writeJSON(w, http.StatusOK, TurnResponse{SessionID: id, Result: res})
}

// History handles GET /api/sessions/{id}/history.
//
//	@Summary		Recent turns of a conversation
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	HistoryResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, ok := h.engine.History(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	state, _ := h.engine.State(id)
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: id, Phase: state.Phase, History: entries})
}

// CloseSession handles DELETE /api/sessions/{id}.
//
//	@Summary		End a conversation
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Reset(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, optionally filtered by a find query
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	false	"Find query (title, then title/description substring)"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		notes := h.svc.Notes()
		writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
		return
	}
	res, err := h.svc.Find(r.Context(), noteservice.FindParams{Query: q})
	if err != nil {
		slog.Error("find notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: res.Matches, Total: len(res.Matches)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note and its direct children
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteResponse
//	@Success		304
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.svc.Store().Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	resp := NoteResponse{Note: note, ChildNotes: h.svc.Children(note.ID)}
	if resp.ChildNotes == nil {
		resp.ChildNotes = []models.Note{}
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	etag := checksum.ETag(payload)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Graph handles GET /api/graph.
//
//	@Summary		Note hierarchy as nodes and parent-child links
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, _ *http.Request) {
	doc := h.svc.Store().Snapshot()
	nodes := make([]GraphNode, len(doc.Notes))
	for i, n := range doc.Notes {
		nodes[i] = GraphNode{ID: n.ID, Title: n.Title, Done: n.Done}
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: doc.Edges()})
}

// Help handles GET /api/help.
//
//	@Summary		Usage guide
//	@Tags			help
//	@Produce		json
//	@Param			lang	query		string	false	"Language"	Enums(en, he)
//	@Success		200		{object}	HelpResponse
//	@Router			/help [get]
func (h *Handler) Help(w http.ResponseWriter, r *http.Request) {
	lang := locale.ParseLanguage(r.URL.Query().Get("lang"))
	writeJSON(w, http.StatusOK, HelpResponse{Language: lang.String(), Text: locale.Help(lang)})
}

