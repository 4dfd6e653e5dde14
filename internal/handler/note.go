package handler

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dukerupert/scribble/internal/auth"
	"github.com/dukerupert/scribble/internal/service"
	"github.com/dukerupert/scribble/internal/websocket"
)

type NoteHandler struct {
	notes     *service.NoteService
	hub       *websocket.Hub
	templates *template.Template
	logger    *slog.Logger
}

func NewNoteHandler(ns *service.NoteService, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		notes:     ns,
		hub:       hub,
		templates: parseTemplates(),
		logger:    logger,
	}
}

func (h *NoteHandler) publish(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Publish(userID, msg)
	}
}

func (h *NoteHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.renderHome(w, r, "", popFlash(w, r))
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	note, err := h.notes.Create(r.Context(), id.UserID, r.FormValue("note"))
	if err != nil {
		msg, ok := service.UserMessage(err)
		if !ok {
			h.logger.Error("create note", "user_id", id.UserID, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		h.renderHome(w, r, msg, "")
		return
	}

	h.publish(id.UserID, websocket.NewMessage("note", "created", note.ID, nil))
	h.renderHome(w, r, "", "Note added!")
}

type deleteNoteRequest struct {
	NoteID int64 `json:"noteId"`
}

// DeleteNote answers {} whether or not anything was removed, so callers
// cannot probe which note ids exist or who owns them.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	var req deleteNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	id := auth.FromContext(r.Context())
	outcome, err := h.notes.Delete(r.Context(), id, req.NoteID)
	if err != nil {
		h.logger.Error("delete note", "note_id", req.NoteID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete note"})
		return
	}

	if outcome == service.OutcomeDeleted {
		h.publish(id.UserID, websocket.NewMessage("note", "deleted", req.NoteID, nil))
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *NoteHandler) renderHome(w http.ResponseWriter, r *http.Request, errMsg, msg string) {
	id := auth.FromContext(r.Context())

	notes, err := h.notes.List(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("list notes", "user_id", id.UserID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	render(w, h.templates, h.logger, http.StatusOK, "home.html", page{
		Title:   "Home",
		User:    id,
		Error:   errMsg,
		Message: msg,
		Notes:   notes,
	})
}
