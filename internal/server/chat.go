package server

import (
	"net/http"
	"strconv"
	"strings"

	"tutorhub/pkg/domain"
)

type postMessageRequest struct {
	Content string `json:"content"`
}

// handleChatGroup serves /api/chat-groups/{id} and
// /api/chat-groups/{id}/messages.
func (s *Server) handleChatGroup(w http.ResponseWriter, r *http.Request, user domain.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/chat-groups/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(sub, "/") {
		http.NotFound(w, r)
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		group, err := s.app.GetChatGroup(user, id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	case "messages":
		switch r.Method {
		case http.MethodGet:
			limit := 0
			if raw := r.URL.Query().Get("limit"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed < 0 {
					writeError(w, http.StatusBadRequest, "invalid limit")
					return
				}
				limit = parsed
			}
			messages, err := s.app.ListMessages(user, id, limit)
			if err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"items": messages,
				"count": len(messages),
			})
		case http.MethodPost:
			var req postMessageRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			msg, err := s.app.PostMessage(user, id, req.Content)
			if err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, msg)
		default:
			methodNotAllowed(w)
		}
	default:
		http.NotFound(w, r)
	}
}
