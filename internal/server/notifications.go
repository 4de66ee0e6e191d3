package server

import (
	"net/http"
	"strings"

	"tutorhub/pkg/domain"
)

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	notifications, err := s.app.ListNotifications(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	unread := 0
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  notifications,
		"count":  len(notifications),
		"unread": unread,
	})
}

// handleNotificationByID serves POST /api/notifications/{id}/read.
func (s *Server) handleNotificationByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || action != "read" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	n, err := s.app.MarkNotificationRead(user, id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
