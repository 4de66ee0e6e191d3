package server

import (
	"net/http"
	"strings"

	"tutorhub/internal/app"
	"tutorhub/pkg/domain"
)

type publishTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Subject       string `json:"subject"`
	Grade         int    `json:"grade"`
	DurationHours int    `json:"durationHours"`
	Price         int    `json:"price"`
	TeacherID     string `json:"teacherId"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		tasks, err := s.app.ListTasks(user)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": taskViews(tasks, user),
			"count": len(tasks),
		})
	case http.MethodPost:
		var req publishTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err := s.app.PublishTask(user, app.PublishTaskInput{
			Title:         req.Title,
			Description:   req.Description,
			Subject:       req.Subject,
			Grade:         req.Grade,
			DurationHours: req.DurationHours,
			Price:         req.Price,
			TeacherID:     req.TeacherID,
		})
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, taskView(task, user))
	default:
		methodNotAllowed(w)
	}
}

// handleTaskByID serves /api/tasks/{id} and /api/tasks/{id}/{action}.
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(action, "/") {
		http.NotFound(w, r)
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		task, err := s.app.GetTask(user, id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, taskView(task, user))
		return
	}

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var task domain.Task
	var err error
	switch action {
	case "approve":
		task, err = s.app.ApproveTask(user, id)
	case "reject":
		var req rejectRequest
		if derr := decodeJSON(r, &req); derr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err = s.app.RejectTask(user, id, req.Reason)
	case "pay":
		task, err = s.app.InitiatePayment(user, id)
	case "confirm-payment":
		task, err = s.app.ConfirmPayment(r.Context(), user, id)
	case "reject-payment":
		var req rejectRequest
		if derr := decodeJSON(r, &req); derr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err = s.app.RejectPayment(r.Context(), user, id, req.Reason)
	case "start":
		task, err = s.app.StartTask(user, id)
	case "complete":
		task, err = s.app.CompleteTask(user, id)
	case "settle":
		task, err = s.app.SettleTask(user, id)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskView(task, user))
}
