package server

import (
	"net/http"
	"strconv"
	"strings"

	"tutorhub/internal/app"
	"tutorhub/pkg/domain"
)

const maxCertificateBytes = 10 << 20

func (s *Server) handleTeachers(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	filter := app.TeacherFilter{Term: strings.TrimSpace(r.URL.Query().Get("q"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("grades")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			g, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid grades filter")
				return
			}
			filter.Grades = append(filter.Grades, g)
		}
	}
	teachers, err := s.app.ListTeachers(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]userDTO, 0, len(teachers))
	for _, t := range teachers {
		items = append(items, userView(t, user))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleTeacherByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/teachers/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	teacher, err := s.app.GetTeacher(id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(teacher, user))
}

func (s *Server) handlePriceQuote(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	grade, err := strconv.Atoi(r.URL.Query().Get("grade"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid grade")
		return
	}
	hours, err := strconv.Atoi(r.URL.Query().Get("durationHours"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid durationHours")
		return
	}
	quote, err := s.app.QuotePrice(grade, hours)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteView(quote.Grade, quote.DurationHours, quote.HourlyRate, quote.Total, user))
}

// handleUploadCertificate serves certificate storage: POST uploads a
// multipart file, GET returns a short-lived download URL for a key.
func (s *Server) handleUploadCertificate(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodPost:
		if err := r.ParseMultipartForm(maxCertificateBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field required")
			return
		}
		defer file.Close()
		contentType := header.Header.Get("Content-Type")
		key, err := s.app.UploadCertificate(r.Context(), user, header.Filename, file, header.Size, contentType)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	case http.MethodGet:
		teacherID := strings.TrimSpace(r.URL.Query().Get("teacherId"))
		key := strings.TrimSpace(r.URL.Query().Get("key"))
		if teacherID == "" {
			teacherID = user.ID
		}
		if key == "" {
			writeError(w, http.StatusBadRequest, "key is required")
			return
		}
		url, err := s.app.CertificateURL(r.Context(), user, teacherID, key)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSubmitVerification(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	updated, err := s.app.SubmitForVerification(user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(updated, user))
}

func (s *Server) handleAdminVerifications(w http.ResponseWriter, r *http.Request, admin domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pending, err := s.app.ListPendingVerifications(admin)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	items := make([]userDTO, 0, len(pending))
	for _, t := range pending {
		items = append(items, userView(t, admin))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

type verificationDecisionRequest struct {
	Approve bool `json:"approve"`
}

func (s *Server) handleAdminVerificationByID(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/verifications/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req verificationDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := s.app.ReviewVerification(admin, id, req.Approve)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(updated, admin))
}
