package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"tutorhub/internal/util"
	"tutorhub/pkg/domain"
)

const certificatePresignExpiry = 15 * time.Minute

// UploadCertificate stores a teacher's certificate file and records its
// object key on the profile. Teachers may upload before or while their
// verification is pending, not after a decision.
func (a *App) UploadCertificate(ctx context.Context, teacher domain.User, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if teacher.Role != domain.RoleTeacher || teacher.Teacher == nil {
		return "", ErrForbidden
	}
	if teacher.Verification == domain.VerificationVerified {
		return "", ErrAlreadyVerified
	}
	if a.objects == nil {
		return "", ErrStorageUnavailable
	}
	if r == nil || size <= 0 {
		return "", ErrCertificateRequired
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("certificates/%s/%s%s", teacher.ID, util.NewID(), ext)
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("upload certificate: %w", err)
	}

	teacher.Teacher.Certificates = append(teacher.Teacher.Certificates, key)
	teacher.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(teacher); err != nil {
		return "", fmt.Errorf("save user: %w", err)
	}
	return key, nil
}

// CertificateURL returns a short-lived download link for a certificate
// object. Teachers can fetch their own; admins can fetch anyone's.
func (a *App) CertificateURL(ctx context.Context, viewer domain.User, teacherID, key string) (string, error) {
	if a.objects == nil {
		return "", ErrStorageUnavailable
	}
	if viewer.Role != domain.RoleAdmin && viewer.ID != teacherID {
		return "", ErrForbidden
	}
	teacher, ok, err := a.store.GetUserByID(teacherID)
	if err != nil {
		return "", fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok || teacher.Teacher == nil {
		return "", ErrTeacherNotAvailable
	}
	owned := false
	for _, k := range teacher.Teacher.Certificates {
		if k == key {
			owned = true
			break
		}
	}
	if !owned {
		return "", ErrCertificateRequired
	}
	return a.objects.PresignGet(ctx, key, certificatePresignExpiry)
}

// SubmitForVerification moves a teacher with at least one uploaded
// certificate into the admin review queue. A rejected teacher may
// resubmit.
func (a *App) SubmitForVerification(teacher domain.User) (domain.User, error) {
	if teacher.Role != domain.RoleTeacher || teacher.Teacher == nil {
		return domain.User{}, ErrForbidden
	}
	switch teacher.Verification {
	case domain.VerificationVerified:
		return domain.User{}, ErrAlreadyVerified
	case domain.VerificationPending:
		return teacher, nil
	}
	if len(teacher.Teacher.Certificates) == 0 {
		return domain.User{}, ErrCertificateRequired
	}
	teacher.Verification = domain.VerificationPending
	teacher.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(teacher); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return teacher, nil
}

// ReviewVerification records the admin decision on a pending teacher.
func (a *App) ReviewVerification(admin domain.User, teacherID string, approve bool) (domain.User, error) {
	if admin.Role != domain.RoleAdmin {
		return domain.User{}, ErrForbidden
	}
	teacher, ok, err := a.store.GetUserByID(teacherID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok || teacher.Role != domain.RoleTeacher {
		return domain.User{}, ErrTeacherNotAvailable
	}
	if teacher.Verification != domain.VerificationPending {
		return domain.User{}, ErrVerificationNotPending
	}
	if approve {
		teacher.Verification = domain.VerificationVerified
	} else {
		teacher.Verification = domain.VerificationRejected
	}
	teacher.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(teacher); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return teacher, nil
}

// ListPendingVerifications returns teachers awaiting an admin decision.
func (a *App) ListPendingVerifications(admin domain.User) ([]domain.User, error) {
	if admin.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	teachers, err := a.store.ListUsersByRole(domain.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	pending := make([]domain.User, 0)
	for _, t := range teachers {
		if t.Verification == domain.VerificationPending {
			pending = append(pending, t)
		}
	}
	return pending, nil
}
