package app

import (
	"fmt"

	"tutorhub/pkg/domain"
	"tutorhub/pkg/pricing"
)

// TeacherFilter narrows the browsable teacher directory. Empty Grades
// matches every teacher; empty Term skips the text search.
type TeacherFilter struct {
	Grades []int
	Term   string
}

// ListTeachers returns verified teachers matching the filter, in
// directory order. Unverified and pending accounts never appear.
func (a *App) ListTeachers(filter TeacherFilter) ([]domain.User, error) {
	teachers, err := a.store.ListUsersByRole(domain.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	matched := make([]domain.User, 0, len(teachers))
	for _, t := range teachers {
		if t.Verification != domain.VerificationVerified || t.Teacher == nil {
			continue
		}
		if !domain.MatchTeacher(t.Name, *t.Teacher, filter.Grades, filter.Term) {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

// GetTeacher returns a single verified teacher's directory record.
func (a *App) GetTeacher(teacherID string) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(teacherID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok || user.Role != domain.RoleTeacher || user.Verification != domain.VerificationVerified {
		return domain.User{}, ErrTeacherNotAvailable
	}
	return user, nil
}

// PriceQuote is the suggested pricing for a prospective task.
type PriceQuote struct {
	Grade         int `json:"grade"`
	DurationHours int `json:"durationHours"`
	HourlyRate    int `json:"hourlyRate"`
	Total         int `json:"total"`
}

// QuotePrice computes the suggested hourly rate and total for a grade
// and duration, pre-markup.
func (a *App) QuotePrice(grade, durationHours int) (PriceQuote, error) {
	if grade < 1 || grade > 12 {
		return PriceQuote{}, ErrGradeInvalid
	}
	if durationHours <= 0 {
		return PriceQuote{}, ErrDurationInvalid
	}
	rate, err := pricing.SuggestedHourlyRate(grade)
	if err != nil {
		return PriceQuote{}, err
	}
	total, err := pricing.SuggestedTotal(grade, durationHours)
	if err != nil {
		return PriceQuote{}, err
	}
	return PriceQuote{
		Grade:         grade,
		DurationHours: durationHours,
		HourlyRate:    rate,
		Total:         total,
	}, nil
}
