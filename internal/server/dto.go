package server

import (
	"time"

	"tutorhub/pkg/domain"
	"tutorhub/pkg/pricing"
)

// The DTOs below are the only place the display markup is applied.
// Stored figures stay pre-markup everywhere else; parents see the
// marked-up price, the teacher and admins see the stored one.

type userDTO struct {
	ID           string          `json:"id"`
	Phone        string          `json:"phone,omitempty"`
	Name         string          `json:"name"`
	Role         domain.UserRole `json:"role"`
	Verification string          `json:"verificationStatus"`
	Parent       *parentDTO      `json:"parent,omitempty"`
	Teacher      *teacherDTO     `json:"teacher,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type parentDTO struct {
	ChildGrade int `json:"childGrade"`
}

type teacherDTO struct {
	Subjects      []string `json:"subjects"`
	SubjectLabels []string `json:"subjectLabels"`
	Grades        []int    `json:"grades"`
	Introduction  string   `json:"introduction"`
	Experience    string   `json:"experience"`
	HourlyRate    int      `json:"hourlyRate"`
	Certificates  []string `json:"certificates,omitempty"`
}

// userView renders a directory record for a viewer. Phone and
// certificates are limited to the owner and admins; a teacher's hourly
// rate is marked up for everyone else.
func userView(u domain.User, viewer domain.User) userDTO {
	self := viewer.ID == u.ID
	trusted := self || viewer.Role == domain.RoleAdmin

	dto := userDTO{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		Verification: string(u.Verification),
		CreatedAt:    u.CreatedAt,
	}
	if trusted {
		dto.Phone = u.Phone
	}
	if u.Parent != nil {
		dto.Parent = &parentDTO{ChildGrade: u.Parent.ChildGrade}
	}
	if u.Teacher != nil {
		p := u.Teacher
		labels := make([]string, 0, len(p.Subjects))
		for _, code := range p.Subjects {
			labels = append(labels, domain.SubjectLabel(code))
		}
		rate := p.HourlyRate
		if !trusted {
			rate = pricing.DisplayPrice(rate)
		}
		t := &teacherDTO{
			Subjects:      p.Subjects,
			SubjectLabels: labels,
			Grades:        p.Grades,
			Introduction:  p.Introduction,
			Experience:    p.Experience,
			HourlyRate:    rate,
		}
		if trusted {
			t.Certificates = p.Certificates
		}
		dto.Teacher = t
	}
	return dto
}

type taskDTO struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Subject       string            `json:"subject"`
	SubjectLabel  string            `json:"subjectLabel"`
	Grade         int               `json:"grade"`
	DurationHours int               `json:"durationHours"`
	Price         int               `json:"price"`
	DisplayPrice  int               `json:"displayPrice,omitempty"`
	Status        domain.TaskStatus `json:"status"`
	PublisherID   string            `json:"publisherId"`
	TeacherID     string            `json:"teacherId"`
	ChatGroupID   string            `json:"chatGroupId,omitempty"`

	RejectionReason string `json:"rejectionReason,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	AssignedAt  *time.Time `json:"assignedAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	SettledAt   *time.Time `json:"settledAt,omitempty"`
}

// taskView renders a task for a viewer. Parents pay the marked-up
// figure so that is the price they see; the teacher sees the stored
// payout figure; admins see both.
func taskView(t domain.Task, viewer domain.User) taskDTO {
	dto := taskDTO{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Subject:         t.Subject,
		SubjectLabel:    domain.SubjectLabel(t.Subject),
		Grade:           t.Grade,
		DurationHours:   t.DurationHours,
		Price:           t.Price,
		Status:          t.Status,
		PublisherID:     t.PublisherID,
		TeacherID:       t.TeacherID,
		ChatGroupID:     t.ChatGroupID,
		RejectionReason: t.RejectionReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ApprovedAt:      t.ApprovedAt,
		PaidAt:          t.PaidAt,
		AssignedAt:      t.AssignedAt,
		StartedAt:       t.StartedAt,
		CompletedAt:     t.CompletedAt,
		SettledAt:       t.SettledAt,
	}
	switch viewer.Role {
	case domain.RoleParent:
		dto.Price = pricing.DisplayPrice(t.Price)
	case domain.RoleAdmin:
		dto.DisplayPrice = pricing.DisplayPrice(t.Price)
	}
	return dto
}

func taskViews(tasks []domain.Task, viewer domain.User) []taskDTO {
	items := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, taskView(t, viewer))
	}
	return items
}

// quoteView renders a pricing suggestion. hourlyRate and total are the
// stored pre-markup figures the publish form submits back; parents also
// get the display figures the platform will show them, kept separate so
// a quoted total never round-trips through the markup twice.
func quoteView(grade, durationHours, hourlyRate, total int, viewer domain.User) map[string]any {
	view := map[string]any{
		"grade":         grade,
		"durationHours": durationHours,
		"hourlyRate":    hourlyRate,
		"total":         total,
	}
	if viewer.Role == domain.RoleParent {
		view["displayHourlyRate"] = pricing.DisplayPrice(hourlyRate)
		view["displayTotal"] = pricing.DisplayPrice(total)
	}
	return view
}
