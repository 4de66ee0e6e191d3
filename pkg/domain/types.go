package domain

import "time"

type UserRole string

const (
	RoleParent  UserRole = "parent"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// VerificationStatus tracks the identity-check state of an account,
// independent of any task lifecycle.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

type TaskStatus string

const (
	TaskPending         TaskStatus = "pending"
	TaskApproved        TaskStatus = "approved"
	TaskPaymentPending  TaskStatus = "payment_pending"
	TaskPaid            TaskStatus = "paid"
	TaskAssigned        TaskStatus = "assigned"
	TaskInProgress      TaskStatus = "in_progress"
	TaskCompleted       TaskStatus = "completed"
	TaskSettled         TaskStatus = "settled"
	TaskRejected        TaskStatus = "rejected"
	TaskPaymentRejected TaskStatus = "payment_rejected"
)

type NotificationType string

const (
	NotificationTaskAssigned    NotificationType = "task_assigned"
	NotificationPaymentRejected NotificationType = "payment_rejected"
)

// User is the directory record shared by all roles. Exactly one of the
// profile pointers is set, matching Role; phone is unique across the
// directory and Role is immutable after registration.
type User struct {
	ID           string             `json:"id"`
	Phone        string             `json:"phone"`
	Name         string             `json:"name"`
	PasswordHash string             `json:"-"`
	Role         UserRole           `json:"role"`
	Verification VerificationStatus `json:"verificationStatus"`
	Parent       *ParentProfile     `json:"parent,omitempty"`
	Teacher      *TeacherProfile    `json:"teacher,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// ParentProfile carries the parent-only directory fields.
type ParentProfile struct {
	ChildGrade int `json:"childGrade"`
}

// TeacherProfile carries the tutor-only directory fields. HourlyRate is
// the stored pre-markup figure; presentation layers apply the display
// markup on read.
type TeacherProfile struct {
	Subjects     []string `json:"subjects"`
	Grades       []int    `json:"grades"`
	Introduction string   `json:"introduction"`
	Experience   string   `json:"experience"`
	HourlyRate   int      `json:"hourlyRate"`
	Certificates []string `json:"certificates"`
}

// Task is a tutoring request moving through the admin-gated lifecycle.
// Price is the stored pre-markup total. ChatGroupID is set exactly once,
// at the assigned transition.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Subject       string     `json:"subject"`
	Grade         int        `json:"grade"`
	DurationHours int        `json:"durationHours"`
	Price         int        `json:"price"`
	Status        TaskStatus `json:"status"`
	PublisherID   string     `json:"publisherId"`
	TeacherID     string     `json:"teacherId"`
	ChatGroupID   string     `json:"chatGroupId,omitempty"`

	RejectionReason string `json:"rejectionReason,omitempty"`

	// Acting admin ids for the admin-performed transitions.
	ReviewedByID        string `json:"reviewedById,omitempty"`
	PaymentReviewedByID string `json:"paymentReviewedById,omitempty"`
	SettledByID         string `json:"settledById,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	AssignedAt  *time.Time `json:"assignedAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	SettledAt   *time.Time `json:"settledAt,omitempty"`
}

// ChatGroup is the three-member thread opened once a task's payment is
// confirmed. Members reference users by id only.
type ChatGroup struct {
	ID        string       `json:"id"`
	TaskID    string       `json:"taskId"`
	Members   []ChatMember `json:"members"`
	CreatedAt time.Time    `json:"createdAt"`
}

type ChatMember struct {
	UserID string   `json:"userId"`
	Role   UserRole `json:"role"`
}

// IsMember reports whether the user belongs to the group.
func (g ChatGroup) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID          string    `json:"id"`
	ChatGroupID string    `json:"chatGroupId"`
	SenderID    string    `json:"senderId"`
	SenderRole  UserRole  `json:"senderRole"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Notification struct {
	ID            string           `json:"id"`
	Type          NotificationType `json:"type"`
	TargetUserID  string           `json:"targetUserId"`
	RelatedTaskID string           `json:"relatedTaskId"`
	IsRead        bool             `json:"isRead"`
	CreatedAt     time.Time        `json:"createdAt"`
}
