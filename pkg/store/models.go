package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Phone        string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;index"`
	Verification string `gorm:"not null"`
	ChildGrade   int
	Subjects     datatypes.JSON
	Grades       datatypes.JSON
	Introduction string `gorm:"type:text"`
	Experience   string `gorm:"type:text"`
	HourlyRate   int
	Certificates datatypes.JSON
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type TaskModel struct {
	ID                  string `gorm:"primaryKey"`
	Title               string `gorm:"not null"`
	Description         string `gorm:"type:text;not null"`
	Subject             string `gorm:"not null"`
	Grade               int    `gorm:"not null"`
	DurationHours       int    `gorm:"not null"`
	Price               int    `gorm:"not null"`
	Status              string `gorm:"not null;index"`
	PublisherID         string `gorm:"not null;index"`
	TeacherID           string `gorm:"index"`
	ChatGroupID         string
	RejectionReason     string
	ReviewedByID        string
	PaymentReviewedByID string
	SettledByID         string
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
	ApprovedAt          *time.Time
	PaidAt              *time.Time
	AssignedAt          *time.Time
	StartedAt           *time.Time
	CompletedAt         *time.Time
	SettledAt           *time.Time
}

type ChatGroupModel struct {
	ID        string         `gorm:"primaryKey"`
	TaskID    string         `gorm:"uniqueIndex;not null"`
	Members   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type MessageModel struct {
	ID          string    `gorm:"primaryKey"`
	ChatGroupID string    `gorm:"not null;index"`
	SenderID    string    `gorm:"not null"`
	SenderRole  string    `gorm:"not null"`
	Content     string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

type NotificationModel struct {
	ID            string    `gorm:"primaryKey"`
	Type          string    `gorm:"not null"`
	TargetUserID  string    `gorm:"not null;index"`
	RelatedTaskID string    `gorm:"index"`
	IsRead        bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
}
