package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"tutorhub/pkg/domain"
)

const migrateLockID int64 = 48120731

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&UserModel{},
			&TaskModel{},
			&ChatGroupModel{},
			&MessageModel{},
			&NotificationModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"phone", "name", "password_hash", "role", "verification",
			"child_grade", "subjects", "grades", "introduction", "experience",
			"hourly_rate", "certificates", "updated_at",
		}),
	}).Create(&model).Error
}

// HasUserPhone checks if a phone number is already registered.
func (s *GormStore) HasUserPhone(phone string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByPhone looks up a user by phone number.
func (s *GormStore) GetUserByPhone(phone string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("phone = ?", phone).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	return s.listUsers()
}

// ListUsersByRole returns users of one role ordered by created_at.
func (s *GormStore) ListUsersByRole(role domain.UserRole) ([]domain.User, error) {
	return s.listUsers("role = ?", string(role))
}

func (s *GormStore) listUsers(conds ...any) ([]domain.User, error) {
	var models []UserModel
	tx := s.db.Order("created_at ASC")
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// CountUsersByRole returns the number of users holding a role.
func (s *GormStore) CountUsersByRole(role domain.UserRole) (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("role = ?", string(role)).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveTask stores or updates a task.
func (s *GormStore) SaveTask(t domain.Task) error {
	model := taskToModel(t)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "subject", "grade", "duration_hours",
			"price", "status", "teacher_id", "chat_group_id",
			"rejection_reason", "reviewed_by_id", "payment_reviewed_by_id",
			"settled_by_id", "updated_at", "approved_at", "paid_at",
			"assigned_at", "started_at", "completed_at", "settled_at",
		}),
	}).Create(&model).Error
}

// GetTask retrieves a task.
func (s *GormStore) GetTask(id string) (domain.Task, bool, error) {
	var model TaskModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Task{}, false, nil
		}
		return domain.Task{}, false, err
	}
	return taskFromModel(model), true, nil
}

// ListTasks returns all tasks ordered by created_at.
func (s *GormStore) ListTasks() ([]domain.Task, error) {
	return s.listTasks()
}

// ListTasksByPublisher returns tasks published by a parent.
func (s *GormStore) ListTasksByPublisher(parentID string) ([]domain.Task, error) {
	return s.listTasks("publisher_id = ?", parentID)
}

// ListTasksByTeacher returns tasks directed at a teacher.
func (s *GormStore) ListTasksByTeacher(teacherID string) ([]domain.Task, error) {
	return s.listTasks("teacher_id = ?", teacherID)
}

func (s *GormStore) listTasks(conds ...any) ([]domain.Task, error) {
	var models []TaskModel
	tx := s.db.Order("created_at ASC")
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Task, 0, len(models))
	for _, m := range models {
		res = append(res, taskFromModel(m))
	}
	return res, nil
}

// SaveChatGroup creates a chat group. The unique index on task_id backs
// the exactly-once-per-task invariant.
func (s *GormStore) SaveChatGroup(g domain.ChatGroup) error {
	model := chatGroupToModel(g)
	return s.db.Create(&model).Error
}

// GetChatGroup retrieves a chat group by ID.
func (s *GormStore) GetChatGroup(id string) (domain.ChatGroup, bool, error) {
	var model ChatGroupModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ChatGroup{}, false, nil
		}
		return domain.ChatGroup{}, false, err
	}
	return chatGroupFromModel(model), true, nil
}

// GetChatGroupByTask retrieves the chat group bound to a task.
func (s *GormStore) GetChatGroupByTask(taskID string) (domain.ChatGroup, bool, error) {
	var model ChatGroupModel
	if err := s.db.Where("task_id = ?", taskID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ChatGroup{}, false, nil
		}
		return domain.ChatGroup{}, false, err
	}
	return chatGroupFromModel(model), true, nil
}

// AppendMessage records a message.
func (s *GormStore) AppendMessage(msg domain.Message) error {
	model := messageToModel(msg)
	return s.db.Create(&model).Error
}

// ListMessages returns the newest messages for a group, oldest first
// within the window.
func (s *GormStore) ListMessages(chatGroupID string, limit int) ([]domain.Message, error) {
	query := s.db.Where("chat_group_id = ?", chatGroupID)
	if limit > 0 {
		// Take the newest rows, then flip them back into chronological
		// order so a capped listing always ends at the latest message.
		query = query.Order("created_at DESC").Limit(limit)
	} else {
		query = query.Order("created_at ASC")
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	if limit > 0 {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}
	return msgs, nil
}

// SaveNotification stores or updates a notification.
func (s *GormStore) SaveNotification(n domain.Notification) error {
	model := notificationToModel(n)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_read"}),
	}).Create(&model).Error
}

// GetNotification retrieves a notification by ID.
func (s *GormStore) GetNotification(id string) (domain.Notification, bool, error) {
	var model NotificationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Notification{}, false, nil
		}
		return domain.Notification{}, false, err
	}
	return notificationFromModel(model), true, nil
}

// ListNotificationsByUser returns a user's notifications, newest first.
func (s *GormStore) ListNotificationsByUser(userID string) ([]domain.Notification, error) {
	var models []NotificationModel
	if err := s.db.Where("target_user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		res = append(res, notificationFromModel(m))
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	model := UserModel{
		ID:           u.ID,
		Phone:        u.Phone,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Verification: string(u.Verification),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Parent != nil {
		model.ChildGrade = u.Parent.ChildGrade
	}
	if u.Teacher != nil {
		model.Subjects, _ = json.Marshal(u.Teacher.Subjects)
		model.Grades, _ = json.Marshal(u.Teacher.Grades)
		model.Introduction = u.Teacher.Introduction
		model.Experience = u.Teacher.Experience
		model.HourlyRate = u.Teacher.HourlyRate
		model.Certificates, _ = json.Marshal(u.Teacher.Certificates)
	}
	return model
}

func userFromModel(m UserModel) domain.User {
	user := domain.User{
		ID:           m.ID,
		Phone:        m.Phone,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		Verification: domain.VerificationStatus(m.Verification),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if user.Verification == "" {
		user.Verification = domain.VerificationUnverified
	}
	switch user.Role {
	case domain.RoleParent:
		user.Parent = &domain.ParentProfile{ChildGrade: m.ChildGrade}
	case domain.RoleTeacher:
		profile := &domain.TeacherProfile{
			Introduction: m.Introduction,
			Experience:   m.Experience,
			HourlyRate:   m.HourlyRate,
		}
		if len(m.Subjects) > 0 {
			_ = json.Unmarshal(m.Subjects, &profile.Subjects)
		}
		if len(m.Grades) > 0 {
			_ = json.Unmarshal(m.Grades, &profile.Grades)
		}
		if len(m.Certificates) > 0 {
			_ = json.Unmarshal(m.Certificates, &profile.Certificates)
		}
		user.Teacher = profile
	}
	return user
}

func taskToModel(t domain.Task) TaskModel {
	return TaskModel{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description,
		Subject:             t.Subject,
		Grade:               t.Grade,
		DurationHours:       t.DurationHours,
		Price:               t.Price,
		Status:              string(t.Status),
		PublisherID:         t.PublisherID,
		TeacherID:           t.TeacherID,
		ChatGroupID:         t.ChatGroupID,
		RejectionReason:     t.RejectionReason,
		ReviewedByID:        t.ReviewedByID,
		PaymentReviewedByID: t.PaymentReviewedByID,
		SettledByID:         t.SettledByID,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		ApprovedAt:          t.ApprovedAt,
		PaidAt:              t.PaidAt,
		AssignedAt:          t.AssignedAt,
		StartedAt:           t.StartedAt,
		CompletedAt:         t.CompletedAt,
		SettledAt:           t.SettledAt,
	}
}

func taskFromModel(m TaskModel) domain.Task {
	return domain.Task{
		ID:                  m.ID,
		Title:               m.Title,
		Description:         m.Description,
		Subject:             m.Subject,
		Grade:               m.Grade,
		DurationHours:       m.DurationHours,
		Price:               m.Price,
		Status:              domain.TaskStatus(m.Status),
		PublisherID:         m.PublisherID,
		TeacherID:           m.TeacherID,
		ChatGroupID:         m.ChatGroupID,
		RejectionReason:     m.RejectionReason,
		ReviewedByID:        m.ReviewedByID,
		PaymentReviewedByID: m.PaymentReviewedByID,
		SettledByID:         m.SettledByID,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		ApprovedAt:          m.ApprovedAt,
		PaidAt:              m.PaidAt,
		AssignedAt:          m.AssignedAt,
		StartedAt:           m.StartedAt,
		CompletedAt:         m.CompletedAt,
		SettledAt:           m.SettledAt,
	}
}

func chatGroupToModel(g domain.ChatGroup) ChatGroupModel {
	members, _ := json.Marshal(g.Members)
	return ChatGroupModel{
		ID:        g.ID,
		TaskID:    g.TaskID,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func chatGroupFromModel(m ChatGroupModel) domain.ChatGroup {
	var members []domain.ChatMember
	if len(m.Members) > 0 {
		_ = json.Unmarshal(m.Members, &members)
	}
	return domain.ChatGroup{
		ID:        m.ID,
		TaskID:    m.TaskID,
		Members:   members,
		CreatedAt: m.CreatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		ID:          msg.ID,
		ChatGroupID: msg.ChatGroupID,
		SenderID:    msg.SenderID,
		SenderRole:  string(msg.SenderRole),
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:          m.ID,
		ChatGroupID: m.ChatGroupID,
		SenderID:    m.SenderID,
		SenderRole:  domain.UserRole(m.SenderRole),
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

func notificationToModel(n domain.Notification) NotificationModel {
	return NotificationModel{
		ID:            n.ID,
		Type:          string(n.Type),
		TargetUserID:  n.TargetUserID,
		RelatedTaskID: n.RelatedTaskID,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
}

func notificationFromModel(m NotificationModel) domain.Notification {
	return domain.Notification{
		ID:            m.ID,
		Type:          domain.NotificationType(m.Type),
		TargetUserID:  m.TargetUserID,
		RelatedTaskID: m.RelatedTaskID,
		IsRead:        m.IsRead,
		CreatedAt:     m.CreatedAt,
	}
}
