package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tutorhub/internal/util"
	"tutorhub/pkg/domain"
	"tutorhub/pkg/pricing"
)

const minDescriptionLen = 20

// welcomeMessage is posted by the admin member when a chat group opens.
const welcomeMessage = "家教服务已确认,请在此沟通上课安排。"

// PublishTaskInput carries the task form submitted by a parent. Price 0
// means "use the suggested total" derived from grade and duration.
type PublishTaskInput struct {
	Title         string
	Description   string
	Subject       string
	Grade         int
	DurationHours int
	Price         int
	TeacherID     string
}

// PublishTask validates the form and creates a pending task. The chosen
// teacher must exist and be verified; the task enters admin review.
func (a *App) PublishTask(parent domain.User, input PublishTaskInput) (domain.Task, error) {
	if parent.Role != domain.RoleParent {
		return domain.Task{}, ErrForbidden
	}
	if strings.TrimSpace(input.Title) == "" {
		return domain.Task{}, ErrTitleRequired
	}
	if len([]rune(strings.TrimSpace(input.Description))) < minDescriptionLen {
		return domain.Task{}, ErrDescriptionTooShort
	}
	if strings.TrimSpace(input.Subject) == "" {
		return domain.Task{}, ErrSubjectRequired
	}
	if input.Grade < 1 || input.Grade > 12 {
		return domain.Task{}, ErrGradeInvalid
	}
	if input.DurationHours <= 0 {
		return domain.Task{}, ErrDurationInvalid
	}
	if input.Price < 0 {
		return domain.Task{}, ErrPriceInvalid
	}
	if strings.TrimSpace(input.TeacherID) == "" {
		return domain.Task{}, ErrTeacherRequired
	}

	teacher, ok, err := a.store.GetUserByID(input.TeacherID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok || teacher.Role != domain.RoleTeacher || teacher.Verification != domain.VerificationVerified {
		return domain.Task{}, ErrTeacherNotAvailable
	}

	price := input.Price
	if price == 0 {
		price, err = pricing.SuggestedTotal(input.Grade, input.DurationHours)
		if err != nil {
			return domain.Task{}, fmt.Errorf("suggest price: %w", err)
		}
	}

	now := time.Now().UTC()
	task := domain.Task{
		ID:            util.NewID(),
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Subject:       strings.TrimSpace(input.Subject),
		Grade:         input.Grade,
		DurationHours: input.DurationHours,
		Price:         price,
		Status:        domain.TaskPending,
		PublisherID:   parent.ID,
		TeacherID:     teacher.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// GetTask returns a task the user is entitled to see. Parents and
// teachers see only their own tasks; admins see everything.
func (a *App) GetTask(user domain.User, taskID string) (domain.Task, error) {
	task, ok, err := a.store.GetTask(taskID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("fetch task: %w", err)
	}
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	if !canViewTask(user, task) {
		return domain.Task{}, ErrForbidden
	}
	return task, nil
}

// ListTasks returns the role-scoped task list: a parent's published
// tasks, a teacher's assigned tasks, or the full registry for admins.
func (a *App) ListTasks(user domain.User) ([]domain.Task, error) {
	switch user.Role {
	case domain.RoleParent:
		return a.store.ListTasksByPublisher(user.ID)
	case domain.RoleTeacher:
		return a.store.ListTasksByTeacher(user.ID)
	case domain.RoleAdmin:
		return a.store.ListTasks()
	}
	return nil, ErrForbidden
}

func canViewTask(user domain.User, task domain.Task) bool {
	switch user.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleParent:
		return task.PublisherID == user.ID
	case domain.RoleTeacher:
		return task.TeacherID == user.ID
	}
	return false
}

// applyEvent loads the task, checks the actor's role and ownership for
// the event, and resolves the next status. The caller stamps fields and
// saves.
func (a *App) applyEvent(actor domain.User, taskID string, event domain.TaskEvent) (domain.Task, error) {
	task, ok, err := a.store.GetTask(taskID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("fetch task: %w", err)
	}
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	if !domain.EventAllowedFor(task.Status, event, actor.Role) {
		if _, terr := domain.NextStatus(task.Status, event); terr != nil {
			return domain.Task{}, terr
		}
		return domain.Task{}, ErrForbidden
	}
	// Non-admin actors may only act on their own side of the task.
	switch actor.Role {
	case domain.RoleParent:
		if task.PublisherID != actor.ID {
			return domain.Task{}, ErrForbidden
		}
	case domain.RoleTeacher:
		if task.TeacherID != actor.ID {
			return domain.Task{}, ErrForbidden
		}
	}
	next, err := domain.NextStatus(task.Status, event)
	if err != nil {
		return domain.Task{}, err
	}
	task.Status = next
	task.UpdatedAt = time.Now().UTC()
	return task, nil
}

// ApproveTask moves a pending task into the approved state.
func (a *App) ApproveTask(admin domain.User, taskID string) (domain.Task, error) {
	task, err := a.applyEvent(admin, taskID, domain.EventApprove)
	if err != nil {
		return domain.Task{}, err
	}
	now := task.UpdatedAt
	task.ApprovedAt = &now
	task.ReviewedByID = admin.ID
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// RejectTask terminates a pending task with a mandatory reason.
func (a *App) RejectTask(admin domain.User, taskID, reason string) (domain.Task, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Task{}, ErrRejectionReasonRequired
	}
	task, err := a.applyEvent(admin, taskID, domain.EventReject)
	if err != nil {
		return domain.Task{}, err
	}
	task.RejectionReason = reason
	task.ReviewedByID = admin.ID
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// InitiatePayment is the parent declaring the offline transfer was made.
func (a *App) InitiatePayment(parent domain.User, taskID string) (domain.Task, error) {
	task, err := a.applyEvent(parent, taskID, domain.EventInitiatePayment)
	if err != nil {
		return domain.Task{}, err
	}
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// ConfirmPayment verifies the transfer, assigns the task, opens the
// three-member chat group exactly once, and notifies the teacher.
func (a *App) ConfirmPayment(ctx context.Context, admin domain.User, taskID string) (domain.Task, error) {
	task, err := a.applyEvent(admin, taskID, domain.EventConfirmPayment)
	if err != nil {
		return domain.Task{}, err
	}
	now := task.UpdatedAt
	task.PaidAt = &now
	task.AssignedAt = &now
	task.PaymentReviewedByID = admin.ID

	group, err := a.openChatGroup(task, admin)
	if err != nil {
		return domain.Task{}, err
	}
	task.ChatGroupID = group.ID

	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	a.notify(ctx, domain.NotificationTaskAssigned, task.TeacherID, task.ID)
	return task, nil
}

// openChatGroup creates the task's chat thread with the parent, teacher
// and confirming admin as members, then seeds the welcome message. A
// task already holding a group keeps it.
func (a *App) openChatGroup(task domain.Task, admin domain.User) (domain.ChatGroup, error) {
	if existing, ok, err := a.store.GetChatGroupByTask(task.ID); err != nil {
		return domain.ChatGroup{}, fmt.Errorf("fetch chat group: %w", err)
	} else if ok {
		return existing, nil
	}

	now := time.Now().UTC()
	group := domain.ChatGroup{
		ID:     util.NewID(),
		TaskID: task.ID,
		Members: []domain.ChatMember{
			{UserID: task.PublisherID, Role: domain.RoleParent},
			{UserID: task.TeacherID, Role: domain.RoleTeacher},
			{UserID: admin.ID, Role: domain.RoleAdmin},
		},
		CreatedAt: now,
	}
	if err := a.store.SaveChatGroup(group); err != nil {
		return domain.ChatGroup{}, fmt.Errorf("save chat group: %w", err)
	}

	welcome := domain.Message{
		ID:          util.NewID(),
		ChatGroupID: group.ID,
		SenderID:    admin.ID,
		SenderRole:  domain.RoleAdmin,
		Content:     welcomeMessage,
		CreatedAt:   now,
	}
	if err := a.store.AppendMessage(welcome); err != nil {
		return domain.ChatGroup{}, fmt.Errorf("seed welcome message: %w", err)
	}
	return group, nil
}

// RejectPayment terminates the task when the transfer cannot be
// verified, and notifies the parent.
func (a *App) RejectPayment(ctx context.Context, admin domain.User, taskID, reason string) (domain.Task, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Task{}, ErrRejectionReasonRequired
	}
	task, err := a.applyEvent(admin, taskID, domain.EventRejectPayment)
	if err != nil {
		return domain.Task{}, err
	}
	task.RejectionReason = reason
	task.PaymentReviewedByID = admin.ID
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	a.notify(ctx, domain.NotificationPaymentRejected, task.PublisherID, task.ID)
	return task, nil
}

// StartTask is the teacher marking the first lesson as underway.
func (a *App) StartTask(teacher domain.User, taskID string) (domain.Task, error) {
	task, err := a.applyEvent(teacher, taskID, domain.EventStart)
	if err != nil {
		return domain.Task{}, err
	}
	now := task.UpdatedAt
	task.StartedAt = &now
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// CompleteTask marks tutoring as finished, awaiting settlement.
func (a *App) CompleteTask(actor domain.User, taskID string) (domain.Task, error) {
	task, err := a.applyEvent(actor, taskID, domain.EventComplete)
	if err != nil {
		return domain.Task{}, err
	}
	now := task.UpdatedAt
	task.CompletedAt = &now
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// SettleTask records the payout to the teacher, closing the lifecycle.
func (a *App) SettleTask(admin domain.User, taskID string) (domain.Task, error) {
	task, err := a.applyEvent(admin, taskID, domain.EventSettle)
	if err != nil {
		return domain.Task{}, err
	}
	now := task.UpdatedAt
	task.SettledAt = &now
	task.SettledByID = admin.ID
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}
