package app

import (
	"context"
	"errors"
	"testing"

	"tutorhub/pkg/domain"
)

const testDescription = "初二数学一对一辅导,每周两次,重点补几何证明。"

func publishTask(t *testing.T, a *App, parent domain.User, teacherID string, price int) domain.Task {
	t.Helper()
	task, err := a.PublishTask(parent, PublishTaskInput{
		Title:         "数学辅导",
		Description:   testDescription,
		Subject:       "math",
		Grade:         8,
		DurationHours: 10,
		Price:         price,
		TeacherID:     teacherID,
	})
	if err != nil {
		t.Fatalf("publish task: %v", err)
	}
	return task
}

func TestPublishTaskValidation(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	unverified := registerTeacher(t, a, "13900000003")

	base := PublishTaskInput{
		Title:         "数学辅导",
		Description:   testDescription,
		Subject:       "math",
		Grade:         8,
		DurationHours: 10,
		TeacherID:     teacher.ID,
	}

	cases := []struct {
		name   string
		mutate func(*PublishTaskInput)
		want   error
	}{
		{"no title", func(in *PublishTaskInput) { in.Title = "  " }, ErrTitleRequired},
		{"short description", func(in *PublishTaskInput) { in.Description = "太短了" }, ErrDescriptionTooShort},
		{"no subject", func(in *PublishTaskInput) { in.Subject = "" }, ErrSubjectRequired},
		{"grade too high", func(in *PublishTaskInput) { in.Grade = 13 }, ErrGradeInvalid},
		{"zero duration", func(in *PublishTaskInput) { in.DurationHours = 0 }, ErrDurationInvalid},
		{"negative price", func(in *PublishTaskInput) { in.Price = -1 }, ErrPriceInvalid},
		{"no teacher", func(in *PublishTaskInput) { in.TeacherID = "" }, ErrTeacherRequired},
		{"unknown teacher", func(in *PublishTaskInput) { in.TeacherID = "nope" }, ErrTeacherNotAvailable},
		{"unverified teacher", func(in *PublishTaskInput) { in.TeacherID = unverified.ID }, ErrTeacherNotAvailable},
	}
	for _, c := range cases {
		input := base
		c.mutate(&input)
		if _, err := a.PublishTask(parent, input); !errors.Is(err, c.want) {
			t.Fatalf("%s: got %v, want %v", c.name, err, c.want)
		}
	}

	if _, err := a.PublishTask(teacher, base); !errors.Is(err, ErrForbidden) {
		t.Fatalf("teacher publishing: got %v, want ErrForbidden", err)
	}
}

func TestPublishTaskDefaultsToSuggestedPrice(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))

	task := publishTask(t, a, parent, teacher.ID, 0)
	// Grade 8 suggests 150/hour, 10 hours.
	if task.Price != 1500 {
		t.Fatalf("price = %d, want suggested 1500", task.Price)
	}
	if task.Status != domain.TaskPending {
		t.Fatalf("status = %s, want pending", task.Status)
	}

	explicit := publishTask(t, a, parent, teacher.ID, 2000)
	if explicit.Price != 2000 {
		t.Fatalf("explicit price = %d, want 2000", explicit.Price)
	}
}

func TestTaskLifecycleHappyPath(t *testing.T) {
	a, mem, notifier := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	admin := adminUser(t, a)
	ctx := context.Background()

	task := publishTask(t, a, parent, teacher.ID, 0)

	task, err := a.ApproveTask(admin, task.ID)
	if err != nil || task.Status != domain.TaskApproved {
		t.Fatalf("approve: status=%s err=%v", task.Status, err)
	}
	if task.ApprovedAt == nil || task.ReviewedByID != admin.ID {
		t.Fatalf("approve should stamp reviewer: %+v", task)
	}

	task, err = a.InitiatePayment(parent, task.ID)
	if err != nil || task.Status != domain.TaskPaymentPending {
		t.Fatalf("pay: status=%s err=%v", task.Status, err)
	}

	task, err = a.ConfirmPayment(ctx, admin, task.ID)
	if err != nil || task.Status != domain.TaskAssigned {
		t.Fatalf("confirm payment: status=%s err=%v", task.Status, err)
	}
	if task.PaidAt == nil || task.AssignedAt == nil || task.PaymentReviewedByID != admin.ID {
		t.Fatalf("confirm should stamp payment fields: %+v", task)
	}
	if task.ChatGroupID == "" {
		t.Fatalf("confirm should open a chat group")
	}

	task, err = a.StartTask(teacher, task.ID)
	if err != nil || task.Status != domain.TaskInProgress || task.StartedAt == nil {
		t.Fatalf("start: status=%s err=%v", task.Status, err)
	}

	task, err = a.CompleteTask(teacher, task.ID)
	if err != nil || task.Status != domain.TaskCompleted || task.CompletedAt == nil {
		t.Fatalf("complete: status=%s err=%v", task.Status, err)
	}

	task, err = a.SettleTask(admin, task.ID)
	if err != nil || task.Status != domain.TaskSettled {
		t.Fatalf("settle: status=%s err=%v", task.Status, err)
	}
	if task.SettledAt == nil || task.SettledByID != admin.ID {
		t.Fatalf("settle should stamp settler: %+v", task)
	}

	// The teacher was told about the assignment.
	notes, err := a.ListNotifications(teacher)
	if err != nil || len(notes) != 1 {
		t.Fatalf("teacher notifications = %d, err %v", len(notes), err)
	}
	if notes[0].Type != domain.NotificationTaskAssigned || notes[0].RelatedTaskID != task.ID {
		t.Fatalf("unexpected notification: %+v", notes[0])
	}
	if len(notifier.enqueued) != 1 || notifier.enqueued[0] != notes[0].ID {
		t.Fatalf("notification should be enqueued for delivery: %v", notifier.enqueued)
	}
}

func TestConfirmPaymentOpensChatGroupOnce(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	admin := adminUser(t, a)
	ctx := context.Background()

	task := publishTask(t, a, parent, teacher.ID, 0)
	if _, err := a.ApproveTask(admin, task.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := a.InitiatePayment(parent, task.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	task, err := a.ConfirmPayment(ctx, admin, task.ID)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	group, err := a.GetChatGroup(parent, task.ChatGroupID)
	if err != nil {
		t.Fatalf("get chat group: %v", err)
	}
	if len(group.Members) != 3 {
		t.Fatalf("group members = %d, want parent, teacher and admin", len(group.Members))
	}
	for _, member := range []domain.User{parent, teacher, admin} {
		if !group.IsMember(member.ID) {
			t.Fatalf("user %s should be a member", member.ID)
		}
	}

	msgs, err := a.ListMessages(admin, group.ID, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("messages = %d, err %v", len(msgs), err)
	}
	if msgs[0].Content != welcomeMessage || msgs[0].SenderRole != domain.RoleAdmin {
		t.Fatalf("unexpected welcome message: %+v", msgs[0])
	}

	// A second confirmation attempt on the same task is rejected by the
	// state machine, and the store still holds exactly one group.
	if _, err := a.ConfirmPayment(ctx, admin, task.ID); err == nil {
		t.Fatalf("re-confirming an assigned task should fail")
	}
	if _, ok, err := mem.GetChatGroupByTask(task.ID); err != nil || !ok {
		t.Fatalf("chat group should persist: ok=%v err=%v", ok, err)
	}
}

func TestRejectTaskRequiresReason(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	admin := adminUser(t, a)

	task := publishTask(t, a, parent, teacher.ID, 0)
	if _, err := a.RejectTask(admin, task.ID, "   "); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("blank reason: got %v", err)
	}

	task, err := a.RejectTask(admin, task.ID, "信息不完整")
	if err != nil || task.Status != domain.TaskRejected {
		t.Fatalf("reject: status=%s err=%v", task.Status, err)
	}
	if task.RejectionReason != "信息不完整" || task.ReviewedByID != admin.ID {
		t.Fatalf("reject should record reason and reviewer: %+v", task)
	}
	if !task.Status.Terminal() {
		t.Fatalf("rejected should be terminal")
	}

	// Terminal means no way forward.
	if _, err := a.ApproveTask(admin, task.ID); err == nil {
		t.Fatalf("approving a rejected task should fail")
	}
}

func TestRejectPaymentNotifiesParent(t *testing.T) {
	a, mem, notifier := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	admin := adminUser(t, a)
	ctx := context.Background()

	task := publishTask(t, a, parent, teacher.ID, 0)
	if _, err := a.ApproveTask(admin, task.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := a.InitiatePayment(parent, task.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if _, err := a.RejectPayment(ctx, admin, task.ID, ""); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("blank reason: got %v", err)
	}
	task, err := a.RejectPayment(ctx, admin, task.ID, "未收到转账")
	if err != nil || task.Status != domain.TaskPaymentRejected {
		t.Fatalf("reject payment: status=%s err=%v", task.Status, err)
	}

	notes, err := a.ListNotifications(parent)
	if err != nil || len(notes) != 1 {
		t.Fatalf("parent notifications = %d, err %v", len(notes), err)
	}
	if notes[0].Type != domain.NotificationPaymentRejected {
		t.Fatalf("unexpected notification type %s", notes[0].Type)
	}
	if len(notifier.enqueued) != 1 {
		t.Fatalf("delivery should be enqueued once, got %v", notifier.enqueued)
	}
}

func TestLifecycleActorChecks(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	otherParent := registerParent(t, a, "13900000004")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	otherTeacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000005"))
	admin := adminUser(t, a)

	task := publishTask(t, a, parent, teacher.ID, 0)

	// Only admins review tasks.
	if _, err := a.ApproveTask(parent, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("parent approving: got %v", err)
	}

	if _, err := a.ApproveTask(admin, task.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Only the publishing parent can declare payment.
	if _, err := a.InitiatePayment(otherParent, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign parent paying: got %v", err)
	}
	if _, err := a.InitiatePayment(parent, task.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := a.ConfirmPayment(context.Background(), admin, task.ID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	// Only the assigned teacher can start.
	if _, err := a.StartTask(otherTeacher, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign teacher starting: got %v", err)
	}

	// A defined transition attempted by the wrong role is a role
	// problem, not a state problem.
	if _, err := a.StartTask(parent, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("parent starting: got %v", err)
	}

	// An undefined transition reports the state machine error even for
	// an admin.
	var transitionErr domain.ErrInvalidTransition
	if _, err := a.SettleTask(admin, task.ID); !errors.As(err, &transitionErr) {
		t.Fatalf("settling an assigned task: got %v", err)
	}
}

func TestTaskVisibilityScopes(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	otherParent := registerParent(t, a, "13900000004")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	admin := adminUser(t, a)

	task := publishTask(t, a, parent, teacher.ID, 0)

	if _, err := a.GetTask(parent, task.ID); err != nil {
		t.Fatalf("owner view: %v", err)
	}
	if _, err := a.GetTask(teacher, task.ID); err != nil {
		t.Fatalf("assigned teacher view: %v", err)
	}
	if _, err := a.GetTask(admin, task.ID); err != nil {
		t.Fatalf("admin view: %v", err)
	}
	if _, err := a.GetTask(otherParent, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign parent view: got %v", err)
	}
	if _, err := a.GetTask(admin, "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("missing task: got %v", err)
	}

	mine, err := a.ListTasks(parent)
	if err != nil || len(mine) != 1 {
		t.Fatalf("parent list = %d, err %v", len(mine), err)
	}
	foreign, err := a.ListTasks(otherParent)
	if err != nil || len(foreign) != 0 {
		t.Fatalf("foreign parent list = %d, err %v", len(foreign), err)
	}
	assigned, err := a.ListTasks(teacher)
	if err != nil || len(assigned) != 1 {
		t.Fatalf("teacher list = %d, err %v", len(assigned), err)
	}
	all, err := a.ListTasks(admin)
	if err != nil || len(all) != 1 {
		t.Fatalf("admin list = %d, err %v", len(all), err)
	}
}

func TestChatAccessControl(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	outsider := registerParent(t, a, "13900000004")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	admin := adminUser(t, a)
	ctx := context.Background()

	task := publishTask(t, a, parent, teacher.ID, 0)
	if _, err := a.ApproveTask(admin, task.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := a.InitiatePayment(parent, task.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	task, err := a.ConfirmPayment(ctx, admin, task.ID)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	if _, err := a.GetChatGroup(outsider, task.ChatGroupID); !errors.Is(err, ErrNotChatMember) {
		t.Fatalf("outsider group view: got %v", err)
	}
	if _, err := a.ListMessages(outsider, task.ChatGroupID, 0); !errors.Is(err, ErrNotChatMember) {
		t.Fatalf("outsider messages: got %v", err)
	}
	if _, err := a.PostMessage(outsider, task.ChatGroupID, "hello"); !errors.Is(err, ErrNotChatMember) {
		t.Fatalf("outsider posting: got %v", err)
	}
	if _, err := a.GetChatGroup(parent, "missing"); !errors.Is(err, ErrChatGroupNotFound) {
		t.Fatalf("missing group: got %v", err)
	}

	if _, err := a.PostMessage(teacher, task.ChatGroupID, "   "); !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("blank message: got %v", err)
	}
	msg, err := a.PostMessage(teacher, task.ChatGroupID, "周六上午可以开始")
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	if msg.SenderID != teacher.ID || msg.SenderRole != domain.RoleTeacher {
		t.Fatalf("message should carry sender identity: %+v", msg)
	}

	msgs, err := a.ListMessages(parent, task.ChatGroupID, 0)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("messages = %d, err %v", len(msgs), err)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	a, mem, _ := newTestApp(t)
	parent := registerParent(t, a, "13900000001")
	teacher := verifyTeacher(t, mem, registerTeacher(t, a, "13900000002"))
	admin := adminUser(t, a)
	ctx := context.Background()

	task := publishTask(t, a, parent, teacher.ID, 0)
	if _, err := a.ApproveTask(admin, task.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := a.InitiatePayment(parent, task.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := a.ConfirmPayment(ctx, admin, task.ID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	notes, err := a.ListNotifications(teacher)
	if err != nil || len(notes) != 1 {
		t.Fatalf("notifications = %d, err %v", len(notes), err)
	}
	if notes[0].IsRead {
		t.Fatalf("new notification should be unread")
	}

	// Only the recipient can mark it.
	if _, err := a.MarkNotificationRead(parent, notes[0].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign mark: got %v", err)
	}

	read, err := a.MarkNotificationRead(teacher, notes[0].ID)
	if err != nil || !read.IsRead {
		t.Fatalf("mark read: read=%v err=%v", read.IsRead, err)
	}
	// Idempotent.
	if _, err := a.MarkNotificationRead(teacher, notes[0].ID); err != nil {
		t.Fatalf("second mark: %v", err)
	}
}
