package domain

import "fmt"

// TaskEvent names a lifecycle action a user can take on a task.
type TaskEvent string

const (
	EventApprove         TaskEvent = "approve"
	EventReject          TaskEvent = "reject"
	EventInitiatePayment TaskEvent = "initiate_payment"
	EventConfirmPayment  TaskEvent = "confirm_payment"
	EventRejectPayment   TaskEvent = "reject_payment"
	EventStart           TaskEvent = "start"
	EventComplete        TaskEvent = "complete"
	EventSettle          TaskEvent = "settle"
)

// ErrInvalidTransition is returned when an event is not defined for the
// task's current status.
type ErrInvalidTransition struct {
	From  TaskStatus
	Event TaskEvent
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("task in status %q does not accept event %q", e.From, e.Event)
}

type transitionKey struct {
	from  TaskStatus
	event TaskEvent
}

// transition captures one row of the lifecycle table: the target status
// and the roles allowed to fire the event.
type transition struct {
	to     TaskStatus
	actors []UserRole
}

// transitions is the complete forward-only lifecycle table. The only
// branches off the main path are the two terminal failure states:
// rejected (admin review) and payment_rejected (admin payment review).
var transitions = map[transitionKey]transition{
	{TaskPending, EventApprove}:          {TaskApproved, []UserRole{RoleAdmin}},
	{TaskPending, EventReject}:           {TaskRejected, []UserRole{RoleAdmin}},
	{TaskApproved, EventInitiatePayment}: {TaskPaymentPending, []UserRole{RoleParent}},
	{TaskPaymentPending, EventConfirmPayment}: {TaskAssigned, []UserRole{RoleAdmin}},
	{TaskPaymentPending, EventRejectPayment}:  {TaskPaymentRejected, []UserRole{RoleAdmin}},
	{TaskPaid, EventConfirmPayment}:           {TaskAssigned, []UserRole{RoleAdmin}},
	{TaskPaid, EventRejectPayment}:            {TaskPaymentRejected, []UserRole{RoleAdmin}},
	{TaskAssigned, EventStart}:                {TaskInProgress, []UserRole{RoleTeacher}},
	{TaskInProgress, EventComplete}:           {TaskCompleted, []UserRole{RoleTeacher, RoleAdmin}},
	{TaskCompleted, EventSettle}:              {TaskSettled, []UserRole{RoleAdmin}},
}

// statusRank orders statuses along the forward path. Terminal failure
// states rank above everything so no event can leave them.
var statusRank = map[TaskStatus]int{
	TaskPending:         0,
	TaskApproved:        1,
	TaskPaymentPending:  2,
	TaskPaid:            3,
	TaskAssigned:        4,
	TaskInProgress:      5,
	TaskCompleted:       6,
	TaskSettled:         7,
	TaskRejected:        8,
	TaskPaymentRejected: 8,
}

// NextStatus resolves the target status for an event fired from a status.
func NextStatus(from TaskStatus, event TaskEvent) (TaskStatus, error) {
	t, ok := transitions[transitionKey{from, event}]
	if !ok {
		return "", ErrInvalidTransition{From: from, Event: event}
	}
	if statusRank[t.to] <= statusRank[from] && !from.Terminal() {
		// The table only contains forward rows; this guards table edits.
		return "", ErrInvalidTransition{From: from, Event: event}
	}
	return t.to, nil
}

// EventAllowedFor reports whether the role may fire the event from the
// given status. Unknown (from,event) pairs are never allowed.
func EventAllowedFor(from TaskStatus, event TaskEvent, role UserRole) bool {
	t, ok := transitions[transitionKey{from, event}]
	if !ok {
		return false
	}
	for _, r := range t.actors {
		if r == role {
			return true
		}
	}
	return false
}

// Terminal reports whether no further event is defined for the status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskSettled, TaskRejected, TaskPaymentRejected:
		return true
	}
	return false
}

// Valid reports whether the status is one of the lifecycle states.
func (s TaskStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}
