package app

import "errors"

var (
	// ErrInvalidCredentials is returned on any login mismatch. The message
	// deliberately does not reveal whether phone or password was wrong.
	ErrInvalidCredentials = errors.New("incorrect phone number or password")

	ErrPhoneAndPasswordRequired = errors.New("phone and password required")
	ErrInvalidPhone             = errors.New("invalid phone number format")
	ErrPhoneAlreadyExists       = errors.New("phone number already registered")
	ErrRoleNotRegisterable      = errors.New("role must be parent or teacher")
	ErrNameRequired             = errors.New("name required")

	ErrChildGradeInvalid = errors.New("child grade must be between 1 and 12")
	ErrSubjectsRequired  = errors.New("at least one subject required")
	ErrGradesInvalid     = errors.New("taught grades must be between 1 and 12")
	ErrHourlyRateInvalid = errors.New("hourly rate must be positive")

	ErrTitleRequired           = errors.New("title required")
	ErrDescriptionTooShort     = errors.New("description must be at least 20 characters")
	ErrSubjectRequired         = errors.New("subject required")
	ErrGradeInvalid            = errors.New("grade must be between 1 and 12")
	ErrDurationInvalid         = errors.New("duration must be positive")
	ErrPriceInvalid            = errors.New("price must be positive")
	ErrTeacherRequired         = errors.New("teacher required")
	ErrTeacherNotAvailable     = errors.New("teacher not found or not verified")
	ErrRejectionReasonRequired = errors.New("rejection reason required")

	ErrTaskNotFound         = errors.New("task not found")
	ErrForbidden            = errors.New("forbidden")
	ErrChatGroupNotFound    = errors.New("chat group not found")
	ErrNotChatMember        = errors.New("not a member of this chat group")
	ErrMessageRequired      = errors.New("message content required")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrCertificateRequired    = errors.New("certificate file required")
	ErrVerificationNotPending = errors.New("verification is not pending review")
	ErrAlreadyVerified        = errors.New("account already verified")
	ErrStorageUnavailable     = errors.New("certificate storage not configured")
)
