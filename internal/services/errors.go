package services

import "fmt"

// ErrorKind classifies validation and authentication failures.
type ErrorKind string

const (
	MissingField           ErrorKind = "missing_field"
	InvalidField           ErrorKind = "invalid_field"
	EmailAlreadyRegistered ErrorKind = "email_already_registered"
	InvalidLogin           ErrorKind = "invalid_login"
	UpdateNotAllowed       ErrorKind = "update_not_allowed"
	CreateNotAllowed       ErrorKind = "create_not_allowed"

	NoToken        ErrorKind = "no_token"
	InvalidSession ErrorKind = "invalid_session"
)

var messages = map[ErrorKind]string{
	MissingField:           "Missing fields",
	InvalidField:           "Invalid field",
	EmailAlreadyRegistered: "E-mail already exists",
	InvalidLogin:           "Invalid e-mail or password",
	UpdateNotAllowed:       "Update not allowed",
	CreateNotAllowed:       "Create not allowed",
	NoToken:                "Unauthorized",
	InvalidSession:         "Unauthorized - invalid session",
}

// ValidationError is returned when a request payload is rejected.
// Field names the offending input when known. Phone is the 1-based index of
// the phone entry the error is scoped to, or zero.
type ValidationError struct {
	Kind  ErrorKind
	Field string
	Phone int
	Err   error
}

func (e *ValidationError) Error() string {
	msg := e.Message()
	if e.Phone > 0 {
		msg = fmt.Sprintf("phones[%d]: %s", e.Phone-1, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Message is the client-facing text for the error.
func (e *ValidationError) Message() string {
	if e.Kind == InvalidField && e.Field != "" {
		return fmt.Sprintf("%s: %s", messages[e.Kind], e.Field)
	}
	return messages[e.Kind]
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches any ValidationError with the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// UnauthorizedError is returned when a session cannot be resolved.
type UnauthorizedError struct {
	Kind ErrorKind
	Err  error
}

func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		return messages[e.Kind] + ": " + e.Err.Error()
	}
	return messages[e.Kind]
}

// Message is the client-facing text for the error.
func (e *UnauthorizedError) Message() string {
	return messages[e.Kind]
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// Is matches any UnauthorizedError with the same Kind.
func (e *UnauthorizedError) Is(target error) bool {
	t, ok := target.(*UnauthorizedError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrMissingField           = &ValidationError{Kind: MissingField}
	ErrInvalidField           = &ValidationError{Kind: InvalidField}
	ErrEmailAlreadyRegistered = &ValidationError{Kind: EmailAlreadyRegistered}
	ErrInvalidLogin           = &ValidationError{Kind: InvalidLogin}
	ErrUpdateNotAllowed       = &ValidationError{Kind: UpdateNotAllowed}
	ErrCreateNotAllowed       = &ValidationError{Kind: CreateNotAllowed}
	ErrNoToken                = &UnauthorizedError{Kind: NoToken}
	ErrInvalidSession         = &UnauthorizedError{Kind: InvalidSession}
)
