// Package auth defines the closed error taxonomy shared by the auth service
// and its callers. Callers branch on kind via errors.Is against the exported
// sentinels rather than matching message text.
package auth

// Kind classifies an auth error.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindDuplicateUser      Kind = "duplicate_user"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindNotFound           Kind = "not_found"
	KindTokenInvalid       Kind = "token_invalid"
	KindServiceUnavailable Kind = "service_unavailable"
)

// Error carries an error kind plus a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so
// errors.Is(err, auth.ErrValidation) works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New returns an error of the given kind with a specific message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Sentinels with their default messages. The invalid-credentials message is
// deliberately identical for unknown email and wrong password so callers
// cannot enumerate accounts.
var (
	ErrValidation         = &Error{KindValidation, "required field is missing"}
	ErrDuplicateUser      = &Error{KindDuplicateUser, "user already exists with this email"}
	ErrInvalidCredentials = &Error{KindInvalidCredentials, "invalid email or password"}
	ErrNotFound           = &Error{KindNotFound, "user not found"}
	ErrTokenInvalid       = &Error{KindTokenInvalid, "invalid or expired token"}
	ErrServiceUnavailable = &Error{KindServiceUnavailable, "service temporarily unavailable"}
)
