package service

import "errors"

// ValidationError is input rejected before any state is touched.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Code }

// AuthError is a failed credential check.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string { return e.Code }

var (
	ErrEmailExists      = &ValidationError{Code: "email_exists", Message: "Email already exists."}
	ErrEmailTooShort    = &ValidationError{Code: "email_too_short", Message: "Email must be greater than 4 characters."}
	ErrNameTooShort     = &ValidationError{Code: "name_too_short", Message: "First name must be greater than 1 character."}
	ErrPasswordMismatch = &ValidationError{Code: "password_mismatch", Message: "Passwords don't match."}
	ErrPasswordTooShort = &ValidationError{Code: "password_too_short", Message: "Password must be at least 7 characters."}
	ErrEmptyContent     = &ValidationError{Code: "empty_content", Message: "Note is too short"}

	ErrUserNotFound    = &AuthError{Code: "user_not_found", Message: "Email does not exist."}
	ErrInvalidPassword = &AuthError{Code: "invalid_password", Message: "Incorrect password, try again."}
)

// UserMessage returns the text to show for err and whether err is one the
// user caused. Anything else should be treated as an internal failure.
func UserMessage(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message, true
	}
	return "", false
}
