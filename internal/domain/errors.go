package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrDuplicateQuiz is returned when a quiz id is already taken.
	ErrDuplicateQuiz = errors.New("quiz id already exists")
	// ErrSessionNotStarted is returned when a student submits before starting.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrDuplicateResult is returned by result stores when the pair already has a result.
	ErrDuplicateResult = errors.New("result already recorded")
	// ErrMalformedQuestion marks a question that cannot be presented or scored.
	ErrMalformedQuestion = errors.New("malformed question")

	// ErrUserNotFound indicates an unknown username.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrRoleMismatch is returned when an account logs in under the wrong role.
	ErrRoleMismatch = errors.New("account role does not match")
	// ErrInvalidAdminCode rejects host registration without the admin code.
	ErrInvalidAdminCode = errors.New("incorrect admin code")
	// ErrForbidden is returned when a user acts on something they do not own.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation wraps request validation failures.
	ErrValidation = errors.New("validation error")
	// ErrNoRecipients is returned when an invite request has no usable address.
	ErrNoRecipients = errors.New("no valid email addresses")
	// ErrInvitesDisabled is returned when mail delivery is not configured.
	ErrInvitesDisabled = errors.New("invitations are not configured")
)
