package auth

import "errors"

var (
	// signup
	ErrUsernameTaken             = errors.New("username taken")
	ErrPasswordMismatch          = errors.New("password mismatch")
	ErrWeakPassword              = errors.New("weak password")
	ErrUserExists                = errors.New("user exists")
	ErrEmailRegisteredWithGoogle = errors.New("email registered with google")
	ErrEmailRequired             = errors.New("email required")

	// verification
	ErrInvalidOTP = errors.New("invalid or expired otp")

	// local login
	ErrWrongCredentials = errors.New("wrong credentials")
	ErrUseGoogleLogin   = errors.New("use google login")

	// federated login
	ErrEmailRegisteredLocally = errors.New("email registered locally")
	ErrIncompleteProfile      = errors.New("incomplete federated profile")
	ErrInvalidState           = errors.New("invalid oauth state")

	// username
	ErrUsernameEmpty = errors.New("username empty")
)

const GenericFailure = "Something went wrong. Please try again."

var messages = map[error]string{
	ErrUsernameTaken:             "Username already taken. Please choose another.",
	ErrPasswordMismatch:          "Passwords do not match",
	ErrWeakPassword:              "Password must be at least 8 characters, include one uppercase, one number, and one special symbol.",
	ErrUserExists:                "User already exists.",
	ErrEmailRegisteredWithGoogle: "This email is already registered via Google. Please sign in with Google.",
	ErrEmailRequired:             "Email is required.",
	ErrInvalidOTP:                "Invalid or expired OTP",
	ErrWrongCredentials:          "Wrong email or password.",
	ErrUseGoogleLogin:            "This email is registered with Google. Please sign in using Google.",
	ErrEmailRegisteredLocally:    "This email is already registered manually. Please login using email and password.",
	ErrIncompleteProfile:         "Google login failed.",
	ErrInvalidState:              "Google login failed.",
	ErrUsernameEmpty:             "Username cannot be empty",
}

// Message returns the user-facing text for err. Errors outside this package's
// taxonomy collapse to GenericFailure.
func Message(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return GenericFailure
}

// IsUserError reports whether err is a validation or credential error that
// should be shown to the user rather than logged.
func IsUserError(err error) bool {
	for target := range messages {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
