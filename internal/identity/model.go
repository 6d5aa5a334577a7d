package identity

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// BirthdayLayout is the date format of Registration.Birthday.
const BirthdayLayout = "2006-01-02"

var (
	// ErrValidation is matched by *ValidationError.
	ErrValidation = errors.New("registration is invalid")
	// ErrEmailTaken is returned when an account already uses the email.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("account not found")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is a registered visitor account.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Birthday     time.Time
	CreatedAt    time.Time
}

// Profile is the public view of a User.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Birthday  string    `json:"birthday"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile strips the password hash.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Birthday:  u.Birthday.Format(BirthdayLayout),
		CreatedAt: u.CreatedAt,
	}
}

// Registration is the sign-up form.
type Registration struct {
	Email           string `json:"email" validate:"required,contains=@"`
	ConfirmEmail    string `json:"confirmEmail" validate:"eqfield=Email"`
	Password        string `json:"password" validate:"strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Birthday        string `json:"birthday" validate:"required,datetime=2006-01-02"`
}

// Credentials is the sign-in form.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by a successful login.
type Session struct {
	User        Profile `json:"user"`
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
}

// fieldMessages are shown next to the sign-up form fields.
var fieldMessages = map[string]string{
	"email":           "Enter a valid email address.",
	"confirmEmail":    "Emails do not match.",
	"password":        "Password does not meet requirements.",
	"confirmPassword": "Passwords do not match.",
	"birthday":        "Enter your birthday.",
}

// ValidationError maps form fields to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
