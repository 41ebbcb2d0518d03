package login

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxPasswordLength caps password input; argon2 hashing of huge inputs is wasted work
const MaxPasswordLength = 128

// Rules decides whether an email/password pair may be submitted.
// Check returns the hint to show, or None when the pair is valid.
// Implementations must be pure: the same pair always yields the same result.
type Rules interface {
	Check(email, password string) Optional[string]
}

// InputRules validates the login form with go-playground/validator
type InputRules struct {
	validate          *validator.Validate
	minPasswordLength int
}

// NewInputRules creates the default rules. Emails must be well formed and
// passwords at least minPasswordLength characters long.
func NewInputRules(minPasswordLength int) *InputRules {
	if minPasswordLength < 1 {
		minPasswordLength = 1
	}
	return &InputRules{
		validate:          validator.New(validator.WithRequiredStructEnabled()),
		minPasswordLength: minPasswordLength,
	}
}

// MinPasswordLength returns the configured minimum
func (r *InputRules) MinPasswordLength() int {
	return r.minPasswordLength
}

// Check implements Rules. Email problems are reported before password problems.
func (r *InputRules) Check(email, password string) Optional[string] {
	if err := r.validate.Var(strings.TrimSpace(email), "required,max=255,email"); err != nil {
		return Some(emailMessage(err))
	}

	tag := fmt.Sprintf("required,min=%d,max=%d", r.minPasswordLength, MaxPasswordLength)
	if err := r.validate.Var(password, tag); err != nil {
		return Some(r.passwordMessage(err))
	}

	return None[string]()
}

func firstTag(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Tag()
	}
	return ""
}

func emailMessage(err error) string {
	switch firstTag(err) {
	case "required":
		return "Email address is required"
	case "max":
		return "Email address is too long"
	default:
		return "Invalid email format"
	}
}

func (r *InputRules) passwordMessage(err error) string {
	switch firstTag(err) {
	case "required":
		return "Password is required"
	case "min":
		return fmt.Sprintf("Password must be at least %d characters", r.minPasswordLength)
	case "max":
		return fmt.Sprintf("Password must not exceed %d characters", MaxPasswordLength)
	default:
		return "Password is invalid"
	}
}
