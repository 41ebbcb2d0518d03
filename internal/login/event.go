package login

import "github.com/authmodule/authmodule-api/internal/models"

// Event is something that happened on the login screen or to a login attempt
type Event interface {
	isEvent()
}

type EmailInputChanged struct{ Text string }

type PasswordInputChanged struct{ Text string }

type PasswordVisibilityToggled struct{}

type LogInClicked struct{}

// LoginSucceeded is posted when the auth call returns a session
type LoginSucceeded struct{ Session *models.Session }

// LoginFailed is posted when the auth call fails; Message is user-facing text
type LoginFailed struct{ Message string }

// RegisterNavigationRequested is the "no account yet? register" link
type RegisterNavigationRequested struct{}

func (EmailInputChanged) isEvent()           {}
func (PasswordInputChanged) isEvent()        {}
func (PasswordVisibilityToggled) isEvent()   {}
func (LogInClicked) isEvent()                {}
func (LoginSucceeded) isEvent()              {}
func (LoginFailed) isEvent()                 {}
func (RegisterNavigationRequested) isEvent() {}

// Destination is where a navigation effect leads
type Destination string

const (
	DestinationHome     Destination = "home"
	DestinationRegister Destination = "register"
)

// Effect is a side effect requested by a transition; the controller runs it
type Effect interface {
	isEffect()
}

// SubmitLogin asks the controller to start the authentication call
type SubmitLogin struct{ Credentials models.Credentials }

// Navigation is a one-shot navigation effect
type Navigation struct {
	Destination Destination
	Session     *models.Session
}

func (SubmitLogin) isEffect() {}
func (Navigation) isEffect()  {}
