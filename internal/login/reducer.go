package login

import (
	"strings"

	"github.com/authmodule/authmodule-api/internal/models"
)

// Transition is the result of applying one event
type Transition struct {
	State   State
	Effects []Effect
}

// Reducer derives the next snapshot from the current one. It has no side effects;
// anything that must happen outside the state is returned as an Effect.
type Reducer struct {
	rules Rules
}

// NewReducer creates a reducer validating input with rules
func NewReducer(rules Rules) *Reducer {
	return &Reducer{rules: rules}
}

// Reduce applies e to s
func (r *Reducer) Reduce(s State, e Event) Transition {
	switch ev := e.(type) {
	case EmailInputChanged:
		s.emailInput = ev.Text
		return Transition{State: r.revalidate(s)}

	case PasswordInputChanged:
		s.passwordInput = ev.Text
		return Transition{State: r.revalidate(s)}

	case PasswordVisibilityToggled:
		s.isPasswordShown = !s.isPasswordShown
		return Transition{State: s}

	case LogInClicked:
		if !s.CanSubmit() {
			return Transition{State: s}
		}
		s.isLoading = true
		s.loginErrorMessage = None[string]()
		return Transition{
			State: s,
			Effects: []Effect{SubmitLogin{Credentials: models.Credentials{
				Email:    strings.TrimSpace(s.emailInput),
				Password: s.passwordInput,
			}}},
		}

	case LoginSucceeded:
		// A result without an attempt in flight is stale.
		if !s.isLoading {
			return Transition{State: s}
		}
		s.isLoading = false
		s.isSuccessfullyLoggedIn = true
		return Transition{
			State:   s,
			Effects: []Effect{Navigation{Destination: DestinationHome, Session: ev.Session}},
		}

	case LoginFailed:
		if !s.isLoading {
			return Transition{State: s}
		}
		s.isLoading = false
		s.loginErrorMessage = Some(ev.Message)
		return Transition{State: s}

	case RegisterNavigationRequested:
		if s.isLoading || s.isSuccessfullyLoggedIn {
			return Transition{State: s}
		}
		return Transition{State: s, Effects: []Effect{Navigation{Destination: DestinationRegister}}}
	}

	return Transition{State: s}
}

func (r *Reducer) revalidate(s State) State {
	hint := r.rules.Check(s.emailInput, s.passwordInput)
	s.isInputValid = !hint.IsPresent()
	s.errorMessage = hint
	return s
}
