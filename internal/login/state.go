package login

import "encoding/json"

// State is an immutable snapshot of the login form.
// Fields are unexported so a snapshot handed to a view can never be changed in place;
// every transition builds a new value. State is comparable, so == is structural equality.
type State struct {
	emailInput             string
	passwordInput          string
	isPasswordShown        bool
	isInputValid           bool
	errorMessage           Optional[string]
	isLoading              bool
	isSuccessfullyLoggedIn bool
	loginErrorMessage      Optional[string]
}

// NewState returns the snapshot shown when the screen first opens
func NewState() State {
	return State{}
}

func (s State) EmailInput() string    { return s.emailInput }
func (s State) PasswordInput() string { return s.passwordInput }
func (s State) IsPasswordShown() bool { return s.isPasswordShown }
func (s State) IsInputValid() bool    { return s.isInputValid }
func (s State) IsLoading() bool       { return s.isLoading }

// IsSuccessfullyLoggedIn is the terminal success flag
func (s State) IsSuccessfullyLoggedIn() bool { return s.isSuccessfullyLoggedIn }

// ErrorMessage is the input validation hint
func (s State) ErrorMessage() Optional[string] { return s.errorMessage }

// LoginErrorMessage is the error reported by the last login attempt.
// It is independent from ErrorMessage.
func (s State) LoginErrorMessage() Optional[string] { return s.loginErrorMessage }

// CanSubmit reports whether a submit would start a login attempt
func (s State) CanSubmit() bool {
	return s.isInputValid && !s.isLoading && !s.isSuccessfullyLoggedIn
}

type stateJSON struct {
	EmailInput               string           `json:"email_input"`
	PasswordInput            string           `json:"password_input"`
	IsPasswordShown          bool             `json:"is_password_shown"`
	IsInputValid             bool             `json:"is_input_valid"`
	ErrorMessage             Optional[string] `json:"error_message"`
	IsLoading                bool             `json:"is_loading"`
	IsSuccessfullyLoggedIn   bool             `json:"is_successfully_logged_in"`
	ErrorMessageLoginProcess Optional[string] `json:"error_message_login_process"`
}

// MarshalJSON renders the snapshot for remote views
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		EmailInput:               s.emailInput,
		PasswordInput:            s.passwordInput,
		IsPasswordShown:          s.isPasswordShown,
		IsInputValid:             s.isInputValid,
		ErrorMessage:             s.errorMessage,
		IsLoading:                s.isLoading,
		IsSuccessfullyLoggedIn:   s.isSuccessfullyLoggedIn,
		ErrorMessageLoginProcess: s.loginErrorMessage,
	})
}
