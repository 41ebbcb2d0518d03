package models

import "encoding/json"

// Inbound message types sent by a remote login screen
const (
	ScreenMessageEmailChanged     = "email_changed"
	ScreenMessagePasswordChanged  = "password_changed"
	ScreenMessageTogglePassword   = "toggle_password"
	ScreenMessageLogIn            = "log_in"
	ScreenMessageNavigateRegister = "navigate_register"
)

// Outbound message types pushed to a remote login screen
const (
	ScreenMessageState    = "state"
	ScreenMessageNavigate = "navigate"
	ScreenMessageError    = "error"
)

// ScreenInbound is a user action forwarded by a remote view
type ScreenInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ScreenOutbound is a snapshot or one-shot effect pushed to a remote view.
// A navigation home carries the authenticated session and its token, the same
// way LoginResponse does.
type ScreenOutbound struct {
	Type        string          `json:"type"`
	SessionID   string          `json:"session_id,omitempty"`
	State       json.RawMessage `json:"state,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Session     *Session        `json:"session,omitempty"`
	Token       string          `json:"token,omitempty"`
	Error       string          `json:"error,omitempty"`
}
