package screen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/internal/models"
	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubAuthenticator struct {
	session *models.Session
	err     error
	block   chan struct{}
	ctxErr  chan error
	calls   atomic.Int32
}

func (a *stubAuthenticator) Authenticate(ctx context.Context, _ models.Credentials) (*models.Session, error) {
	a.calls.Add(1)
	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			if a.ctxErr != nil {
				a.ctxErr <- ctx.Err()
			}
			return nil, ctx.Err()
		}
	}
	return a.session, a.err
}

type wireState struct {
	EmailInput             string  `json:"email_input"`
	IsInputValid           bool    `json:"is_input_valid"`
	IsPasswordShown        bool    `json:"is_password_shown"`
	IsLoading              bool    `json:"is_loading"`
	IsSuccessfullyLoggedIn bool    `json:"is_successfully_logged_in"`
	ErrorMessage           *string `json:"error_message"`
	LoginError             *string `json:"error_message_login_process"`
}

func dial(t *testing.T, srv *Server, header http.Header) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, text string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(models.ScreenInbound{Type: msgType, Text: text}))
}

// readUntil reads messages until match returns true
func readUntil(t *testing.T, conn *websocket.Conn, match func(models.ScreenOutbound) bool) models.ScreenOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var out models.ScreenOutbound
		require.NoError(t, conn.ReadJSON(&out))
		if match(out) {
			return out
		}
	}
}

func stateOf(t *testing.T, out models.ScreenOutbound) wireState {
	t.Helper()
	var s wireState
	require.NoError(t, json.Unmarshal(out.State, &s))
	return s
}

func isState(cond func(wireState) bool) func(models.ScreenOutbound) bool {
	return func(out models.ScreenOutbound) bool {
		if out.Type != models.ScreenMessageState {
			return false
		}
		var s wireState
		if err := json.Unmarshal(out.State, &s); err != nil {
			return false
		}
		return cond(s)
	}
}

func TestServer_InitialState(t *testing.T) {
	srv := NewServer(&stubAuthenticator{}, login.NewInputRules(6), nil)
	conn := dial(t, srv, nil)

	out := readUntil(t, conn, func(o models.ScreenOutbound) bool { return o.Type == models.ScreenMessageState })
	assert.NotEmpty(t, out.SessionID)

	s := stateOf(t, out)
	assert.Equal(t, "", s.EmailInput)
	assert.False(t, s.IsInputValid)
	assert.Nil(t, s.ErrorMessage)
	assert.Nil(t, s.LoginError)
}

func TestServer_SuccessfulLoginNavigatesHome(t *testing.T) {
	auth := &stubAuthenticator{session: &models.Session{UserID: "u-1", Email: "a@b.com", ExpiresAt: 1700000000, Token: "signed-jwt"}}
	srv := NewServer(auth, login.NewInputRules(6), nil)
	conn := dial(t, srv, nil)

	send(t, conn, models.ScreenMessageEmailChanged, "a@b.com")
	send(t, conn, models.ScreenMessagePasswordChanged, "secret1")
	readUntil(t, conn, isState(func(s wireState) bool { return s.IsInputValid }))

	send(t, conn, models.ScreenMessageLogIn, "")

	loggedIn := false
	nav := readUntil(t, conn, func(o models.ScreenOutbound) bool {
		if isState(func(s wireState) bool { return s.IsSuccessfullyLoggedIn })(o) {
			loggedIn = true
		}
		return o.Type == models.ScreenMessageNavigate
	})
	assert.True(t, loggedIn, "logged-in snapshot must precede navigation")
	assert.Equal(t, string(login.DestinationHome), nav.Destination)
	require.NotNil(t, nav.Session)
	assert.Equal(t, "u-1", nav.Session.UserID)
	assert.Equal(t, int64(1700000000), nav.Session.ExpiresAt)
	assert.Equal(t, "signed-jwt", nav.Token)
}

func TestServer_RateLimitsLoginAttempts(t *testing.T) {
	auth := &stubAuthenticator{err: apperrors.ErrInvalidCredentials, block: make(chan struct{})}
	srv := NewServer(auth, login.NewInputRules(6), nil).WithSubmitRate(rate.Every(time.Hour), 2)
	conn := dial(t, srv, nil)

	for i := 0; i < 2; i++ {
		send(t, conn, models.ScreenMessageEmailChanged, fmt.Sprintf("user%d@b.com", i))
		send(t, conn, models.ScreenMessagePasswordChanged, "secret1")
		send(t, conn, models.ScreenMessageLogIn, "")
		readUntil(t, conn, isState(func(s wireState) bool { return s.IsLoading }))

		auth.block <- struct{}{}
		readUntil(t, conn, isState(func(s wireState) bool { return !s.IsLoading && s.LoginError != nil }))
	}

	send(t, conn, models.ScreenMessageEmailChanged, "user2@b.com")
	send(t, conn, models.ScreenMessageLogIn, "")
	out := readUntil(t, conn, func(o models.ScreenOutbound) bool { return o.Type == models.ScreenMessageError })
	assert.Equal(t, rateLimitedReply, out.Error)
	assert.Equal(t, int32(2), auth.calls.Load())
}

func TestServer_FailedLoginReportsError(t *testing.T) {
	auth := &stubAuthenticator{err: apperrors.ErrInvalidCredentials}
	srv := NewServer(auth, login.NewInputRules(6), nil)
	conn := dial(t, srv, nil)

	send(t, conn, models.ScreenMessageEmailChanged, "a@b.com")
	send(t, conn, models.ScreenMessagePasswordChanged, "secret1")
	send(t, conn, models.ScreenMessageLogIn, "")

	out := readUntil(t, conn, isState(func(s wireState) bool { return s.LoginError != nil }))
	s := stateOf(t, out)
	assert.False(t, s.IsLoading)
	assert.Equal(t, login.MessageInvalidCredentials, *s.LoginError)
}

func TestServer_TogglePassword(t *testing.T) {
	srv := NewServer(&stubAuthenticator{}, login.NewInputRules(6), nil)
	conn := dial(t, srv, nil)

	send(t, conn, models.ScreenMessageTogglePassword, "")
	readUntil(t, conn, isState(func(s wireState) bool { return s.IsPasswordShown }))
}

func TestServer_UnknownMessage(t *testing.T) {
	srv := NewServer(&stubAuthenticator{}, login.NewInputRules(6), nil)
	conn := dial(t, srv, nil)

	send(t, conn, "teleport", "")
	out := readUntil(t, conn, func(o models.ScreenOutbound) bool { return o.Type == models.ScreenMessageError })
	assert.Contains(t, out.Error, "teleport")
}

func TestServer_RegisterNavigation(t *testing.T) {
	srv := NewServer(&stubAuthenticator{}, login.NewInputRules(6), nil)
	conn := dial(t, srv, nil)

	send(t, conn, models.ScreenMessageNavigateRegister, "")
	nav := readUntil(t, conn, func(o models.ScreenOutbound) bool { return o.Type == models.ScreenMessageNavigate })
	assert.Equal(t, string(login.DestinationRegister), nav.Destination)
}

func TestServer_DisconnectCancelsLogin(t *testing.T) {
	auth := &stubAuthenticator{
		session: &models.Session{UserID: "u-1"},
		block:   make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
	srv := NewServer(auth, login.NewInputRules(6), nil)
	conn := dial(t, srv, nil)

	send(t, conn, models.ScreenMessageEmailChanged, "a@b.com")
	send(t, conn, models.ScreenMessagePasswordChanged, "secret1")
	send(t, conn, models.ScreenMessageLogIn, "")
	readUntil(t, conn, isState(func(s wireState) bool { return s.IsLoading }))

	require.NoError(t, conn.Close())

	select {
	case err := <-auth.ctxErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("login was not cancelled after disconnect")
	}
}

func TestServer_RejectsForeignOrigin(t *testing.T) {
	srv := NewServer(&stubAuthenticator{}, login.NewInputRules(6), []string{"https://app.example.com"})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://app.example.com"}})
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}
