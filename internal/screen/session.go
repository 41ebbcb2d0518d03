package screen

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var errUnknownMessage = errors.New("unknown message type")

const rateLimitedReply = "too many login attempts, try again later"

// session binds one websocket connection to one controller.
// The read loop runs on the caller's goroutine and the write loop owns every
// write to the connection.
type session struct {
	id   string
	conn *websocket.Conn
	ctrl *login.Controller
	log  *zap.Logger

	// bounds login attempts over the lifetime of the connection
	submits *rate.Limiter

	// error replies (malformed or rate limited messages); drained by the write loop
	errs chan string

	pingPeriod time.Duration
	pongWait   time.Duration
}

func newSession(id string, conn *websocket.Conn, ctrl *login.Controller, submits *rate.Limiter) *session {
	return &session{
		id:         id,
		conn:       conn,
		ctrl:       ctrl,
		log:        logger.With(zap.String("screen_session", id)),
		submits:    submits,
		errs:       make(chan string, 4),
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
	}
}

func (s *session) run() {
	s.log.Info("Login screen connected")

	states, unsubscribe := s.ctrl.Subscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(states)
	}()

	s.readLoop()

	// Leaving the screen cancels an in-flight login; its result is dropped.
	unsubscribe()
	s.ctrl.Close()
	wg.Wait()
	s.conn.Close()

	s.log.Info("Login screen disconnected")
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.pongWait)) //nolint:errcheck
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Login screen read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			s.log.Debug("Ignoring non-text message")
			continue
		}

		var msg models.ScreenInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reject(fmt.Sprintf("malformed message: %v", err))
			continue
		}
		if err := s.dispatch(msg); err != nil {
			s.reject(fmt.Sprintf("%v: %q", err, msg.Type))
		}
	}
}

// dispatch forwards a view action to the controller. Handlers return once the
// resulting snapshot is published.
func (s *session) dispatch(msg models.ScreenInbound) error {
	switch msg.Type {
	case models.ScreenMessageEmailChanged:
		s.ctrl.OnEmailInputChange(msg.Text)
	case models.ScreenMessagePasswordChanged:
		s.ctrl.OnPasswordInputChange(msg.Text)
	case models.ScreenMessageTogglePassword:
		s.ctrl.OnTogglePasswordVisualTransformation()
	case models.ScreenMessageLogIn:
		// Clicks the controller would ignore do not spend a token.
		if s.ctrl.State().CanSubmit() && !s.submits.Allow() {
			metrics.LoginScreenSubmissions.WithLabelValues("rate_limited").Inc()
			s.log.Warn("Login screen submit rate limited")
			s.reject(rateLimitedReply)
			return nil
		}
		s.ctrl.OnLogInClick()
	case models.ScreenMessageNavigateRegister:
		s.ctrl.OnNavigateToRegister()
	default:
		return errUnknownMessage
	}
	return nil
}

func (s *session) reject(reason string) {
	select {
	case s.errs <- reason:
	default:
		s.log.Warn("Dropping error reply, peer is not reading", zap.String("reason", reason))
	}
}

func (s *session) writeLoop(states <-chan login.State) {
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()

	effects := s.ctrl.Effects()

	for {
		select {
		case state, ok := <-states:
			if !ok {
				return
			}
			if !s.writeState(state) {
				return
			}

		case nav, ok := <-effects:
			if !ok {
				// Controller closed; drain nothing more from it
				effects = nil
				continue
			}
			// The snapshot that produced this navigation is published first, so
			// flush it before the peer leaves the screen.
			select {
			case state, ok := <-states:
				if ok && !s.writeState(state) {
					return
				}
			default:
			}

			out := models.ScreenOutbound{Type: models.ScreenMessageNavigate, SessionID: s.id, Destination: string(nav.Destination)}
			if nav.Destination == login.DestinationHome && nav.Session != nil {
				out.Session = nav.Session
				out.Token = nav.Session.Token
			}
			s.log.Info("Login screen navigating", zap.String("destination", string(nav.Destination)))
			if !s.write(out) {
				return
			}

		case reason := <-s.errs:
			if !s.write(models.ScreenOutbound{Type: models.ScreenMessageError, SessionID: s.id, Error: reason}) {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.closeRead()
				return
			}
		}
	}
}

func (s *session) writeState(state login.State) bool {
	raw, err := json.Marshal(state)
	if err != nil {
		s.log.Error("Failed to encode login state", zap.Error(err))
		return true
	}
	return s.write(models.ScreenOutbound{Type: models.ScreenMessageState, SessionID: s.id, State: raw})
}

// write sends one frame and reports whether the connection is still usable
func (s *session) write(out models.ScreenOutbound) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	if err := s.conn.WriteJSON(out); err != nil {
		s.log.Warn("Login screen write error", zap.Error(err))
		s.closeRead()
		return false
	}
	return true
}

// closeRead unblocks the read loop after a write failure
func (s *session) closeRead() {
	_ = s.conn.SetReadDeadline(time.Now()) //nolint:errcheck
}
