package login

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultLoginTimeout bounds a single authentication call
const DefaultLoginTimeout = 10 * time.Second

const effectsBuffer = 8

// ErrNoSession is reported when an authenticator returns neither a session nor an error
var ErrNoSession = errors.New("authenticator returned no session")

// Authenticator performs the login call behind the screen
type Authenticator interface {
	Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error)
}

// Option configures a Controller
type Option func(*Controller)

// WithLoginTimeout overrides DefaultLoginTimeout
func WithLoginTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithErrorMessages overrides DefaultErrorMessage
func WithErrorMessages(fn func(error) string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.messageFor = fn
		}
	}
}

type request struct {
	event Event
	done  chan struct{}
}

// Controller owns the login screen state. A single goroutine applies events in
// order, so every snapshot is the result of exactly one transition. Handlers block
// until their event has been applied and published.
//
// Close tears the screen down: an in-flight login is cancelled and its result is
// dropped, subscriber channels and Effects are closed.
type Controller struct {
	reducer    *Reducer
	auth       Authenticator
	timeout    time.Duration
	messageFor func(error) string

	events  chan request
	effects chan Navigation
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu          sync.RWMutex
	current     State
	subscribers map[int]chan State
	nextSubID   int
	closed      bool
}

// NewController starts a controller with an all-default state
func NewController(auth Authenticator, rules Rules, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		reducer:     NewReducer(rules),
		auth:        auth,
		timeout:     DefaultLoginTimeout,
		messageFor:  DefaultErrorMessage,
		events:      make(chan request),
		effects:     make(chan Navigation, effectsBuffer),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		current:     NewState(),
		subscribers: make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics.LoginScreensActive.Inc()
	go c.run()
	return c
}

// OnEmailInputChange updates the email field and revalidates the form
func (c *Controller) OnEmailInputChange(text string) {
	c.dispatch(EmailInputChanged{Text: text})
}

// OnPasswordInputChange updates the password field and revalidates the form
func (c *Controller) OnPasswordInputChange(text string) {
	c.dispatch(PasswordInputChanged{Text: text})
}

// OnTogglePasswordVisualTransformation flips password visibility
func (c *Controller) OnTogglePasswordVisualTransformation() {
	c.dispatch(PasswordVisibilityToggled{})
}

// OnLogInClick starts a login attempt when the form is valid and idle
func (c *Controller) OnLogInClick() {
	c.dispatch(LogInClicked{})
}

// OnNavigateToRegister requests navigation to the registration screen
func (c *Controller) OnNavigateToRegister() {
	c.dispatch(RegisterNavigationRequested{})
}

// State returns the latest snapshot
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Subscribe returns a channel that always holds the latest snapshot.
// Intermediate snapshots may be skipped by slow readers; the last one never is.
// The channel starts with the current snapshot and is closed on Close or when
// the returned cancel func is called.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	ch <- c.current

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

// Effects delivers one-shot navigation effects. Home navigation is sent exactly
// once per successful login; unread register requests give way to it.
func (c *Controller) Effects() <-chan Navigation {
	return c.effects
}

// Done is closed once the controller has shut down
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Close shuts the controller down and waits for the event loop to exit
func (c *Controller) Close() {
	c.cancel()
	<-c.done
}

func (c *Controller) dispatch(e Event) {
	req := request{event: e, done: make(chan struct{})}
	select {
	case c.events <- req:
	case <-c.done:
		return
	}
	select {
	case <-req.done:
	case <-c.done:
	}
}

func (c *Controller) run() {
	defer close(c.done)
	defer c.shutdown()

	for {
		select {
		case <-c.ctx.Done():
			return
		case req := <-c.events:
			if c.ctx.Err() != nil {
				return
			}
			c.apply(req.event)
			if req.done != nil {
				close(req.done)
			}
		}
	}
}

func (c *Controller) apply(e Event) {
	prev := c.State()
	t := c.reducer.Reduce(prev, e)

	if t.State != prev {
		c.publish(t.State)
	}

	for _, effect := range t.Effects {
		switch eff := effect.(type) {
		case SubmitLogin:
			c.submit(eff.Credentials)
		case Navigation:
			c.navigate(eff)
		}
	}
}

func (c *Controller) publish(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = s
	for _, ch := range c.subscribers {
		// Replace a stale unread snapshot with the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func (c *Controller) navigate(n Navigation) {
	select {
	case c.effects <- n:
		return
	default:
	}

	if n.Destination != DestinationHome {
		logger.Warn("Dropping navigation effect, effects channel is full",
			zap.String("destination", string(n.Destination)))
		return
	}

	// Home is never dropped. The run loop is the only sender, so unread
	// register requests can be discarded to make room for it.
	dropped := 0
	for {
		select {
		case c.effects <- n:
			if dropped > 0 {
				logger.Warn("Discarded unread register navigations in favour of home",
					zap.Int("dropped", dropped))
			}
			return
		case queued := <-c.effects:
			if queued.Destination == DestinationHome {
				c.effects <- queued
				return
			}
			dropped++
		}
	}
}

func (c *Controller) submit(creds models.Credentials) {
	metrics.LoginScreenSubmissions.WithLabelValues("started").Inc()
	logger.Debug("Login attempt started", zap.Duration("timeout", c.timeout))

	attemptCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	go func() {
		defer cancel()

		start := time.Now()
		session, err := c.auth.Authenticate(attemptCtx, creds)
		if err == nil && session == nil {
			err = ErrNoSession
		}

		// The screen was torn down while the call was in flight.
		if c.ctx.Err() != nil {
			logger.Debug("Discarding login result for closed screen", zap.Duration("duration", time.Since(start)))
			return
		}

		var ev Event
		if err != nil {
			metrics.LoginScreenSubmissions.WithLabelValues("failed").Inc()
			logger.Info("Login attempt failed",
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			ev = LoginFailed{Message: c.messageFor(err)}
		} else {
			metrics.LoginScreenSubmissions.WithLabelValues("succeeded").Inc()
			logger.Info("Login attempt succeeded",
				zap.String("user_id", session.UserID),
				zap.Duration("duration", time.Since(start)))
			ev = LoginSucceeded{Session: session}
		}

		select {
		case c.events <- request{event: ev}:
		case <-c.ctx.Done():
		}
	}()
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	close(c.effects)
	metrics.LoginScreensActive.Dec()
}
