package screen

import (
	"net/http"
	"strings"
	"time"

	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// per connection, on top of the per-IP limit on the upgrade
	defaultSubmitBurst = 5
)

var defaultSubmitRate = rate.Every(2 * time.Second)

// Server hosts login screens for remote views. Each websocket connection gets its
// own controller; the view sends user actions and renders the snapshots it receives.
type Server struct {
	auth     login.Authenticator
	rules    login.Rules
	opts     []login.Option
	upgrader websocket.Upgrader

	submitRate  rate.Limit
	submitBurst int

	pingPeriod time.Duration
	pongWait   time.Duration
}

// NewServer creates a screen server. allowedOrigins lists browser origins that may
// connect; "*" allows any. Requests without an Origin header are always accepted.
func NewServer(auth login.Authenticator, rules login.Rules, allowedOrigins []string, opts ...login.Option) *Server {
	return &Server{
		auth:  auth,
		rules: rules,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		submitRate:  defaultSubmitRate,
		submitBurst: defaultSubmitBurst,
		pingPeriod:  pingPeriod,
		pongWait:    pongWait,
	}
}

// WithSubmitRate sets how many login attempts one connection may start. Attempts
// over the limit are answered with an error message and never reach the backend.
func (s *Server) WithSubmitRate(r rate.Limit, burst int) *Server {
	if r > 0 && burst > 0 {
		s.submitRate = r
		s.submitBurst = burst
	}
	return s
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		return set[origin]
	}
}

// ServeHTTP upgrades the request and runs the screen until the peer disconnects
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		metrics.RemoteScreenConnections.WithLabelValues("upgrade_failed").Inc()
		logger.Warn("Login screen websocket upgrade failed", zap.Error(err))
		return
	}

	metrics.RemoteScreenConnections.WithLabelValues("opened").Inc()

	ctrl := login.NewController(s.auth, s.rules, s.opts...)
	sess := newSession(uuid.NewString(), conn, ctrl, rate.NewLimiter(s.submitRate, s.submitBurst))
	sess.pingPeriod = s.pingPeriod
	sess.pongWait = s.pongWait
	sess.run()

	metrics.RemoteScreenConnections.WithLabelValues("closed").Inc()
}
