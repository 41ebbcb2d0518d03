package trigger

import (
	"bytes"
	"encoding/json"

	"github.com/authmodule/authmodule-api/pkg/httpclient"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"go.uber.org/zap"
)

// Event types posted to trigger URLs
const (
	EventLoginSucceeded = "login_succeeded"
	EventUserRegistered = "user_registered"
)

// Payload is the JSON body sent to a trigger URL
type Payload struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

// CallAsync posts payload to triggerURL in the background.
// Failures are logged but don't block the operation. The returned channel is
// closed once the call finished; callers are free to ignore it.
func CallAsync(triggerURL string, payload Payload, httpClient httpclient.Client) <-chan struct{} {
	done := make(chan struct{})
	if triggerURL == "" {
		// No trigger URL configured, skip silently
		close(done)
		return done
	}

	go func() {
		defer close(done)

		body, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Failed to encode trigger payload", zap.Error(err), zap.String("type", payload.Type))
			return
		}

		resp, err := httpClient.Post(triggerURL, "application/json", bytes.NewReader(body))
		if err != nil {
			logger.Error("Failed to call trigger URL",
				zap.Error(err),
				zap.String("url", triggerURL),
				zap.String("type", payload.Type))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			logger.Info("Trigger URL called successfully",
				zap.String("url", triggerURL),
				zap.String("type", payload.Type),
				zap.Int("status_code", resp.StatusCode))
		} else {
			logger.Warn("Trigger URL returned non-success status",
				zap.String("url", triggerURL),
				zap.String("type", payload.Type),
				zap.Int("status_code", resp.StatusCode))
		}
	}()

	return done
}
