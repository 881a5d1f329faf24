// Package upstream talks to the remote hospital services. The portal is a
// thin front: it forwards the session's bearer token, decodes the shared
// response envelope and maps failures into the local error taxonomy. Calls
// are single-shot; a failed request surfaces to the caller and is never
// silently retried.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hams/portal-server-go/internal/config"
	apperrors "github.com/hams/portal-server-go/internal/errors"
)

// Envelope is the response wrapper every hospital service uses.
type Envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// rejectionMessage digs the human-readable reason out of a failure
// envelope: the nested data.message wins, then the top-level message, then
// a generic fallback supplied by RemoteRejected.
func (e *Envelope) rejectionMessage() string {
	if len(e.Data) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(e.Data, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return e.Message
}

// Client issues requests against the three hospital services.
type Client struct {
	http             *http.Client
	userBase         string
	doctorBase       string
	notificationBase string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:             &http.Client{Timeout: cfg.UpstreamTimeout()},
		userBase:         cfg.UserServiceURL,
		doctorBase:       cfg.DoctorServiceURL,
		notificationBase: cfg.NotificationServiceURL,
	}
}

// call performs one enveloped request. payload is JSON-encoded when
// non-nil, token is attached as a bearer credential when non-empty, and on
// success the envelope's data field is decoded into out when out is
// non-nil. Transport failures and unreadable responses come back as
// RemoteFailure; an envelope with success=false comes back as
// RemoteRejected carrying the service's own message.
func (c *Client) call(ctx context.Context, service, method, url, token string, payload, out any) error {
	body, status, err := c.roundTrip(ctx, service, method, url, token, payload)
	if err != nil {
		return err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status < 200 || status >= 300 {
			return apperrors.RemoteFailure(service, fmt.Errorf("status %d", status))
		}
		return apperrors.RemoteFailure(service, fmt.Errorf("decode response: %w", err))
	}

	if !env.Success {
		return apperrors.RemoteRejected(env.rejectionMessage())
	}
	if status < 200 || status >= 300 {
		return apperrors.RemoteFailure(service, fmt.Errorf("status %d", status))
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperrors.RemoteFailure(service, fmt.Errorf("decode data: %w", err))
		}
	}
	return nil
}

// roundTrip performs the raw HTTP exchange and returns the response body
// and status. Used directly by the one endpoint that does not speak the
// envelope (login, which returns the token as plain text).
func (c *Client) roundTrip(ctx context.Context, service, method, url, token string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, apperrors.Wrap(apperrors.ErrCodeInternal, "marshal request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, apperrors.RemoteFailure(service, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("service", service).Str("url", url).
			Dur("elapsed", elapsed).Msg("upstream request error")
		return nil, 0, apperrors.RemoteFailure(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, apperrors.RemoteFailure(service, fmt.Errorf("read response: %w", err))
	}

	log.Debug().Str("service", service).Str("method", method).Str("url", url).
		Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("upstream request")
	return body, resp.StatusCode, nil
}

// maxResponseBytes caps upstream response bodies. Calendars and
// appointment lists stay well under this.
const maxResponseBytes = 4 << 20

var errEmptyToken = fmt.Errorf("empty token in login response")

func statusError(status int) error {
	return fmt.Errorf("status %d", status)
}

func unmarshalEnvelope(body []byte, env *Envelope) error {
	return json.Unmarshal(body, env)
}
