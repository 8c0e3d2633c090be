package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// statusPayload is the wire format the legacy display system accepts.
type statusPayload struct {
	School string `json:"school"`
	Sport  string `json:"sport"`
	Status int    `json:"status"`
}

// Sender posts status updates to the legacy display endpoint.
type Sender struct {
	url    string
	client *http.Client
}

// NewSender builds a Sender for the given endpoint.
func NewSender(url string, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Sender{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// SendStatus delivers one status flag. Any non-2xx response is an error; the
// caller decides whether the event recurring will retry it naturally.
func (s *Sender) SendStatus(ctx context.Context, school, sport string, status int) error {
	body, err := json.Marshal(statusPayload{School: school, Sport: sport, Status: status})
	if err != nil {
		return fmt.Errorf("marshal status payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post status: unexpected response %d", resp.StatusCode)
	}
	return nil
}
