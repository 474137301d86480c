// Package chatwoot is the client for the conversation platform: it
// posts the assistant's replies into conversations and probes API
// reachability for health checks.
package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aibroker/support-assistant/engine/domain"
)

// Client talks to the Chatwoot REST API. One pooled http.Client is
// shared by all calls; outbound requests are paced so a burst of
// conversations cannot flood the platform.
type Client struct {
	baseURL   string
	apiToken  string
	accountID int64
	client    *http.Client
	limiter   *rate.Limiter
}

// New creates a Client for the given account.
func New(baseURL, apiToken string, accountID int64) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiToken:  apiToken,
		accountID: accountID,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

type outboundMessage struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	Private     bool   `json:"private"`
}

// SendMessage posts a reply into the conversation. private=true makes
// it an internal note visible to operators only.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, content string, private bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	url := fmt.Sprintf("%s/api/v1/accounts/%d/conversations/%d/messages",
		c.baseURL, c.accountID, conversationID)
	body, _ := json.Marshal(outboundMessage{
		Content:     content,
		MessageType: domain.MessageOutgoing,
		Private:     private,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_access_token", c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}

// Health reports whether the Chatwoot API answers for our account.
func (c *Client) Health(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/v1/accounts/%d/dashboard", c.baseURL, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("api_access_token", c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}
