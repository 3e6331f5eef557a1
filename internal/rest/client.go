package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chatsync/internal/model"
)

// Client fetches the initial conversation listing and notification history
// from the REST collaborator. If baseURL is empty every method is a no-op:
// the engine then starts from an empty local state and fills up from the
// live stream. Fetched records go through the same store entry points as
// live events, so there is exactly one merge path.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates the collaborator client. Empty baseURL disables it.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		return &Client{}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchConversations returns the user's conversation listing.
func (c *Client) FetchConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	if c.baseURL == "" {
		return nil, nil
	}
	var out []model.Conversation
	if err := c.getJSON(ctx, "/api/conversations", userID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchNotifications returns the user's notification history.
func (c *Client) FetchNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	if c.baseURL == "" {
		return nil, nil
	}
	var out []model.Notification
	if err := c.getJSON(ctx, "/api/notifications", userID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path, userID string, out any) error {
	u := c.baseURL + path + "?user_id=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("rest %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rest %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rest %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest %s decode: %w", path, err)
	}
	return nil
}
