package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultHTTPTimeout = 10 * time.Second

// ErrNotFound is returned when a task does not exist or belongs to another user.
var ErrNotFound = errors.New("task not found")

// Client talks to the PostgREST endpoint of the managed database.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a task storage client for one project.
func NewClient(baseURL, apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Save inserts a task for the user and returns the stored row.
func (c *Client) Save(ctx context.Context, bearer, userID string, task Task) (Task, error) {
	task.UserID = userID
	task.ID = 0
	now := nowISO()
	task.CreatedAt = now
	task.UpdatedAt = now

	var rows []Task
	err := c.send(ctx, http.MethodPost, "/rest/v1/tasks", bearer, task, &rows, "return=representation")
	if err != nil {
		return Task{}, errors.Wrap(err, "[tasks Save]")
	}
	if len(rows) == 0 {
		return Task{}, errors.New("[tasks Save] no row returned")
	}
	return rows[0], nil
}

// List returns all tasks for the user, highest priority first.
func (c *Client) List(ctx context.Context, bearer, userID string) ([]Task, error) {
	path := "/rest/v1/tasks?user_id=eq." + url.QueryEscape(userID) + "&order=priority_score.desc&select=*"
	var rows []Task
	if err := c.send(ctx, http.MethodGet, path, bearer, nil, &rows, ""); err != nil {
		return nil, errors.Wrap(err, "[tasks List]")
	}
	return rows, nil
}

// Get fetches one task owned by the user.
func (c *Client) Get(ctx context.Context, bearer, userID string, taskID int64) (Task, error) {
	path := fmt.Sprintf("/rest/v1/tasks?id=eq.%d&user_id=eq.%s&select=*", taskID, url.QueryEscape(userID))
	var rows []Task
	if err := c.send(ctx, http.MethodGet, path, bearer, nil, &rows, ""); err != nil {
		return Task{}, errors.Wrap(err, "[tasks Get]")
	}
	if len(rows) == 0 {
		return Task{}, ErrNotFound
	}
	return rows[0], nil
}

// Update applies a partial update to one task owned by the user.
func (c *Client) Update(ctx context.Context, bearer, userID string, taskID int64, changes map[string]any) error {
	changes["updated_at"] = nowISO()
	path := fmt.Sprintf("/rest/v1/tasks?id=eq.%d&user_id=eq.%s", taskID, url.QueryEscape(userID))

	var rows []Task
	if err := c.send(ctx, http.MethodPatch, path, bearer, changes, &rows, "return=representation"); err != nil {
		return errors.Wrap(err, "[tasks Update]")
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one task owned by the user.
func (c *Client) Delete(ctx context.Context, bearer, userID string, taskID int64) error {
	path := fmt.Sprintf("/rest/v1/tasks?id=eq.%d&user_id=eq.%s", taskID, url.QueryEscape(userID))
	var rows []Task
	if err := c.send(ctx, http.MethodDelete, path, bearer, nil, &rows, "return=representation"); err != nil {
		return errors.Wrap(err, "[tasks Delete]")
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleCompletion flips a task's completed flag.
func (c *Client) ToggleCompletion(ctx context.Context, bearer, userID string, taskID int64) error {
	task, err := c.Get(ctx, bearer, userID, taskID)
	if err != nil {
		return err
	}
	return c.Update(ctx, bearer, userID, taskID, map[string]any{"completed": !task.Completed})
}

// ClearAll deletes every task for the user and reports how many went.
func (c *Client) ClearAll(ctx context.Context, bearer, userID string) (int, error) {
	path := "/rest/v1/tasks?user_id=eq." + url.QueryEscape(userID)
	var rows []Task
	if err := c.send(ctx, http.MethodDelete, path, bearer, nil, &rows, "return=representation"); err != nil {
		return 0, errors.Wrap(err, "[tasks ClearAll]")
	}
	return len(rows), nil
}

// GetPreferences loads the user's preferences, creating defaults on first use.
func (c *Client) GetPreferences(ctx context.Context, bearer, userID string) (Preferences, error) {
	path := "/rest/v1/user_preferences?user_id=eq." + url.QueryEscape(userID) + "&select=*"
	var rows []Preferences
	if err := c.send(ctx, http.MethodGet, path, bearer, nil, &rows, ""); err != nil {
		return Preferences{}, errors.Wrap(err, "[tasks GetPreferences]")
	}
	if len(rows) > 0 {
		return rows[0], nil
	}

	defaults := Preferences{UserID: userID, Theme: "default", CreatedAt: nowISO(), UpdatedAt: nowISO()}
	var created []Preferences
	if err := c.send(ctx, http.MethodPost, "/rest/v1/user_preferences", bearer, defaults, &created, "return=representation"); err != nil {
		// Storage rejecting the default row is not fatal for rendering.
		return defaults, nil
	}
	if len(created) > 0 {
		return created[0], nil
	}
	return defaults, nil
}

// UpdatePreferences upserts the user's preferences.
func (c *Client) UpdatePreferences(ctx context.Context, bearer, userID string, prefs Preferences) error {
	// Ensure the row exists, then patch it.
	if _, err := c.GetPreferences(ctx, bearer, userID); err != nil {
		return err
	}

	path := "/rest/v1/user_preferences?user_id=eq." + url.QueryEscape(userID)
	changes := map[string]any{"theme": prefs.Theme, "updated_at": nowISO()}
	var rows []Preferences
	return errors.Wrap(
		c.send(ctx, http.MethodPatch, path, bearer, changes, &rows, "return=representation"),
		"[tasks UpdatePreferences]",
	)
}

// Stats loads all tasks and summarizes them.
func (c *Client) Stats(ctx context.Context, bearer, userID string) (Stats, error) {
	list, err := c.List(ctx, bearer, userID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list), nil
}

func (c *Client) send(ctx context.Context, method, path, bearer string, body, out any, prefer string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "task storage unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("task storage rejected the request (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
