package prioritizer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Vissonabe/personal-task-prioritizer/tasks"
)

const defaultHTTPTimeout = 30 * time.Second

// SourceRemote and SourceHeuristic tell the caller which scorer produced a result.
const (
	SourceRemote    = "remote"
	SourceHeuristic = "heuristic"
)

// Result is a scored task list tagged with its origin.
type Result struct {
	Tasks  []tasks.Task `json:"tasks"`
	Output string       `json:"output,omitempty"`
	Source string       `json:"source"`
}

// Client calls the remote scoring endpoint and degrades to the local
// heuristic when it fails or is not configured.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	nowTime func() time.Time
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

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) { c.nowTime = nowFunc }
}

// NewClient creates a scorer client. An empty baseURL disables the remote
// scorer entirely.
func NewClient(baseURL, apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type apiRequest struct {
	Input apiState `json:"input"`
}

type apiState struct {
	Tasks            []tasks.Task `json:"tasks"`
	PrioritizedTasks []tasks.Task `json:"prioritized_tasks"`
	UserInput        string       `json:"user_input"`
	CurrentStep      string       `json:"current_step"`
	Errors           []string     `json:"errors"`
	Output           string       `json:"output"`
}

type apiResponse struct {
	Output apiState `json:"output"`
}

// Prioritize scores the given tasks, or parses and scores raw user input
// when list is empty. The heuristic fallback never fails.
func (c *Client) Prioritize(ctx context.Context, userInput string, list []tasks.Task) Result {
	if c.baseURL != "" {
		result, err := c.callRemote(ctx, userInput, list)
		if err == nil {
			return result
		}
		log.Warn().Err(err).Msg("remote scorer failed, using local heuristic")
	}

	return Result{
		Tasks:  ScoreHeuristically(list, c.nowTime()),
		Source: SourceHeuristic,
	}
}

// Healthy reports whether the remote scorer answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) callRemote(ctx context.Context, userInput string, list []tasks.Task) (Result, error) {
	payload := apiRequest{Input: apiState{
		Tasks:            list,
		PrioritizedTasks: []tasks.Task{},
		UserInput:        userInput,
		Errors:           []string{},
	}}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return Result{}, errors.Wrap(err, "[prioritizer callRemote] encode")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/prioritize", bytes.NewReader(encoded))
	if err != nil {
		return Result{}, errors.Wrap(err, "[prioritizer callRemote] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, errors.Wrap(err, "[prioritizer callRemote] scorer unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, errors.Wrap(err, "[prioritizer callRemote] read response")
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, errors.Errorf("[prioritizer callRemote] scorer returned %d", resp.StatusCode)
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, errors.Wrap(err, "[prioritizer callRemote] decode response")
	}
	if len(decoded.Output.Errors) > 0 {
		return Result{}, errors.Errorf("[prioritizer callRemote] scorer errors: %s", strings.Join(decoded.Output.Errors, "; "))
	}

	scored := decoded.Output.PrioritizedTasks
	if len(scored) == 0 {
		scored = decoded.Output.Tasks
	}
	return Result{Tasks: scored, Output: decoded.Output.Output, Source: SourceRemote}, nil
}
