package boardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned for any 401 response. Callers must treat it as
// a dead credential and tear the session down rather than retry.
var ErrUnauthorized = errors.New("boardsdk: unauthorized")

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("boardsdk: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("boardsdk: %s (status %d)", e.Detail, e.StatusCode)
}

const defaultRequestTimeout = 5 * time.Second

// Client talks to a collabboard server. Safe for concurrent use.
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client

	mu           sync.RWMutex
	sessionToken string
}

// New creates a Client for the server at rawURL, e.g. "http://localhost:8080".
func New(rawURL string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("boardsdk.New: parse url: %w", err)
	}

	return &Client{
		BaseURL:    u,
		HTTPClient: &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

// SessionToken returns the current bearer credential.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

// SetSessionToken replaces the bearer credential used for every request.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

// request performs one API call. out may be nil for responses without a body.
func (c *Client) request(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("boardsdk: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	u := *c.BaseURL
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		u.RawQuery = p[i+1:]
		p = p[:i]
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1" + p

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("boardsdk: build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.SessionToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("boardsdk: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("boardsdk: decode %s %s response: %w", method, path, err)
	}
	return nil
}

// apiError extracts the problem detail from an error response body.
func apiError(resp *http.Response) error {
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	detail := ""
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
		detail = problem.Detail
		if detail == "" {
			detail = problem.Title
		}
	}
	return &Error{StatusCode: resp.StatusCode, Detail: detail}
}

// Register creates an account and stores the returned access token on the
// client.
func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.request(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	c.SetSessionToken(out.AccessToken)
	return out, nil
}

// Login authenticates and stores the returned access token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.request(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	c.SetSessionToken(out.AccessToken)
	return out, nil
}

// Refresh exchanges a refresh token for a new access token and stores it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.request(ctx, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, &out)
	if err != nil {
		return "", err
	}
	c.SetSessionToken(out.AccessToken)
	return out.AccessToken, nil
}

// ListBoards returns the boards the caller belongs to.
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	var out []Board
	if err := c.request(ctx, http.MethodGet, "/boards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBoard creates a board with the caller as owner.
func (c *Client) CreateBoard(ctx context.Context, name string, memberIDs []uuid.UUID) (Board, error) {
	var out Board
	err := c.request(ctx, http.MethodPost, "/boards", map[string]any{
		"name":       name,
		"member_ids": memberIDs,
	}, &out)
	return out, err
}

// Board fetches the full board view: board row, tasks, members.
func (c *Client) Board(ctx context.Context, boardID uuid.UUID) (*BoardDetail, error) {
	var out BoardDetail
	if err := c.request(ctx, http.MethodGet, "/boards/"+boardID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveWhiteboard persists a full canvas snapshot for the board.
func (c *Client) SaveWhiteboard(ctx context.Context, boardID uuid.UUID, snapshot json.RawMessage) error {
	return c.request(ctx, http.MethodPut, "/boards/"+boardID.String()+"/whiteboard", map[string]json.RawMessage{
		"whiteboard_state": snapshot,
	}, nil)
}

// CreateTask creates a task on the board. The server assigns the identity.
func (c *Client) CreateTask(ctx context.Context, boardID uuid.UUID, req CreateTaskRequest) (Task, error) {
	var out Task
	err := c.request(ctx, http.MethodPost, "/boards/"+boardID.String()+"/tasks", req, &out)
	return out, err
}

// UpdateTask patches a task; zero-value fields are left unchanged.
func (c *Client) UpdateTask(ctx context.Context, taskID uuid.UUID, req UpdateTaskRequest) (Task, error) {
	var out Task
	err := c.request(ctx, http.MethodPut, "/tasks/"+taskID.String(), req, &out)
	return out, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return c.request(ctx, http.MethodDelete, "/tasks/"+taskID.String(), nil, nil)
}

// Members lists the board's members, pending invites included.
func (c *Client) Members(ctx context.Context, boardID uuid.UUID) ([]BoardMember, error) {
	var out []BoardMember
	if err := c.request(ctx, http.MethodGet, "/boards/"+boardID.String()+"/members", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InviteMember invites a registered user to the board by email.
func (c *Client) InviteMember(ctx context.Context, boardID uuid.UUID, email string) (InviteResponse, error) {
	var out InviteResponse
	err := c.request(ctx, http.MethodPost, "/boards/"+boardID.String()+"/invite", map[string]string{
		"email": email,
	}, &out)
	return out, err
}

// AcceptInvite redeems an invite token and returns the board joined.
func (c *Client) AcceptInvite(ctx context.Context, token string) (uuid.UUID, error) {
	var out struct {
		BoardID uuid.UUID `json:"board_id"`
	}
	if err := c.request(ctx, http.MethodGet, "/invites/"+token, nil, &out); err != nil {
		return uuid.Nil, err
	}
	return out.BoardID, nil
}

// SearchUsers finds users by username or email fragment. A blank query is
// rejected before any network call.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, error) {
	if query == "" {
		return nil, fmt.Errorf("boardsdk.SearchUsers: query must not be empty")
	}

	var out []User
	path := "/users/search?q=" + url.QueryEscape(query)
	if err := c.request(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
