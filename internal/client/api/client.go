// Package api is the typed client of the quizroom REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quizroom/internal/domain"
	"quizroom/internal/protocol"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler registers fn to run whenever the server answers 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New returns a client for the API rooted at baseURL, e.g. http://host:8080/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Auth is the result of a login or registration.
type Auth struct {
	User  domain.User
	Token string
}

type authResponse struct {
	User   domain.User `json:"user"`
	UserID int64       `json:"user_id"`
	Token  string      `json:"token"`
}

func (r authResponse) auth() Auth {
	u := r.User
	if u.ID == 0 {
		u.ID = r.UserID
	}
	return Auth{User: u, Token: r.Token}
}

func (c *Client) Login(ctx context.Context, username, password string) (Auth, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth", map[string]string{"username": username, "password": password}, &resp)
	return resp.auth(), err
}

func (c *Client) Register(ctx context.Context, username, password, confirm string) (Auth, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/user", map[string]string{
		"username":        username,
		"password":        password,
		"confirmPassword": confirm,
	}, &resp)
	return resp.auth(), err
}

func (c *Client) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var resp struct {
		User domain.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/user/"+strconv.FormatInt(id, 10), nil, &resp)
	return resp.User, err
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var resp struct {
		Users []domain.User `json:"users"`
	}
	err := c.do(ctx, http.MethodGet, "/users", nil, &resp)
	return resp.Users, err
}

func (c *Client) UserQuizzes(ctx context.Context, userID int64) ([]domain.QuizSummary, error) {
	var resp struct {
		Quizzes []domain.QuizSummary `json:"quizzes"`
	}
	err := c.do(ctx, http.MethodGet, "/user/"+strconv.FormatInt(userID, 10)+"/quizzes", nil, &resp)
	return resp.Quizzes, err
}

// CreateQuiz is the body of POST /quiz.
type CreateQuiz struct {
	UserID    int64             `json:"userId"`
	Title     string            `json:"title"`
	TimeLimit int               `json:"timeLimit,omitempty"`
	Questions []domain.Question `json:"questions"`
}

func (c *Client) CreateQuiz(ctx context.Context, req CreateQuiz) (int64, error) {
	var resp struct {
		QuizID int64 `json:"quiz_id"`
	}
	err := c.do(ctx, http.MethodPost, "/quiz", req, &resp)
	return resp.QuizID, err
}

// GetQuiz fetches a quiz and converts its questions from the wire shape.
func (c *Client) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	var resp struct {
		Quiz protocol.QuizWire `json:"quiz"`
	}
	if err := c.do(ctx, http.MethodGet, "/quiz/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		return domain.Quiz{}, err
	}
	return resp.Quiz.Quiz()
}

type lobbyResponse struct {
	Lobby         *domain.LobbyView `json:"lobby"`
	GameSessionID string            `json:"gameSessionId"`
}

func (r lobbyResponse) view() domain.LobbyView {
	if r.Lobby == nil {
		return domain.LobbyView{}
	}
	return *r.Lobby
}

func lobbyPath(quizID int64, action string) string {
	p := "/quiz/" + strconv.FormatInt(quizID, 10) + "/lobby"
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) GetLobby(ctx context.Context, quizID int64) (domain.LobbyView, error) {
	var resp lobbyResponse
	err := c.do(ctx, http.MethodGet, lobbyPath(quizID, ""), nil, &resp)
	return resp.view(), err
}

func (c *Client) JoinLobby(ctx context.Context, quizID, userID int64) (domain.LobbyView, error) {
	var resp lobbyResponse
	err := c.do(ctx, http.MethodPost, lobbyPath(quizID, "join"), map[string]int64{"userId": userID}, &resp)
	return resp.view(), err
}

func (c *Client) LeaveLobby(ctx context.Context, quizID, userID int64) error {
	return c.do(ctx, http.MethodPost, lobbyPath(quizID, "leave"), map[string]int64{"userId": userID}, nil)
}

// StartQuiz asks the server to start the quiz and returns the game session id.
func (c *Client) StartQuiz(ctx context.Context, quizID, userID int64) (string, error) {
	var resp lobbyResponse
	err := c.do(ctx, http.MethodPost, lobbyPath(quizID, "start"), map[string]int64{"userId": userID}, &resp)
	return resp.GameSessionID, err
}

func (c *Client) CloseLobby(ctx context.Context, quizID, userID int64) error {
	return c.do(ctx, http.MethodPost, lobbyPath(quizID, "close"), map[string]int64{"userId": userID}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
