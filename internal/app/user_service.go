package app

import (
	"context"
	"errors"
	"strings"

	"quizroom/internal/auth"
	"quizroom/internal/domain"
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetAccount(ctx context.Context, username string) (domain.Account, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// UserService handles registration, login and lookups.
type UserService struct {
	users  UserRepository
	tokens *auth.Tokens
}

func NewUserService(users UserRepository, tokens *auth.Tokens) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register creates a user and returns it with a bearer token.
func (s *UserService) Register(ctx context.Context, username, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, "", &domain.ValidationError{Field: "username", Message: "username is required"}
	}
	if password == "" {
		return domain.User{}, "", &domain.ValidationError{Field: "password", Message: "password is required"}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}
	user, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Login checks credentials and returns the user with a fresh token.
func (s *UserService) Login(ctx context.Context, username, password string) (domain.User, string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return domain.User{}, "", &domain.ValidationError{Field: "credentials", Message: "username and password are required"}
	}
	account, err := s.users.GetAccount(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return account.User, token, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// Authenticate resolves a bearer token to a user id.
func (s *UserService) Authenticate(token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrUnauthorized
	}
	return s.tokens.Verify(token)
}
