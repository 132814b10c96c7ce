package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quiz-conductor/internal/auth"
	"quiz-conductor/internal/domain"
)

// AccountService registers users and logs them in.
type AccountService struct {
	users     UserStore
	tokens    *auth.Tokens
	adminCode string
	now       func() time.Time
}

func NewAccountService(users UserStore, tokens *auth.Tokens, adminCode string) *AccountService {
	return &AccountService{users: users, tokens: tokens, adminCode: adminCode, now: time.Now}
}

func (s *AccountService) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	username := strings.TrimSpace(req.Username)
	name := strings.TrimSpace(req.Name)
	if username == "" || name == "" || req.Password == "" {
		return domain.User{}, fmt.Errorf("%w: name, username and password are required", domain.ErrValidation)
	}
	role := domain.Role(strings.ToLower(string(req.Role)))
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, req.Role)
	}
	if role == domain.RoleHost && (s.adminCode == "" || req.AdminCode != s.adminCode) {
		return domain.User{}, domain.ErrInvalidAdminCode
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  name,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	slog.Info("account registered", "username", username, "role", role)
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return domain.LoginResult{}, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.LoginResult{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResult{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}
	if req.Role != "" && domain.Role(strings.ToLower(string(req.Role))) != user.Role {
		return domain.LoginResult{}, domain.ErrRoleMismatch
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.LoginResult{}, err
	}
	return domain.LoginResult{Token: token, User: user}, nil
}

// Profile returns the stored account of an authenticated user.
func (s *AccountService) Profile(ctx context.Context, username string) (domain.User, error) {
	return s.users.GetUser(ctx, username)
}
