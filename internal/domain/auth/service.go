package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"perfboard/internal/domain/domainerr"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const DefaultTokenTTL = 8 * time.Hour

type Service struct {
	store  StoreAPI
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

// Login checks the credentials and issues a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, OrganizationID: user.OrganizationID, Role: user.Role}, s.ttl)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return Session{Token: token, ExpiresAt: s.now().Add(s.ttl), User: user}, nil
}

func (s *Service) CreateUser(ctx context.Context, orgID, email, password, role string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", domainerr.Invalid("email", "is required")
	}
	if !ValidRole(role) {
		return "", domainerr.Invalid("role", "is not a known role")
	}
	if len(password) < 8 {
		return "", domainerr.Invalid("password", "must have at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.store.CreateUser(ctx, User{OrganizationID: orgID, Email: email, PasswordHash: hash, Role: role, Status: UserStatusActive})
}

func (s *Service) OrganizationName(ctx context.Context, orgID string) (string, error) {
	return s.store.OrganizationName(ctx, orgID)
}
