package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sngm3741/bean-beacon-services/api/internal/account/domain"
	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/validation"
)

type accountService struct {
	users    UserRepository
	tokens   TokenIssuer
	hashCost int
	now      func() time.Time
}

// NewAccountService creates the account service. hashCost <= 0 selects
// bcrypt.DefaultCost.
func NewAccountService(users UserRepository, tokens TokenIssuer, hashCost int) AccountService {
	if hashCost <= 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &accountService{
		users:    users,
		tokens:   tokens,
		hashCost: hashCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) Register(ctx context.Context, cmd RegisterCommand) (*Session, error) {
	email, err := normalizeEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if len(cmd.Password) < domain.MinPasswordLength {
		return nil, apperror.Validation("password must be at least %d characters", domain.MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperror.Validation("password is too long")
		}
		return nil, apperror.Infrastructure(err, "hash password")
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.session(*user)
}

func (s *accountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if apperror.Is(err, apperror.KindNotFound) {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	return s.session(*user)
}

func (s *accountService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *accountService) session(user domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Infrastructure(err, "issue token")
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperror.Validation("email is required")
	}
	if err := validation.Var("email", email, "email"); err != nil {
		return "", err
	}
	return email, nil
}
