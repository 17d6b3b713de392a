package application

import (
	"context"
	"time"

	"github.com/sngm3741/bean-beacon-services/api/internal/account/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create assigns user.ID. A taken email is a conflict.
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenIssuer signs an access token for a user.
type TokenIssuer interface {
	Issue(user domain.User) (token string, expiresAt time.Time, err error)
}

// RegisterCommand carries sign-up input.
type RegisterCommand struct {
	Email    string
	Password string
	Name     string
}

// Session is the result of a successful register or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AccountService describes the authentication use-cases.
type AccountService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
