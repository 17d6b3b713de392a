// Package account exposes sign-up, login and the current-user endpoint.
package account

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accountapp "github.com/sngm3741/bean-beacon-services/api/internal/account/application"
	"github.com/sngm3741/bean-beacon-services/api/internal/account/domain"
	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/common"
)

// Handler wires account endpoints to the account service.
type Handler struct {
	accounts accountapp.AccountService
}

// Config defines dependencies required by Handler.
type Config struct {
	Accounts accountapp.AccountService
}

func NewHandler(cfg Config) *Handler {
	return &Handler{accounts: cfg.Accounts}
}

// Register mounts the /auth routes.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.registerHandler())
		r.Post("/login", h.loginHandler())
		r.With(requireAuth).Get("/me", h.meHandler())
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func (h *Handler) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		var req registerRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(w, r, err)
			return
		}
		session, err := h.accounts.Register(ctx, accountapp.RegisterCommand{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
		})
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusCreated, buildSessionResponse(*session))
	}
}

func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		var req loginRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(w, r, err)
			return
		}
		session, err := h.accounts.Login(ctx, req.Email, req.Password)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, buildSessionResponse(*session))
	}
}

func (h *Handler) meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(w, r, apperror.Unauthorized("not authenticated"))
			return
		}
		user, err := h.accounts.Me(ctx, principal.ID)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, buildUserResponse(*user))
	}
}

func buildUserResponse(user domain.User) userResponse {
	return userResponse{ID: user.ID, Email: user.Email, Name: user.Name}
}

func buildSessionResponse(session accountapp.Session) sessionResponse {
	return sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      buildUserResponse(session.User),
	}
}
