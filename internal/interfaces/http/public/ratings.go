package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/bean-beacon-services/api/internal/public/application"
)

func (h *Handler) ratingListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		ratings, err := h.ratings.List(ctx, cafeIDParam(r))
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		items := make([]ratingResponse, 0, len(ratings))
		for _, rating := range ratings {
			items = append(items, buildRatingResponse(rating))
		}
		common.WriteData(w, http.StatusOK, items)
	}
}

// ratingSubmitHandler は同じユーザーの既存評価があれば上書きする。
func (h *Handler) ratingSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req ratingSubmitRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(w, r, err)
			return
		}

		rating, err := h.ratings.Submit(ctx, publicapp.SubmitRatingCommand{
			UserID: user.ID,
			CafeID: cafeIDParam(r),
			Value:  req.Rating,
			Review: req.Review,
		})
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, buildRatingResponse(*rating))
	}
}

func (h *Handler) ratingUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req ratingUpdateRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(w, r, err)
			return
		}

		rating, err := h.ratings.Update(ctx, publicapp.UpdateRatingCommand{
			UserID:   user.ID,
			CafeID:   cafeIDParam(r),
			RatingID: strings.TrimSpace(chi.URLParam(r, "ratingId")),
			Value:    req.Rating,
			Review:   req.Review,
		})
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, buildRatingResponse(*rating))
	}
}

func (h *Handler) ratingDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		err := h.ratings.Delete(ctx, user.ID, cafeIDParam(r), strings.TrimSpace(chi.URLParam(r, "ratingId")))
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteMessage(w, http.StatusOK, "Rating deleted")
	}
}

func cafeIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "cafeId"))
}

// requireUser reads the principal set by the auth middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (common.AuthenticatedUser, bool) {
	user, ok := common.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		common.WriteError(w, r, apperror.Unauthorized("not authenticated"))
		return common.AuthenticatedUser{}, false
	}
	return user, true
}
