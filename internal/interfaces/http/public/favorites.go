package public

import (
	"context"
	"net/http"

	"github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/common"
)

func (h *Handler) favoriteListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		cafes, err := h.favorites.List(ctx, user.ID)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, buildCafeListResponse(cafes, nil))
	}
}

func (h *Handler) favoriteAddHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		cafeID := cafeIDParam(r)
		if err := h.favorites.Add(ctx, user.ID, cafeID); err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusCreated, favoriteStatusResponse{CafeID: cafeID, IsFavorite: true})
	}
}

func (h *Handler) favoriteRemoveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		if err := h.favorites.Remove(ctx, user.ID, cafeIDParam(r)); err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteMessage(w, http.StatusOK, "Removed from favorites")
	}
}

// favoriteCheckHandler は未ログインでも 200 で isFavorite=false を返す。
func (h *Handler) favoriteCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.StoreTimeout)
		defer cancel()

		cafeID := cafeIDParam(r)
		user, _ := common.UserFromContext(r.Context())
		isFavorite, err := h.favorites.IsFavorite(ctx, user.ID, cafeID)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		common.WriteData(w, http.StatusOK, favoriteStatusResponse{CafeID: cafeID, IsFavorite: isFavorite})
	}
}
