package public

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	publicapp "github.com/sngm3741/bean-beacon-services/api/internal/public/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	cafes     publicapp.CafeQueryService
	ratings   publicapp.RatingService
	favorites publicapp.FavoriteService
}

// Config defines dependencies required by Handler.
type Config struct {
	Cafes     publicapp.CafeQueryService
	Ratings   publicapp.RatingService
	Favorites publicapp.FavoriteService
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		cafes:     cfg.Cafes,
		ratings:   cfg.Ratings,
		favorites: cfg.Favorites,
	}
}

// Register mounts all public routes onto the router. requireAuth rejects
// anonymous callers; optionalAuth attaches the user when a valid token is
// present and lets everyone else through.
func (h *Handler) Register(r chi.Router, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/cafes", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.cafeNearbyHandler())
		r.With(optionalAuth).Get("/search", h.cafeSearchHandler())
		r.With(optionalAuth).Get("/{cafeId}", h.cafeDetailHandler())

		r.Route("/{cafeId}/ratings", func(r chi.Router) {
			r.With(optionalAuth).Get("/", h.ratingListHandler())
			r.With(requireAuth).Post("/", h.ratingSubmitHandler())
			r.With(requireAuth).Put("/{ratingId}", h.ratingUpdateHandler())
			r.With(requireAuth).Delete("/{ratingId}", h.ratingDeleteHandler())
		})
	})

	r.Route("/favorites", func(r chi.Router) {
		r.With(requireAuth).Get("/", h.favoriteListHandler())
		r.With(requireAuth).Post("/{cafeId}", h.favoriteAddHandler())
		r.With(requireAuth).Delete("/{cafeId}", h.favoriteRemoveHandler())
		r.With(optionalAuth).Get("/{cafeId}/check", h.favoriteCheckHandler())
	})
}
