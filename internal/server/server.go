package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	accountapp "github.com/sngm3741/bean-beacon-services/api/internal/account/application"
	"github.com/sngm3741/bean-beacon-services/api/internal/cache"
	"github.com/sngm3741/bean-beacon-services/api/internal/config"
	"github.com/sngm3741/bean-beacon-services/api/internal/infrastructure/jwtauth"
	mongodoc "github.com/sngm3741/bean-beacon-services/api/internal/infrastructure/mongo"
	"github.com/sngm3741/bean-beacon-services/api/internal/infrastructure/overpass"
	accounthttp "github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/account"
	"github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/public"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	publicapp "github.com/sngm3741/bean-beacon-services/api/internal/public/application"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// pinger is the part of *mongo.Client the health check needs.
type pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Server は HTTP サーバーのライフサイクルを管理し、各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	cfg      config.Config
	client   *mongo.Client
	health   pinger
	tokens   tokenParser
	geoCache *cache.Cache[[]domain.ExternalCandidate]

	cafeQueryService publicapp.CafeQueryService
	ratingService    publicapp.RatingService
	favoriteService  publicapp.FavoriteService
	accountService   accountapp.AccountService
}

// New は Config と Mongo クライアントを受け取り、アプリケーションサービスとハンドラを組み立てた Server を返す。
func New(cfg config.Config, client *mongo.Client) (*Server, error) {
	tokens, err := jwtauth.NewManager(jwtauth.Config{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Audience: cfg.Auth.JWTAudience,
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)
	names := cfg.Mongo.Collections
	cafeRepo := mongodoc.NewCafeRepository(db, names.Cafes)
	ratingRepo := mongodoc.NewRatingRepository(db, names.Ratings)
	favoriteRepo := mongodoc.NewFavoriteRepository(db, names.Favorites)
	userRepo := mongodoc.NewUserRepository(db, names.Users)

	geoCache := cache.New[[]domain.ExternalCandidate](cfg.Overpass.CacheTTL, 5*time.Minute)
	overpassClient := overpass.NewClient(overpass.Config{
		Endpoint:          cfg.Overpass.Endpoint,
		Timeout:           cfg.Overpass.Timeout,
		UserAgent:         cfg.Overpass.UserAgent,
		RequestsPerSecond: cfg.Overpass.RequestsPerSecond,
		Burst:             cfg.Overpass.Burst,
		BreakerFailures:   cfg.Overpass.BreakerFailures,
		BreakerCooldown:   cfg.Overpass.BreakerCooldown,
	})
	source := overpass.NewSource(overpassClient, geoCache)

	return &Server{
		cfg:              cfg,
		client:           client,
		health:           client,
		tokens:           tokens,
		geoCache:         geoCache,
		cafeQueryService: publicapp.NewCafeQueryService(cafeRepo, source),
		ratingService:    publicapp.NewRatingService(ratingRepo, cafeRepo),
		favoriteService:  publicapp.NewFavoriteService(favoriteRepo, cafeRepo),
		accountService:   accountapp.NewAccountService(userRepo, tokens, 0),
	}, nil
}

// Routes はミドルウェアと全ルートを組み立てたルータを返す。
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(middleware.RealIP)
	router.Use(accessLog)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(w, http.StatusNotFound, common.Envelope{Success: false, Error: "Route not found"})
	})

	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthHandler())

		requireAuth := authMiddleware(s.tokens, true)
		optionalAuth := authMiddleware(s.tokens, false)

		r.Group(func(r chi.Router) {
			if s.cfg.Server.RateLimitRequests > 0 {
				r.Use(httprate.LimitByIP(s.cfg.Server.RateLimitRequests, s.cfg.Server.RateLimitWindow))
			}
			accounthttp.NewHandler(accounthttp.Config{Accounts: s.accountService}).Register(r, requireAuth)
			publichttp.NewHandler(publichttp.Config{
				Cafes:     s.cafeQueryService,
				Ratings:   s.ratingService,
				Favorites: s.favoriteService,
			}).Register(r, requireAuth, optionalAuth)
		})
	})
	return router
}

// Run はHTTPサーバーを起動し、シグナル受信で graceful shutdown する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.cfg.Server.Addr).Msg("HTTP サーバー起動")
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// healthHandler は MongoDB への疎通確認を行い、監視系からのヘルスチェック要求に応える。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.health.Ping(ctx, readpref.Primary()); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("health check ping failed")
			common.WriteJSON(w, http.StatusServiceUnavailable, common.Envelope{Success: false, Error: "database unavailable"})
			return
		}
		common.WriteMessage(w, http.StatusOK, "Bean Beacon API is running")
	}
}

// shutdown はキャッシュを止め、MongoDB クライアントをタイムアウト付きで切断する。
func (s *Server) shutdown(ctx context.Context) {
	if s.geoCache != nil {
		s.geoCache.Close()
	}
	if s.client == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("MongoDB 切断時にエラー")
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server exited: %w", err)
		}
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("シグナルを受信。サーバー停止処理を開始します。")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("サーバー停止時にエラー")
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
