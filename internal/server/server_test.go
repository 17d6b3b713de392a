package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	accountdomain "github.com/sngm3741/bean-beacon-services/api/internal/account/domain"
	"github.com/sngm3741/bean-beacon-services/api/internal/config"
	"github.com/sngm3741/bean-beacon-services/api/internal/infrastructure/jwtauth"
	"github.com/sngm3741/bean-beacon-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context, *readpref.ReadPref) error { return p.err }

func newTestServer(t *testing.T, ping error) (*Server, *jwtauth.Manager) {
	t.Helper()
	tokens, err := jwtauth.NewManager(jwtauth.Config{Secret: []byte("test-secret"), Issuer: "bean-beacon-api"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	cfg := config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	return &Server{cfg: cfg, health: stubPinger{err: ping}, tokens: tokens}, tokens
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) common.Envelope {
	t.Helper()
	var env common.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Bean Beacon API is running" {
		t.Errorf("envelope = %+v", env)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	srv, _ := newTestServer(t, errors.New("no primary"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success {
		t.Errorf("success = true, want false")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != "Route not found" {
		t.Errorf("error = %q", env.Error)
	}
}

func TestMeRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != "no token provided" {
		t.Errorf("error = %q", env.Error)
	}
}

func TestRequestIDIsReused(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" {
		t.Errorf("context request id = %q, want abc-123", seen)
	}
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("header = %q, want abc-123", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, tokens := newTestServer(t, nil)
	token, _, err := tokens.Issue(accountdomain.User{ID: "64b000000000000000000001", Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(user.ID))
	})

	cases := []struct {
		name     string
		required bool
		header   string
		want     int
		body     string
	}{
		{"required valid", true, "Bearer " + token, http.StatusOK, "64b000000000000000000001"},
		{"required missing", true, "", http.StatusUnauthorized, ""},
		{"required not bearer", true, "Basic abc", http.StatusUnauthorized, ""},
		{"required garbage", true, "Bearer garbage", http.StatusUnauthorized, ""},
		{"optional missing", false, "", http.StatusNoContent, ""},
		{"optional garbage", false, "Bearer garbage", http.StatusNoContent, ""},
		{"optional valid", false, "Bearer " + token, http.StatusOK, "64b000000000000000000001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			authMiddleware(tokens, tc.required)(echo).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.body != "" && !strings.Contains(rec.Body.String(), tc.body) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tc.body)
			}
		})
	}
}

func TestShutdownWithoutClient(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	done := make(chan struct{})
	go func() {
		srv.shutdown(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return")
	}
}
