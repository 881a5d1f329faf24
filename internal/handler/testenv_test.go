package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/hams/portal-server-go/internal/config"
	"github.com/hams/portal-server-go/internal/middleware"
	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/repository"
	"github.com/hams/portal-server-go/internal/session"
	"github.com/hams/portal-server-go/internal/upstream"
)

const testSessionSecret = "test-secret-0123456789abcdef0123456789abcdef"

// testEnv wires the real session manager, middleware and handlers against
// a stubbed hospital backend.
type testEnv struct {
	router   *chi.Mux
	manager  *session.Manager
	sessions *middleware.SessionMiddleware
	store    *repository.MemoryCredentialRepository
	cfg      *config.Config
}

func newTestEnv(t *testing.T, backend http.Handler) *testEnv {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		UserServiceURL:          srv.URL,
		DoctorServiceURL:        srv.URL,
		NotificationServiceURL:  srv.URL,
		SessionSecret:           testSessionSecret,
		BookingWindowDays:       14,
		UpstreamTimeoutSeconds:  5,
		LoginRateLimitPerMinute: 100,
	}

	store := repository.NewMemoryCredentialRepository()
	manager := session.NewManager(store)
	t.Cleanup(manager.Close)

	sessions := middleware.NewSessionMiddleware(manager, cfg.SessionSecret, false)
	up := upstream.NewClient(cfg)

	loginLimiter := middleware.NewLoginRateLimiter(nil, cfg.LoginRateLimitPerMinute, time.Minute)

	r := chi.NewRouter()
	r.Mount("/api/auth", NewAuthHandler(up, manager, sessions).Routes(loginLimiter))
	r.Route("/api/patient", func(r chi.Router) {
		r.Use(sessions.Handler)
		r.Use(middleware.RequireRole(model.RolePatient))
		r.Mount("/", NewPatientHandler(up, cfg).Routes())
	})
	r.Route("/api/doctor", func(r chi.Router) {
		r.Use(sessions.Handler)
		r.Use(middleware.RequireRole(model.RoleDoctor))
		r.Mount("/", NewDoctorHandler(up, cfg).Routes())
	})
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(sessions.Handler)
		r.Mount("/", NewNotificationHandler(up).Routes())
	})

	return &testEnv{router: r, manager: manager, sessions: sessions, store: store, cfg: cfg}
}

func signToken(t *testing.T, userID, role string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID + "@example.com",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	raw, err := tok.SignedString([]byte("remote-key"))
	require.NoError(t, err)
	return raw
}

// authenticate establishes a live session directly through the manager and
// returns the cookie to attach to requests.
func (e *testEnv) authenticate(t *testing.T, userID, role string) *http.Cookie {
	t.Helper()
	cookieValue := "test-cookie-" + userID
	_, err := e.manager.Login(context.Background(), e.sessions.SessionKey(cookieValue),
		signToken(t, userID, role, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: cookieValue}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
