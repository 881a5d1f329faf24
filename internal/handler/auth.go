package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hams/portal-server-go/internal/audit"
	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/middleware"
	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/session"
	"github.com/hams/portal-server-go/internal/upstream"
	"github.com/hams/portal-server-go/internal/util"
)

type AuthHandler struct {
	upstream *upstream.Client
	manager  *session.Manager
	sessions *middleware.SessionMiddleware
}

func NewAuthHandler(up *upstream.Client, manager *session.Manager, sessions *middleware.SessionMiddleware) *AuthHandler {
	return &AuthHandler{upstream: up, manager: manager, sessions: sessions}
}

func (h *AuthHandler) Routes(loginLimiter *middleware.LoginRateLimiter) chi.Router {
	r := chi.NewRouter()

	r.With(loginLimiter.Handler).Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.SessionStatus)

	return r
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is the portal tab the user logged in from. A hint only; the
	// role claim inside the issued token is the authority.
	Role string `json:"role,omitempty"`
}

type sessionView struct {
	State          model.SessionState `json:"state"`
	Role           model.Role         `json:"role,omitempty"`
	UserID         string             `json:"userId,omitempty"`
	Email          string             `json:"email,omitempty"`
	ExpiresAt      int64              `json:"expiresAt,omitempty"`
	SessionExpired bool               `json:"sessionExpired,omitempty"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeError(w, apperrors.MissingRequired("email and password"))
		return
	}
	if !util.IsValidEmail(payload.Email) {
		writeError(w, apperrors.InvalidInput("email", "not a valid address"))
		return
	}

	token, err := h.upstream.Login(r.Context(), payload.Email, payload.Password, model.Role(payload.Role))
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		writeError(w, err)
		return
	}

	cookieValue, err := h.sessions.SetSessionCookie(w)
	if err != nil {
		writeError(w, apperrors.Internal("Failed to establish session"))
		return
	}

	sess, err := h.manager.Login(r.Context(), h.sessions.SessionKey(cookieValue), token)
	if err != nil {
		h.sessions.ClearSessionCookie(w)
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		writeError(w, err)
		return
	}

	if payload.Role != "" && payload.Role != string(sess.Role) {
		log.Warn().Str("asserted", payload.Role).Str("actual", string(sess.Role)).
			Msg("login role hint does not match token role claim")
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLoginSuccess,
		SubjectID: sess.SubjectID,
		Role:      string(sess.Role),
	})

	writeJSON(w, http.StatusOK, sessionView{
		State:     model.SessionAuthenticated,
		Role:      sess.Role,
		UserID:    sess.SubjectID,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt.Unix(),
	})
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterPatientRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.Email == "" || payload.Password == "" || payload.Name == "" {
		writeError(w, apperrors.MissingRequired("name, email and password"))
		return
	}
	if !util.IsValidEmail(payload.Email) {
		writeError(w, apperrors.InvalidInput("email", "not a valid address"))
		return
	}

	if err := h.upstream.RegisterPatient(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventRegister})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	key := h.sessions.KeyFromRequest(r)
	if key != "" {
		if err := h.manager.Logout(r.Context(), key); err != nil {
			log.Error().Err(err).Msg("logout: failed to discard credential")
		}
	}
	h.sessions.ClearSessionCookie(w)
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GET /api/auth/session
//
// Called by the portal pages on load to restore state. An expired session
// is reported exactly once, then collapses to logged out.
func (h *AuthHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	key := h.sessions.KeyFromRequest(r)
	if key == "" {
		writeJSON(w, http.StatusOK, sessionView{State: model.SessionLoggedOut})
		return
	}

	sess, state, err := h.manager.Restore(r.Context(), key)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeCorruptSession) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventSessionCorrupt})
			h.sessions.ClearSessionCookie(w)
			writeError(w, err)
			return
		}
		writeError(w, err)
		return
	}

	switch state {
	case model.SessionAuthenticated:
		writeJSON(w, http.StatusOK, sessionView{
			State:     model.SessionAuthenticated,
			Role:      sess.Role,
			UserID:    sess.SubjectID,
			Email:     sess.Email,
			ExpiresAt: sess.ExpiresAt.Unix(),
		})
	case model.SessionExpired:
		expired := h.manager.ConsumeExpiredNotice(key)
		if expired {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventSessionExpired})
			h.sessions.ClearSessionCookie(w)
		}
		writeJSON(w, http.StatusOK, sessionView{
			State:          model.SessionExpired,
			SessionExpired: expired,
		})
	default:
		writeJSON(w, http.StatusOK, sessionView{State: model.SessionLoggedOut})
	}
}
