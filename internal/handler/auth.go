package handler

import (
	"errors"
	"net/http"

	"github.com/projectcancer/internal/middleware"
	"github.com/projectcancer/internal/model"
	"github.com/projectcancer/internal/service"
)

type AuthHandler struct {
	sessions *service.SessionManager
	signups  *service.SignupService
}

func NewAuthHandler(sessions *service.SessionManager, signups *service.SignupService) *AuthHandler {
	return &AuthHandler{sessions: sessions, signups: signups}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	Message string `json:"message"`
	*service.LoginResult
}

type signupResponse struct {
	Message string             `json:"message"`
	User    model.ClientPublic `json:"user"`
}

type meResponse struct {
	ID             string              `json:"id"`
	Email          string              `json:"email"`
	ActiveSessions int                 `json:"active_sessions"`
	User           *model.ClientPublic `json:"user"`
}

// Signup: POST /v1/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.signups.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, signupResponse{Message: "User registered successfully", User: c.ToPublic()})
}

// Login: POST /v1/auth/login. Access-токен дублируется в заголовке Authorization.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx := service.WithClientIP(r.Context(), middleware.ClientIP(r))
	res, err := h.sessions.Login(ctx, req.Username, req.Password)
	if errors.Is(err, service.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+res.AccessToken)
	writeJSON(w, http.StatusOK, loginResponse{Message: "User logged in successfully", LoginResult: res})
}

// Refresh: POST /v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	access, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": access})
}

// Logout: DELETE /v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.sessions.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User logged out successfully"})
}

// Me: GET /v1/auth/me, за BearerAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.sessions.Profile(r.Context(), id.ClientID)
	if err != nil {
		writeServiceError(w, "me", err)
		return
	}
	n, err := h.sessions.ActiveSessions(r.Context(), id.ClientID)
	if err != nil {
		writeServiceError(w, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{ID: id.ClientID, Email: id.Email, ActiveSessions: n, User: user})
}

// ValidateInternal: POST /internal/validate для других сервисов (middleware.RemoteValidate).
// Токен берётся из заголовка Authorization вызывающего запроса.
func (h *AuthHandler) ValidateInternal(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.Validate(r.Context(), middleware.BearerToken(r))
	if err != nil {
		writeServiceError(w, "validate", err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}
