package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/projectcancer/internal/logger"
	"github.com/projectcancer/internal/service"
)

// Validator: проверка bearer-токена; реализует service.SessionManager.
type Validator interface {
	Validate(ctx context.Context, bearer string) (*service.Identity, error)
}

// BearerToken достаёт токен из "Authorization: Bearer <token>". Схема без учёта регистра.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// BearerAuth пропускает запрос дальше только с действующим access-токеном.
// Нет токена — 401, токен недействителен или отозван — 403, ошибка хранилища — 500.
func BearerAuth(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Validate(r.Context(), BearerToken(r))
			if err != nil {
				status := StatusFor(err)
				if status == http.StatusInternalServerError {
					logger.Errorf("bearer auth %s %s: %v", r.Method, r.URL.Path, err)
				}
				writeError(w, status, http.StatusText(status))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// StatusFor переводит ошибку проверки в HTTP-статус.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
