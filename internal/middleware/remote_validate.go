package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/projectcancer/internal/logger"
	"github.com/projectcancer/internal/service"
)

// RemoteValidate: та же проверка bearer-токена для других сервисов: заголовок Authorization
// пересылается в POST {authServiceURL}/internal/validate. Статус 401/403 auth-сервиса
// возвращается клиенту как есть; недоступный auth-сервис — 500.
func RemoteValidate(authServiceURL string, client *http.Client) func(http.Handler) http.Handler {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	endpoint := strings.TrimSuffix(authServiceURL, "/") + "/internal/validate"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := BearerToken(r)
			if bearer == "" {
				writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
				return
			}
			req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, endpoint, nil)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			req.Header.Set("Authorization", "Bearer "+bearer)
			resp, err := client.Do(req)
			if err != nil {
				logger.Errorf("remote validate: %v", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
			case http.StatusUnauthorized, http.StatusForbidden:
				writeError(w, resp.StatusCode, http.StatusText(resp.StatusCode))
				return
			default:
				logger.Errorf("remote validate: auth service status %d", resp.StatusCode)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			var id service.Identity
			if err := json.NewDecoder(resp.Body).Decode(&id); err != nil || id.ClientID == "" {
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			id.AccessToken = bearer
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), &id)))
		})
	}
}
