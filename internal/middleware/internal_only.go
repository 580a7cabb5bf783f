package middleware

import (
	"net"
	"net/http"
	"strings"
)

// InternalOnly разрешает запрос только с приватных IP или с заголовком X-Internal-Secret == secret.
// /internal/validate наружу не экспонируется; вызовы только от сервисов в той же сети.
func InternalOnly(secret string) func(http.Handler) http.Handler {
	secret = strings.TrimSpace(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" && r.Header.Get("X-Internal-Secret") == secret {
				next.ServeHTTP(w, r)
				return
			}
			if isPrivateIP(ClientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
		})
	}
}

// ClientIP: хост из RemoteAddr. Заголовки прокси сюда не читаются: их переносит в RemoteAddr
// chi middleware.RealIP, и только когда роутер настроен доверять прокси.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isPrivateIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
