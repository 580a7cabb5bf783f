package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/projectcancer/internal/logger"
)

// RequestLog логирует method, path, статус и время выполнения (асинхронно, не блокирует).
// Медленные запросы и ответы 5xx пишутся всегда, остальные — на уровне debug.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status >= http.StatusInternalServerError {
			logger.Errorf("http %s %s status=%d duration_ms=%d", r.Method, r.URL.Path, status, time.Since(start).Milliseconds())
			return
		}
		logger.LogDuration("http "+r.Method+" "+r.URL.Path+" "+http.StatusText(status), start)
	})
}
