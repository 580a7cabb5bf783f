package handler

import "net/http"

// Info: GET /v1.
func Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "Welcome to Project Cancer API",
		"status":  "success",
		"version": "v1.0",
		"message": "This is a simple REST API service for Project Cancer.",
	})
}

// NotFound: JSON 404 для неизвестных маршрутов.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":   "Not Found",
		"message": "The route " + r.URL.Path + " does not exist",
	})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
