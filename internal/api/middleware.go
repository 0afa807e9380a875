package api

import (
	"log"
	"net/http"

	"github.com/google/uuid"
)

// RequestLogger tags each request with an id and logs method and path.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		log.Printf("%s %s %s", requestID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
