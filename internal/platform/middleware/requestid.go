// Package middleware holds the platform HTTP middleware shared by every
// route.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"creditline/pkg/requestcontext"
)

// HeaderRequestID is the header carrying the correlation identifier.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns each request a correlation identifier. An inbound
// X-Request-ID is honored so upstream gateways can trace across services;
// otherwise a fresh UUID is generated. The identifier is stored in the
// context and echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
