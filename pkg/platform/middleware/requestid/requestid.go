// Package requestid assigns each inbound request a correlation ID.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"tradepost/pkg/requestcontext"
)

// Header is the wire header carrying the request ID. An inbound value from a
// trusted proxy is reused; otherwise a fresh UUID is generated.
const Header = "X-Request-ID"

// Middleware stores the request ID in the context and echoes it on the
// response so clients can quote it in support requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
