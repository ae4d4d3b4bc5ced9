package middleware

import "net/http"

// NewMaxBodySizeHandler returns a middleware that limits incoming request
// bodies to limit bytes. The cap protects the bulk-scan endpoints, whose
// EPC lists come straight from handheld readers and should never be more
// than a few kilobytes.
//
// The limit is enforced lazily via http.MaxBytesReader: the JSON decoder
// downstream hits the limit while reading and surfaces it as a decode
// error, which handlers map to a 4xx response.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
