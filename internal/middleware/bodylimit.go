package middleware

import "net/http"

// MaxBodySize caps the request body at n bytes. Reading past the cap fails
// with *http.MaxBytesError, which the handlers turn into 413.
//
// Multipart uploads set their own, larger limit in the photo handler, so
// this is mounted on the JSON routes only.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
