package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader carries the token both ways: every response exposes the
// current token in it, and mutating requests must echo it back.
const CSRFTokenHeader = "X-CSRF-Token"

// CSRFMiddleware creates a Gin middleware for CSRF protection. Safe methods
// (GET, HEAD, OPTIONS, TRACE) pass through untouched and their responses
// carry the token a client needs for subsequent mutations. A rejected
// request aborts the chain; no handler runs.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			w.Header().Set(CSRFTokenHeader, csrf.Token(r))
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)

		// The error handler already wrote the 403; abort so the route
		// handler never runs on a rejected request.
		if !passed {
			c.Abort()
		}
	}
}

// csrfErrorHandler reports CSRF validation failures. The API is JSON-only.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}
