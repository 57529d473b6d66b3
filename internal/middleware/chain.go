package middleware

import "net/http"

// Chain wraps h with the given middleware so that the first one listed
// is the outermost, i.e. the first to see each request.
//
// Example:
//
//	handler := Chain(mux,
//	    CORS(origins),     // Executes first
//	    RequestLogging,    // Executes second
//	    Auth(auth, users), // Executes third
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
