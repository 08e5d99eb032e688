package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/stampede"
	"github.com/klauspost/compress/gzhttp"

	"github.com/mterris/gutensearch/internal/logging"
)

// requestLogger logs each request at Info, scoped to chi's RequestID so
// concurrent requests don't interleave in the log stream.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.Log(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// gzipMiddleware compresses bulk JSON responses (search/books listings).
var gzipMiddleware = func() func(http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper()
	if err != nil {
		panic(err)
	}
	return wrap
}()

// coalesceGET deduplicates identical concurrent GET requests (e.g. a burst
// of the same /search?q=... query) at the HTTP layer.
func coalesceGET() func(http.Handler) http.Handler {
	return stampede.Handler(512, time.Second)
}

// Chain returns the common middleware stack shared by every service role:
// request size limits, slash redirection, request IDs, panic recovery,
// structured logging, and response compression.
func Chain() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.RedirectSlashes,
		middleware.RequestSize(1 << 20),
		requestLogger,
		gzipMiddleware,
	}
}
