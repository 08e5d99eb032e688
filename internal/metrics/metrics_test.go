package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePattern(t *testing.T) {
	cases := map[string]string{
		"/search":             "/search",
		"/index/update/{id}":  "/index/update/",
		"/books/":             "/books",
		"":                    "/",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizePattern(in), "normalizePattern(%q)", in)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	reg := New()
	require.NotNil(t, reg.Prometheus())

	handler := reg.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusTeapot, w.Code)
}
