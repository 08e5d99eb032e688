// Package logging provides the structured, context-scoped logger used by
// every gutensearch service, keyed off the inbound request ID so every
// line from a request can be correlated.
package logging

import (
	"context"
	"os"

	charm "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
)

var handler = charm.NewWithOptions(os.Stderr, charm.Options{
	ReportCaller:    false,
	ReportTimestamp: true,
	Level:           charm.InfoLevel,
})

func init() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		handler.SetColorProfile(0)
	}
}

// SetVerbose raises the log level to Debug when the -verbose flag is set.
func SetVerbose(verbose bool) {
	if verbose {
		handler.SetLevel(charm.DebugLevel)
	}
}

// Log returns the logger for ctx, tagging every line with the inbound
// request ID when one is present (chi's middleware.RequestIDKey), or a
// synthetic ID set with WithComponent for background work (the queue
// consumer uses "consumer").
func Log(ctx context.Context) *charm.Logger {
	id, _ := ctx.Value(middleware.RequestIDKey).(string)
	if id == "" {
		return handler
	}
	return handler.With("req", id)
}

// WithComponent tags ctx so subsequent Log(ctx) calls carry a component name
// instead of an HTTP request ID. Used by long-running background loops.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, middleware.RequestIDKey, component)
}
