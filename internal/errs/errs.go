// Package errs declares the error kinds shared across gutensearch's
// services and the HTTP status mapping for them.
package errs

import (
	"errors"
	"net/http"
)

// Sentinel errors for each error kind. Callers wrap these with fmt.Errorf's
// %w verb so errors.Is still matches the kind after context is added,
// e.g. fmt.Errorf("empty body section: %w", ErrBookFormat).
var (
	ErrConfigMissing     = errors.New("required configuration option is missing")
	ErrConfigInvalid     = errors.New("configuration option could not be parsed")
	ErrTransport         = errors.New("upstream transport error")
	ErrNotFound          = errors.New("not found")
	ErrBookFormat        = errors.New("book format invalid")
	ErrIO                = errors.New("local I/O error")
	ErrIndexingConflict  = errors.New("book already indexed")
	ErrClusterError      = errors.New("cluster state operation failed")
	ErrQueueError        = errors.New("message queue unavailable")
	ErrBadRequest        = errors.New("bad request")
	ErrReplicationFailed = errors.New("replication failed on every candidate peer")
	ErrNoReplicaTargets  = errors.New("no replication targets available")
)

// StatusErr carries an HTTP status code alongside an error chain so the HTTP
// layer can recover the right response code with errors.As, regardless of
// how deeply the sentinel was wrapped.
type StatusErr int

func (s StatusErr) Error() string {
	return http.StatusText(int(s))
}

// Status returns the HTTP status code this error should be reported as.
func (s StatusErr) Status() int {
	return int(s)
}

// Wrap joins err with the StatusErr for status, so errors.As(result, new(StatusErr))
// recovers status at the HTTP boundary.
func Wrap(err error, status int) error {
	if err == nil {
		return nil
	}
	return errors.Join(err, StatusErr(status))
}

// Status maps an error kind to the HTTP status code it should be reported as.
// Errors not recognized here map to 500.
func Status(err error) int {
	var s StatusErr
	if errors.As(err, &s) {
		return s.Status()
	}

	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrConfigInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBookFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
