package gutenberg

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "gutensearch-ingestor/1.0"

// throttledTransport rate limits outbound requests.
type throttledTransport struct {
	http.RoundTripper
	limiter *rate.Limiter
}

func (t throttledTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(r.Context()); err != nil {
		return nil, err
	}
	return t.RoundTripper.RoundTrip(r)
}

// userAgentTransport sets a fixed User-Agent on every outbound request.
type userAgentTransport struct {
	http.RoundTripper
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", userAgent)
	return t.RoundTripper.RoundTrip(r)
}

// newClient builds the http.Client used for Gutenberg downloads: rate
// limited, fixed user agent, explicit timeout.
func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: throttledTransport{
			limiter: rate.NewLimiter(rate.Every(time.Second/5), 2),
			RoundTripper: userAgentTransport{
				RoundTripper: http.DefaultTransport,
			},
		},
	}
}
