package queue

import (
	"fmt"
	"net/url"

	"github.com/mterris/gutensearch/internal/errs"
)

// parseBrokerURL splits a "tcp://host:port" broker URL into the network and
// address stomp.Dial expects.
func parseBrokerURL(brokerURL string) (network, addr string, err error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing broker url %q: %w", brokerURL, errs.ErrConfigInvalid)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("broker url %q must be of the form tcp://host:port: %w", brokerURL, errs.ErrConfigInvalid)
	}
	return u.Scheme, u.Host, nil
}
