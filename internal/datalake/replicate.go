package datalake

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mterris/gutensearch/internal/errs"
)

// Replicator copies a freshly saved book to exactly one peer before the
// indexing job is published.
type Replicator struct {
	self     string
	port     int
	endpoint string
	client   *http.Client
}

// NewReplicator builds a Replicator. self is this node's address as it
// appears in the cluster member list, used to exclude itself as a
// replication target. port is the peer's receiver port and endpoint its
// receiver path.
func NewReplicator(self string, port int, endpoint string, timeout time.Duration) *Replicator {
	return &Replicator{
		self:     self,
		port:     port,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Replicate sends id's raw content to exactly one peer chosen from members
// (excluding self), trying candidates in a pseudo-random order until one
// responds 2xx. title is sent best-effort and is not required for the
// receiver to succeed.
func (r *Replicator) Replicate(ctx context.Context, members []string, id int64, title, raw string) error {
	candidates := r.candidates(members)
	if len(candidates) == 0 {
		return fmt.Errorf("replicating book %d: %w", id, errs.ErrNoReplicaTargets)
	}

	rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	var lastErr error
	for _, peer := range candidates {
		if err := r.attempt(ctx, peer, id, title, raw); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("replicating book %d to any of %d peers: %w: %v", id, len(candidates), errs.ErrReplicationFailed, lastErr)
}

func (r *Replicator) candidates(members []string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == r.self {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *Replicator) attempt(ctx context.Context, peer string, id int64, title, raw string) error {
	host, _, err := net.SplitHostPort(peer)
	if err != nil {
		host = peer
	}
	url := fmt.Sprintf("http://%s:%d%s", host, r.port, r.endpoint)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := w.WriteField("bookId", strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("encoding bookId field: %w", err)
	}
	if title != "" {
		_ = w.WriteField("title", title) // Best-effort; receiver re-extracts metadata anyway.
	}
	part, err := w.CreateFormFile("file", fmt.Sprintf("%d.txt", id))
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write([]byte(raw)); err != nil {
		return fmt.Errorf("writing file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", peer, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d", peer, resp.StatusCode)
	}
	return nil
}
