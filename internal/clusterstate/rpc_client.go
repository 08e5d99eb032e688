package clusterstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/gutenberg"
)

// rpcClient calls another node's rpcServer over plain net/http.
type rpcClient struct {
	http *http.Client
}

func newRPCClient(timeout time.Duration) *rpcClient {
	return &rpcClient{http: &http.Client{Timeout: timeout}}
}

func (c *rpcClient) do(ctx context.Context, method, addr, path string, body, out any) error {
	var reqBody io.Reader
	hasBody := body != nil
	if hasBody {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding rpc request: %w", errs.ErrClusterError)
		}
		reqBody = bytes.NewReader(b)
	}

	url := fmt.Sprintf("http://%s%s", addr, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("building rpc request: %w", errs.ErrClusterError)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, errs.ErrClusterError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return errs.ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("rpc %s returned %d: %w", url, resp.StatusCode, errs.ErrClusterError)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding rpc response: %w", errs.ErrClusterError)
		}
	}
	return nil
}

func (c *rpcClient) getMetadata(ctx context.Context, addr string, id int64) (gutenberg.Metadata, bool, error) {
	var m gutenberg.Metadata
	err := c.do(ctx, http.MethodGet, addr, fmt.Sprintf("/internal/map/get/%d", id), nil, &m)
	if err != nil {
		if err == errs.ErrNotFound {
			return gutenberg.Metadata{}, false, nil
		}
		return gutenberg.Metadata{}, false, err
	}
	return m, true, nil
}

func (c *rpcClient) putMetadata(ctx context.Context, addr string, id int64, m gutenberg.Metadata) error {
	return c.do(ctx, http.MethodPut, addr, fmt.Sprintf("/internal/map/put/%d", id), m, nil)
}

func (c *rpcClient) containsKey(ctx context.Context, addr string, id int64) (bool, error) {
	var ok bool
	err := c.do(ctx, http.MethodGet, addr, fmt.Sprintf("/internal/map/containsKey/%d", id), nil, &ok)
	return ok, err
}

func (c *rpcClient) size(ctx context.Context, addr string) (int, error) {
	var n int
	err := c.do(ctx, http.MethodGet, addr, "/internal/map/size", nil, &n)
	return n, err
}

func (c *rpcClient) values(ctx context.Context, addr string) ([]gutenberg.Metadata, error) {
	var vs []gutenberg.Metadata
	err := c.do(ctx, http.MethodGet, addr, "/internal/map/values", nil, &vs)
	return vs, err
}

func (c *rpcClient) mapClear(ctx context.Context, addr string) error {
	return c.do(ctx, http.MethodPost, addr, "/internal/map/clear", nil, nil)
}

func (c *rpcClient) getPostings(ctx context.Context, addr, term string) ([]int64, error) {
	var ids []int64
	err := c.do(ctx, http.MethodGet, addr, "/internal/multimap/get/"+term, nil, &ids)
	return ids, err
}

func (c *rpcClient) putPosting(ctx context.Context, addr, term string, id int64) error {
	return c.do(ctx, http.MethodPut, addr, fmt.Sprintf("/internal/multimap/put/%s/%d", term, id), nil, nil)
}

func (c *rpcClient) containsEntry(ctx context.Context, addr, term string, id int64) (bool, error) {
	var ok bool
	err := c.do(ctx, http.MethodGet, addr, fmt.Sprintf("/internal/multimap/containsEntry/%s/%d", term, id), nil, &ok)
	return ok, err
}

func (c *rpcClient) keySet(ctx context.Context, addr string) ([]string, error) {
	var ts []string
	err := c.do(ctx, http.MethodGet, addr, "/internal/multimap/keyset", nil, &ts)
	return ts, err
}

func (c *rpcClient) multimapClear(ctx context.Context, addr string) error {
	return c.do(ctx, http.MethodPost, addr, "/internal/multimap/clear", nil, nil)
}

func (c *rpcClient) lockAcquire(ctx context.Context, addr, name string) error {
	return c.do(ctx, http.MethodPost, addr, "/internal/lock/acquire/"+name, nil, nil)
}

func (c *rpcClient) lockRelease(ctx context.Context, addr, name string) error {
	return c.do(ctx, http.MethodPost, addr, "/internal/lock/release/"+name, nil, nil)
}
