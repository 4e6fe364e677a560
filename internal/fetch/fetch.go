// Package fetch downloads structures by PDB id.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/msalah0e/pdbview/internal/cache"
)

const (
	// DefaultEndpoint is the RCSB download URL template.
	DefaultEndpoint = "https://files.rcsb.org/download/%s.pdb"
	// DefaultTimeout bounds a shared request when the HTTP client has none.
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrInvalidID is returned when the server does not answer 2xx for an id.
	ErrInvalidID = errors.New("invalid ID")
	// ErrEmptyID is returned for a blank id.
	ErrEmptyID = errors.New("empty PDB ID")
)

// Client fetches structure text. The zero value uses DefaultEndpoint and
// http.DefaultClient with no cache.
type Client struct {
	Endpoint string
	HTTP     *http.Client
	Cache    *cache.Cache
	Log      *zap.Logger

	group singleflight.Group
}

// New returns a Client with the given endpoint template and timeout. A nil
// c disables caching.
func New(endpoint string, timeout time.Duration, c *cache.Cache) *Client {
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
		Cache:    c,
		Log:      zap.NewNop(),
	}
}

// Normalize trims and lower-cases an id.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// URL returns the download URL for id.
func (c *Client) URL(id string) string {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return fmt.Sprintf(endpoint, Normalize(id))
}

// Fetch returns the structure text for id. Concurrent calls for the same id
// share one request, which is not tied to any single caller: a caller whose
// ctx ends stops waiting, and the others still get the result. Failures are
// not retried.
func (c *Client) Fetch(ctx context.Context, id string) (string, error) {
	id = Normalize(id)
	if id == "" {
		return "", ErrEmptyID
	}
	if c.Cache != nil {
		if text, ok := c.Cache.Get(id); ok {
			return text, nil
		}
	}

	ch := c.group.DoChan(id, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()
		text, err := c.get(shared, id)
		if err != nil {
			return "", err
		}
		c.store(id, text)
		return text, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("fetch %s: %w", id, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (c *Client) store(id, text string) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Put(id, text); err != nil {
		c.logger().Warn("cache write failed", zap.String("id", id), zap.String("dir", c.Cache.Dir), zap.Error(err))
	}
}

func (c *Client) timeout() time.Duration {
	if c.HTTP != nil && c.HTTP.Timeout > 0 {
		return c.HTTP.Timeout
	}
	return DefaultTimeout
}

func (c *Client) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Client) get(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(id), nil)
	if err != nil {
		return "", err
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s (HTTP %d)", ErrInvalidID, id, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", id, err)
	}
	return string(body), nil
}
