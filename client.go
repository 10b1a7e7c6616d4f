package r2r

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kailas-cloud/r2r/internal/transport/httpapi"
)

// Client is the R2R SDK entry point. It is immutable after New and safe for
// concurrent use; every call builds and owns its own request and response.
type Client struct {
	api *httpapi.Dispatcher
	fs  FileSystem
	obs *observer
}

// New creates a Client for the service at baseURL (e.g. "http://localhost:8000").
// The API prefix (default "/v1") is appended.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		prefix: DefaultPrefix,
		fs:     OSFileSystem{},
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("r2r: base URL %q must be absolute: %w", baseURL, ErrInvalidArgument)
	}

	doer := cfg.doer
	if doer == nil {
		doer = httpapi.NewHTTPClient(cfg.timeout)
	}
	if cfg.fs == nil {
		cfg.fs = NoFileSystem{}
	}

	obs, err := newObserver(cfg)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(baseURL, "/") + normalizePrefix(cfg.prefix)
	return &Client{
		api: httpapi.New(endpoint, doer, cfg.header),
		fs:  cfg.fs,
		obs: obs,
	}, nil
}

// BaseURL returns the endpoint requests are sent to, prefix included.
func (c *Client) BaseURL() string { return c.api.BaseURL() }

// Close releases idle connections of the default transport.
func (c *Client) Close() {
	if c.api == nil {
		return
	}
	if cl, ok := c.api.Doer().(interface{ CloseIdleConnections() }); ok {
		cl.CloseIdleConnections()
	}
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
