// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dotnet/sdk-sub056/internal/logging"
)

const (
	// DefaultIndexURL is the public .NET release metadata index.
	DefaultIndexURL = "https://builds.dotnet.microsoft.com/dotnet/release-metadata/releases-index.json"

	// defaultUserAgent identifies dotnetup to the feed.
	defaultUserAgent = "dotnetup/dev"

	// defaultParallelism bounds concurrent per-channel requests.
	defaultParallelism = 4

	// maxJSONResponseBytes is the upper bound on a metadata response (32 MB).
	// Per-channel documents for long-lived channels run to several MB.
	maxJSONResponseBytes = 32 << 20
)

// ErrUnexpectedStatus is wrapped by StatusError.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

type (
	// StatusError reports a non-200 response.
	StatusError struct {
		URL        string
		StatusCode int
	}

	// Client reads the .NET release metadata feed over HTTP.
	Client struct {
		httpClient  *http.Client
		indexURL    string
		userAgent   string
		parallelism int
		logger      *log.Logger
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Unwrap returns ErrUnexpectedStatus for errors.Is() compatibility.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithIndexURL overrides the releases-index.json location.
func WithIndexURL(u string) ClientOption {
	return func(cl *Client) {
		cl.indexURL = u
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithParallelism bounds concurrent channel requests. Values below 1 are ignored.
func WithParallelism(n int) ClientOption {
	return func(cl *Client) {
		if n > 0 {
			cl.parallelism = n
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a Client with defaults: DefaultIndexURL,
// http.DefaultClient and four concurrent channel requests.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  http.DefaultClient,
		indexURL:    DefaultIndexURL,
		userAgent:   defaultUserAgent,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// Index implements Provider.
func (c *Client) Index(ctx context.Context) (*Index, error) {
	cat, err := c.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Index(), nil
}

// Catalog fetches the index and every channel document it lists.
func (c *Client) Catalog(ctx context.Context) (*Catalog, error) {
	docs, err := c.Channels(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(docs...)
}

// Channels fetches releases-index.json, then every per-channel
// releases.json concurrently. The result keeps index order.
func (c *Client) Channels(ctx context.Context) ([]ChannelDocument, error) {
	var idx IndexDocument
	if err := c.getJSON(ctx, c.indexURL, &idx); err != nil {
		return nil, fmt.Errorf("fetching release index: %w", err)
	}

	for _, ch := range idx.Channels {
		if ch.ReleasesJSON == "" {
			return nil, fmt.Errorf("%w: channel %s has no releases.json", ErrMalformedFeed, ch.ChannelVersion)
		}
	}

	docs := make([]ChannelDocument, len(idx.Channels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, ch := range idx.Channels {
		g.Go(func() error {
			if err := c.getJSON(gctx, c.resolve(ch.ReleasesJSON), &docs[i]); err != nil {
				return fmt.Errorf("fetching channel %s: %w", ch.ChannelVersion, err)
			}
			if docs[i].ReleaseType == "" {
				docs[i].ReleaseType = ch.ReleaseType
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched release feed", "channels", len(docs), "index", redactURL(c.indexURL))
	return docs, nil
}

// Download streams the file at fileURL into w.
func (c *Client) Download(ctx context.Context, fileURL string, w io.Writer) (int64, error) {
	resp, err := c.get(ctx, fileURL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("downloading %s: %w", redactURL(fileURL), err)
	}
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, u string, dst any) error {
	resp, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body
	return decodeJSON(io.LimitReader(resp.Body, maxJSONResponseBytes), dst)
}

// get performs a GET and returns the response only for status 200.
func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("GET", "url", redactURL(u))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", redactURL(u), err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: redactURL(u), StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// resolve makes ref absolute against the index URL, so test servers and
// mirrors can publish relative channel links.
func (c *Client) resolve(ref string) string {
	base, err := url.Parse(c.indexURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages, preventing accidental exposure of SAS tokens.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "?")
}
