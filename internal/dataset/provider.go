package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// maxDocumentSize bounds how much of a dataset response is read.
	maxDocumentSize = 256 << 20

	DefaultFetchTimeout = 30 * time.Second
)

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Provider fetches the dataset document and caches it per source URL.
// Concurrent callers share a single request. It is safe for concurrent use.
type Provider struct {
	client  *http.Client
	log     *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	url    string
	gen    uint64
	cached *Document
	group  singleflight.Group

	fetches int
}

type ProviderOption func(*Provider)

func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.client = c }
}

func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) { p.log = l }
}

// WithFetchTimeout bounds a single document request, independent of the
// callers waiting on it.
func WithFetchTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewProvider(url string, opts ...ProviderOption) *Provider {
	p := &Provider{
		url:     url,
		client:  http.DefaultClient,
		log:     slog.Default(),
		timeout: DefaultFetchTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	p.log = p.log.With("component", "dataset")
	return p
}

// Document returns the cached document, fetching it if needed.
// The shared fetch runs detached from ctx under the provider's own timeout;
// ctx only bounds how long this caller waits.
func (p *Provider) Document(ctx context.Context) (*Document, error) {
	p.mu.Lock()
	if p.cached != nil {
		d := p.cached
		p.mu.Unlock()
		return d, nil
	}
	url, gen := p.url, p.gen
	p.mu.Unlock()

	ch := p.group.DoChan(fmt.Sprintf("%d|%s", gen, url), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		d, err := p.fetch(fctx, url)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		// an Invalidate or SetURL while in flight leaves the cache empty
		if p.gen == gen && p.url == url {
			p.cached = d
		}
		p.mu.Unlock()
		return d, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("dataset fetch: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		d := r.Val.(*Document)
		p.log.Debug("document ready", "url", url, "sets", len(d.Sets), "shared", r.Shared)
		return d, nil
	}
}

// Invalidate drops the cached document so the next call refetches it.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.gen++
	p.mu.Unlock()
}

// SetURL switches the source. The cache is dropped when the URL changes.
func (p *Provider) SetURL(url string) {
	p.mu.Lock()
	if p.url != url {
		p.url = url
		p.cached = nil
		p.gen++
	}
	p.mu.Unlock()
}

func (p *Provider) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Fetches reports how many network requests were made.
func (p *Provider) Fetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

func (p *Provider) fetch(ctx context.Context, url string) (*Document, error) {
	p.mu.Lock()
	p.fetches++
	p.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/csv;q=0.9")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("dataset read: %w", err)
	}
	parse := Parse
	if isCSV(resp.Header.Get("Content-Type"), url) {
		parse = ParseCSV
	}
	d, err := parse(body)
	if err != nil {
		return nil, err
	}
	p.log.Info("fetched dataset document", "url", url, "bytes", len(body), "sets", len(d.Sets))
	return d, nil
}

// isCSV reports whether a response is a CSV point table rather than JSON.
func isCSV(contentType, rawURL string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "text/csv" {
		return true
	}
	u, err := neturl.Parse(rawURL)
	return err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".csv")
}
