package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"

	"pointview/internal/view"
)

// DefaultMaxImageSize caps the bytes read from a render response.
const DefaultMaxImageSize = 32 << 20

var (
	ErrNotImage      = errors.New("response is not an image")
	ErrInvalidParams = errors.New("view parameters are not finite")
)

type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("POST %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Request is the render request body.
type Request struct {
	Points json.RawMessage `json:"points"`
	Params view.Params     `json:"params"`
}

// Client talks to the render service. It is safe for concurrent use.
type Client struct {
	client  *http.Client
	log     *slog.Logger
	maxSize int64

	mu          sync.Mutex
	renderURL   string
	fallbackURL string
	fallback    *Image
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *Client) { r.client = c }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(r *Client) { r.log = l }
}

func WithMaxImageSize(n int64) ClientOption {
	return func(r *Client) { r.maxSize = n }
}

func NewClient(renderURL, fallbackURL string, opts ...ClientOption) *Client {
	c := &Client{
		client:      http.DefaultClient,
		log:         slog.Default(),
		maxSize:     DefaultMaxImageSize,
		renderURL:   renderURL,
		fallbackURL: fallbackURL,
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "render")
	return c
}

// SetURLs changes the endpoints. A changed fallback URL drops the cached placeholder.
func (c *Client) SetURLs(renderURL, fallbackURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderURL = renderURL
	if c.fallbackURL != fallbackURL {
		c.fallbackURL = fallbackURL
		c.fallback = nil
	}
}

// Render posts the points and view parameters and decodes the returned bitmap.
func (c *Client) Render(ctx context.Context, r Request) (*Image, error) {
	if !r.Params.Valid() {
		return nil, ErrInvalidParams
	}
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}
	c.mu.Lock()
	url := c.renderURL
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return c.readImage(resp)
}

// Fallback returns the placeholder image. The remote placeholder is fetched
// once; when it cannot be fetched a black square is synthesized. Never nil.
func (c *Client) Fallback(ctx context.Context) *Image {
	c.mu.Lock()
	if c.fallback != nil {
		img := c.fallback.copyOf()
		c.mu.Unlock()
		return img
	}
	url := c.fallbackURL
	c.mu.Unlock()

	img, err := c.fetchFallback(ctx, url)
	if err != nil {
		c.log.Warn("fallback image unavailable, using built-in", "url", url, "err", err)
		// not cached, the remote placeholder may come back
		return blackPNG()
	}
	img.Fallback = true
	c.mu.Lock()
	if c.fallbackURL == url {
		c.fallback = img
	}
	c.mu.Unlock()
	return img.copyOf()
}

func (c *Client) fetchFallback(ctx context.Context, url string) (*Image, error) {
	if url == "" {
		return nil, errors.New("no fallback url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return c.readImage(resp)
}

func (c *Client) readImage(resp *http.Response) (*Image, error) {
	ct := resp.Header.Get("Content-Type")
	if ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || !strings.HasPrefix(mt, "image/") {
			return nil, fmt.Errorf("%w: content type %q", ErrNotImage, ct)
		}
		ct = mt
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > c.maxSize {
		return nil, fmt.Errorf("image larger than %d bytes", c.maxSize)
	}
	return decodeImage(data, ct)
}
