package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

// Fetcher retrieves a single document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// Document is a successfully fetched response.
type Document struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects. Links are resolved against it.
	FinalURL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body decoded to UTF-8 when it is text.
	Body []byte
}

// IsHTML reports whether the document declares or looks like HTML.
func (d *Document) IsHTML() bool {
	ct := strings.ToLower(d.ContentType)
	if strings.Contains(ct, "html") {
		return true
	}
	if ct == "" {
		return strings.Contains(strings.ToLower(http.DetectContentType(d.Body)), "html")
	}
	return false
}

// HTTPFetcher implements Fetcher with net/http.
type HTTPFetcher struct {
	client      *http.Client
	userAgents  []string
	headers     map[string]string
	maxBodySize int64
	limiter     *HostLimiter
	pick        func(n int) int
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgents sets the pool a User-Agent is drawn from for each request.
func WithUserAgents(agents []string) Option {
	return func(f *HTTPFetcher) {
		if len(agents) > 0 {
			f.userAgents = agents
		}
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		f.headers = copyHeaders(headers)
	}
}

// WithMaxBodySize limits the number of body bytes read.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRateLimit caps requests per second per host. Zero disables the cap.
func WithRateLimit(rps float64) Option {
	return func(f *HTTPFetcher) {
		f.limiter = NewHostLimiter(rps)
	}
}

// WithClient replaces the HTTP client. The client's Timeout is kept as is.
func WithClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// withPicker replaces the random index source. Used by tests.
func withPicker(pick func(n int) int) Option {
	return func(f *HTTPFetcher) {
		f.pick = pick
	}
}

// New creates an HTTPFetcher whose requests time out after timeout.
// The client keeps cookies per registrable domain so that consent and
// session cookies set by a home page are sent on the following pages.
func New(timeout time.Duration, opts ...Option) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		userAgents:  []string{"Mozilla/5.0 (compatible; policycrawl)"},
		maxBodySize: 5 * 1024 * 1024,
		pick:        rand.IntN,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// WithExtraHeaders returns a fetcher sharing this fetcher's client and
// limiter that additionally sends headers. The receiver is not modified.
func (f *HTTPFetcher) WithExtraHeaders(headers map[string]string) *HTTPFetcher {
	if len(headers) == 0 {
		return f
	}
	clone := *f
	clone.headers = copyHeaders(f.headers)
	for k, v := range headers {
		clone.headers[k] = v
	}
	return &clone
}

// UserAgent returns a random User-Agent from the pool.
func (f *HTTPFetcher) UserAgent() string {
	return f.userAgents[f.pick(len(f.userAgents))]
}

// Fetch performs a GET on rawURL. Any failure, including a non-2xx status,
// is returned as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: KindOther, Err: err}
	}

	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, &FetchError{URL: rawURL, Kind: classify(err), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: KindOther, Err: err}
	}

	req.Header.Set("User-Agent", f.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko,ja;q=0.9,zh;q=0.8,en;q=0.7")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, &FetchError{URL: rawURL, Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: classify(err), Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	doc := &Document{
		URL:         rawURL,
		FinalURL:    rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        raw,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		doc.FinalURL = resp.Request.URL.String()
	}

	if isText(contentType, raw) {
		doc.Body = decodeUTF8(raw, contentType)
	}

	return doc, nil
}

// isText reports whether the body should be charset-decoded.
func isText(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

// decodeUTF8 converts body to UTF-8 using the charset from contentType,
// a <meta> declaration, or content sniffing. The raw body is returned if
// decoding fails.
func decodeUTF8(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

func copyHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
