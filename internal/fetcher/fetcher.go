package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// Failure kinds. Every error returned by Fetch matches exactly one of these
// through errors.Is.
var (
	ErrNetwork = errors.New("network failure")
	ErrStatus  = errors.New("unexpected status")
	ErrNotHTML = errors.New("unsupported content type")
)

// Error describes a failed fetch.
type Error struct {
	URL         string
	Kind        error
	StatusCode  int
	ContentType string
	Err         error
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Kind, ErrStatus):
		return fmt.Sprintf("fetch %s: %v %d", e.URL, e.Kind, e.StatusCode)
	case errors.Is(e.Kind, ErrNotHTML):
		return fmt.Sprintf("fetch %s: %v %q", e.URL, e.Kind, e.ContentType)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
	}
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Fetcher retrieves a web page for the crawler.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*types.Response, error)
}

// Options controls HTTP fetching behaviour.
type Options struct {
	UserAgent           string
	Headers             map[string]string
	Timeout             time.Duration
	MaxBodyBytes        int64
	AllowedContentTypes []string
	// Client overrides the default transport. Its Timeout is replaced by Timeout.
	Client *http.Client
}

// HTTPFetcher implements Fetcher via the Go http.Client.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	extraHeaders map[string]string
	maxBodyBytes int64
	allowed      map[string]struct{}
}

// NewHTTPFetcher constructs an HTTP fetcher using the provided options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 6 * 1024 * 1024
	}
	if len(opts.AllowedContentTypes) == 0 {
		opts.AllowedContentTypes = []string{"text/html"}
	}

	var client *http.Client
	if opts.Client != nil {
		copied := *opts.Client
		client = &copied
	} else {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	client.Timeout = opts.Timeout

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}
	allowed := make(map[string]struct{}, len(opts.AllowedContentTypes))
	for _, ct := range opts.AllowedContentTypes {
		allowed[strings.ToLower(strings.TrimSpace(ct))] = struct{}{}
	}

	return &HTTPFetcher{
		client:       client,
		userAgent:    opts.UserAgent,
		extraHeaders: headers,
		maxBodyBytes: opts.MaxBodyBytes,
		allowed:      allowed,
	}
}

// Fetch downloads a single URL. Non-2xx statuses and non-HTML content types
// are reported as errors before the body is read.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: ErrNetwork, Err: fmt.Errorf("build request: %w", err)}
	}

	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-IN,en;q=0.8")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range f.extraHeaders {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: ErrNetwork, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return nil, &Error{URL: rawURL, Kind: ErrStatus, StatusCode: resp.StatusCode, ContentType: contentType}
	}
	if !f.acceptsContentType(contentType) {
		drain(resp.Body)
		return nil, &Error{URL: rawURL, Kind: ErrNotHTML, StatusCode: resp.StatusCode, ContentType: contentType}
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: ErrNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &types.Response{
		URL:             rawURL,
		FinalURL:        finalURL,
		Body:            body,
		ContentType:     contentType,
		StatusCode:      resp.StatusCode,
		Headers:         resp.Header.Clone(),
		FetchedAt:       time.Now(),
		ResponseLatency: time.Since(start),
	}, nil
}

func (f *HTTPFetcher) acceptsContentType(header string) bool {
	if strings.TrimSpace(header) == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	}
	_, ok := f.allowed[strings.ToLower(mediaType)]
	return ok
}

func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	limited := io.LimitReader(reader, f.maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", f.maxBodyBytes)
	}
	return body, nil
}

// Client exposes the underlying HTTP client for reuse (eg. robots.txt fetches).
func (f *HTTPFetcher) Client() *http.Client {
	if f == nil {
		return nil
	}
	return f.client
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}
