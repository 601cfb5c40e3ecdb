package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "TestBot/1.0" {
			t.Errorf("expected user agent header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	})
	mux.HandleFunc("/gzip", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte("<p>compressed</p>"))
		_ = gz.Close()
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/br", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, _ = bw.Write([]byte("<p>brotli</p>"))
		_ = bw.Close()
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/deflate", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		fw, _ := flate.NewWriter(&buf, flate.DefaultCompression)
		_, _ = fw.Write([]byte("<p>deflated</p>"))
		_ = fw.Close()
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "deflate")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"html":false}`))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestFetcher(timeout time.Duration) *HTTPFetcher {
	return NewHTTPFetcher(Options{
		UserAgent:           "TestBot/1.0",
		Timeout:             timeout,
		MaxBodyBytes:        1024,
		AllowedContentTypes: []string{"text/html", "application/xhtml+xml"},
	})
}

func TestFetchHTML(t *testing.T) {
	server := newSiteServer(t)
	f := newTestFetcher(time.Second)

	resp, err := f.Fetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "<title>ok</title>") {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if resp.FinalURL != server.URL+"/page" {
		t.Fatalf("unexpected final url %q", resp.FinalURL)
	}
}

func TestFetchDecodesGzip(t *testing.T) {
	server := newSiteServer(t)
	resp, err := newTestFetcher(time.Second).Fetch(context.Background(), server.URL+"/gzip")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(resp.Body) != "<p>compressed</p>" {
		t.Fatalf("expected decoded body, got %q", resp.Body)
	}
}

func TestFetchDecodesBrotliAndDeflate(t *testing.T) {
	server := newSiteServer(t)
	f := newTestFetcher(time.Second)
	for path, want := range map[string]string{
		"/br":      "<p>brotli</p>",
		"/deflate": "<p>deflated</p>",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := f.Fetch(context.Background(), server.URL+path)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if string(resp.Body) != want {
				t.Fatalf("expected decoded body %q, got %q", want, resp.Body)
			}
		})
	}
}

func TestFetchErrorKinds(t *testing.T) {
	server := newSiteServer(t)
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name string
		url  string
		kind error
	}{
		{"not found", server.URL + "/missing", ErrStatus},
		{"not html", server.URL + "/json", ErrNotHTML},
		{"body too large", server.URL + "/big", ErrNetwork},
		{"timeout", server.URL + "/slow", ErrNetwork},
		{"connection refused", closedURL + "/page", ErrNetwork},
	}

	f := newTestFetcher(100 * time.Millisecond)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.Fetch(context.Background(), tt.url)
			if err == nil {
				t.Fatalf("expected error, got response %+v", resp)
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			var fetchErr *Error
			if !errors.As(err, &fetchErr) || fetchErr.URL != tt.url {
				t.Fatalf("expected *Error carrying the url, got %#v", err)
			}
		})
	}
}

func TestStatusErrorCarriesCode(t *testing.T) {
	server := newSiteServer(t)
	_, err := newTestFetcher(time.Second).Fetch(context.Background(), server.URL+"/missing")
	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", fetchErr.StatusCode)
	}
	if errors.Is(err, ErrNotHTML) || errors.Is(err, ErrNetwork) {
		t.Fatal("status error must match a single kind")
	}
}

func TestAcceptsContentType(t *testing.T) {
	f := newTestFetcher(time.Second)
	cases := map[string]bool{
		"text/html":                      true,
		"TEXT/HTML; charset=UTF-8":       true,
		"application/xhtml+xml":          true,
		"application/json":               false,
		"":                               false,
		"text/html;;broken":              true,
		"image/png; name=\"photo.html\"": false,
	}
	for header, want := range cases {
		if got := f.acceptsContentType(header); got != want {
			t.Errorf("acceptsContentType(%q) = %v, want %v", header, got, want)
		}
	}
}
