package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"browsify-profiler/internal/ioformats"
	"browsify-profiler/internal/models"
)

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrTooLarge           = errors.New("response exceeds size cap")
)

// accepted media types for remote history files; an empty type is let through
var acceptedTypes = []string{"text/csv", "application/csv", "application/json", "application/x-ndjson",
	"application/ndjson", "application/jsonl", "text/html", "text/plain", "application/octet-stream"}

// HTTPClient downloads browsing history exports.
type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: "browsify-profiler/1.0",
	}
}

// Fetch returns the (size capped) body, the final URL after redirects, the content type
// and the elapsed time. The caller closes the body.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", "", 0, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", "", 0, err
	}
	req.Header.Set("Accept", "text/csv,application/x-ndjson,text/html;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", "", 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, "", "", 0, fmt.Errorf("http status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "" && !accepted(mediaType) {
		resp.Body.Close()
		return nil, "", "", 0, fmt.Errorf("%w: %s", ErrUnsupportedContent, mediaType)
	}

	var body io.ReadCloser = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, "", "", 0, err
		}
		body = &gzipBody{Reader: gz, underlying: resp.Body}
	}

	finalURL := resp.Request.URL.String()
	elapsed := time.Since(start)
	return &limitedBody{r: body, remaining: h.sizeCap, closer: body}, finalURL, contentType, elapsed, nil
}

func accepted(mediaType string) bool {
	for _, t := range acceptedTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

type gzipBody struct {
	*gzip.Reader
	underlying io.Closer
}

func (g *gzipBody) Close() error {
	g.Reader.Close()
	return g.underlying.Close()
}

// limitedBody fails with ErrTooLarge once more than the cap is available, so a
// truncated export is never decoded as if it were complete.
type limitedBody struct {
	r         io.Reader
	remaining int64
	closer    io.Closer
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if l.remaining <= 0 {
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func (l *limitedBody) Close() error { return l.closer.Close() }

// FetchRecords downloads a history export and decodes it by content type.
func (h *HTTPClient) FetchRecords(ctx context.Context, rawURL string) ([]models.RawRecord, error) {
	body, _, ct, _, err := h.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	recs, err := ioformats.DecodeRecords(body, ct)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return recs, nil
}
