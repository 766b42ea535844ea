package helpers

import (
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"time"

	"golang.org/x/net/html/charset"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36 Edg/114.0.1823.67",
	}

	// DefaultClient is used when callers do not supply their own client
	DefaultClient = &http.Client{
		Timeout: 10 * time.Second,
	}
)

// ErrRateLimited is returned when the provider signals that requests are being throttled.
// Bilibili answers with 412 rather than 429 when it decides a session is too aggressive.
var ErrRateLimited = errors.New("rate limited")

// StatusError reports an unexpected HTTP status code
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s unexpected status code: %d", e.URL, e.Code)
}

// BrowserHeaders returns browser-like request headers for the provider, with the session cookie
// attached when one is available.
func BrowserHeaders(cookie string) http.Header {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	h := http.Header{}
	h.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Referer", "https://www.bilibili.com/")
	h.Set("Origin", "https://www.bilibili.com")
	h.Set("Cache-Control", "no-cache")
	if cookie != "" {
		h.Set("Cookie", cookie)
	}
	return h
}

// FetchBytes sends a GET request and returns the decoded response body
func FetchBytes(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	resp, err := do(ctx, client, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readBody(resp)
}

// FetchUTF8 sends a GET request and converts the response body to UTF-8 (if needed).
func FetchUTF8(ctx context.Context, client *http.Client, url string, header http.Header) (io.Reader, error) {
	resp, err := do(ctx, client, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return &buf, nil
}

func do(ctx context.Context, client *http.Client, url string, header http.Header) (*http.Response, error) {
	if client == nil {
		client = DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, http.StatusPreconditionFailed}, resp.StatusCode) {
		retryAfter := resp.Header.Get("Retry-After")
		resp.Body.Close()
		return nil, fmt.Errorf("%w; retry after %q", ErrRateLimited, retryAfter)
	}

	// Check for other error status codes
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	return resp, nil
}

// readBody reads the whole body, inflating raw deflate payloads which net/http leaves alone.
func readBody(resp *http.Response) ([]byte, error) {
	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "deflate" {
		fr := flate.NewReader(resp.Body)
		defer fr.Close()
		body = fr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
