package helpers

import (
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBytesSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check that headers are set
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		assert.Equal(t, "https://www.bilibili.com/", r.Header.Get("Referer"))
		assert.Equal(t, "SESSDATA=abc", r.Header.Get("Cookie"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"code":0}`))
	}))
	defer server.Close()

	body, err := FetchBytes(context.Background(), nil, server.URL, BrowserHeaders("SESSDATA=abc"))
	require.NoError(t, err)
	assert.Equal(t, `{"code":0}`, string(body))
}

func TestFetchUTF8Deflate(t *testing.T) {
	var payload bytes.Buffer
	fw, err := flate.NewWriter(&payload, flate.DefaultCompression)
	require.NoError(t, err)
	fw.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><i><d p="1.0">好看</d></i>`))
	fw.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.Header().Set("Content-Encoding", "deflate")
		w.WriteHeader(http.StatusOK)
		w.Write(payload.Bytes())
	}))
	defer server.Close()

	reader, err := FetchUTF8(context.Background(), nil, server.URL, BrowserHeaders(""))
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "好看")
}

func TestFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchBytes(context.Background(), nil, server.URL, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")

	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))

	// Test with rate limiting
	serverRateLimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusPreconditionFailed)
	}))
	defer serverRateLimited.Close()

	_, err = FetchBytes(context.Background(), nil, serverRateLimited.URL, nil)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := FetchBytes(context.Background(), nil, "http://invalid.url.that.does.not.exist", nil)
	assert.Error(t, err)
}
