package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.Header.Get("X-Extra"))
		_, _ = w.Write([]byte(`{"pong":true}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL+"/", time.Second)
	require.NoError(t, err)

	var out struct {
		Pong bool `json:"pong"`
	}
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, "ping", map[string]string{"X-Extra": "v"}, map[string]int{"n": 1}, &out))
	assert.True(t, out.Pong)
}

func TestDoJSON_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(" denied \n"))
	}))
	defer srv.Close()

	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusForbidden, he.StatusCode)
	assert.Equal(t, "denied", he.Body)
}

func TestResolveURL(t *testing.T) {
	_, err := New(0).resolveURL("/relative")
	assert.Error(t, err)

	_, err = NewWithBaseURL("ftp://idp.local", 0)
	assert.Error(t, err)

	var nilClient *Client
	assert.ErrorIs(t, nilClient.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil), ErrNilClient)
}
