package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ReturnsStatusBodyAndTotalTiming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "run-1", r.Header.Get(TagHeader))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := NewClient("run-1", false)
	resp, err := client.Get(context.Background(), srv.URL+"/feed", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"items":[]}`, string(resp.Body))
	assert.Greater(t, resp.Timings.Total, time.Duration(0))
	assert.Nil(t, resp.Timings.TLSHandshake, "plain HTTP never reports a TLS handshake")
}

func TestGet_FreshConnectionReportsConnectTiming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient("", false)
	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	require.NotNil(t, resp.Timings.Connect)
	assert.Greater(t, *resp.Timings.Connect, time.Duration(0))
	require.NotNil(t, resp.Timings.WaitFirstByte)
}

func TestPost_MarshalsJSONBodyAndSetsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.org", body["email"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient("", false)
	resp, err := client.Post(context.Background(), srv.URL+"/login", nil, map[string]string{
		"email":    "user@example.org",
		"password": "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestGet_CustomHeadersForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("", false)
	_, err := client.Get(context.Background(), srv.URL, map[string]string{
		"Authorization": "Bearer tok-123",
	})
	require.NoError(t, err)
}

func TestSample_ClassifiesStatusAndNilResponse(t *testing.T) {
	assert.Equal(t, 0, Sample(nil).Status)
	assert.True(t, Sample(nil).Failed())

	connect := 3 * time.Millisecond
	s := Sample(&Response{
		StatusCode: 502,
		Timings:    Timings{Total: 40 * time.Millisecond, Connect: &connect},
	})
	assert.True(t, s.Failed())
	assert.Equal(t, 40*time.Millisecond, s.Total)
	require.NotNil(t, s.Connect)
	assert.Equal(t, connect, *s.Connect)
	assert.Nil(t, s.TLSHandshake)

	ok := Sample(&Response{StatusCode: 204})
	assert.False(t, ok.Failed())
}

func TestGet_TransportErrorReturnsError(t *testing.T) {
	client := NewClient("", false)
	// Reserved TEST-NET address, nothing listens there.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := client.Get(ctx, "http://192.0.2.1:9/feed", nil)
	assert.Error(t, err)
}
