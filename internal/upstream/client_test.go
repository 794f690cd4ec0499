package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TranslatorSRI/cqs/internal/trapi"
	"github.com/TranslatorSRI/cqs/internal/upstream"
)

func TestPostTemplate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(trapi.Response{Status: trapi.StatusSuccess})
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL)
	resp, err := client.PostTemplate(context.Background(), trapi.Query{})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, trapi.StatusSuccess, resp.Status)
}

func TestPostTemplate_DecodeFailureBacksOffUntilDeadline(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("not json"))

			return
		}

		_ = json.NewEncoder(w).Encode(trapi.Response{Status: trapi.StatusSuccess})
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// The real backoff (30s, then 60s) is longer than this test's 2s deadline, so only the first,
	// failing attempt is made: the test exercises the decode-failure branch entering the backoff
	// sleep, not a second attempt or the literal sleep duration.
	_, _ = client.PostTemplate(ctx, trapi.Query{})
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestPostTemplate_CancelledRetriesReturnNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	resp, err := client.PostTemplate(ctx, trapi.Query{})
	assert.Nil(t, resp)
	assert.NoError(t, err)
}
