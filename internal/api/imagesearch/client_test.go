package imagesearch

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewHTTPClient(server.URL, "test-key", 2*time.Second, logger), server, &hits
}

func TestHTTPClient_SearchPlaceImage(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first result and forwards query params", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Sant'Eustachio Rome", r.URL.Query().Get("q"))
			assert.Equal(t, "image", r.URL.Query().Get("type"))
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results": [{"url": "https://img.example/1.jpg"}, {"url": "https://img.example/2.jpg"}]}`))
		})

		url, err := client.SearchPlaceImage(ctx, "Sant'Eustachio", "Rome")
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/1.jpg", url)
	})

	t.Run("second lookup is served from cache", func(t *testing.T) {
		client, _, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results": [{"url": "https://img.example/1.jpg"}]}`))
		})

		for i := 0; i < 3; i++ {
			url, err := client.SearchPlaceImage(ctx, "Tazza d'Oro", "Rome")
			require.NoError(t, err)
			assert.Equal(t, "https://img.example/1.jpg", url)
		}
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("no results is not an error and is cached", func(t *testing.T) {
		client, _, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results": []}`))
		})

		url, err := client.SearchPlaceImage(ctx, "Obscure Place", "Nowhere")
		require.NoError(t, err)
		assert.Empty(t, url)

		url, err = client.SearchPlaceImage(ctx, "Obscure Place", "Nowhere")
		require.NoError(t, err)
		assert.Empty(t, url)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.SearchPlaceImage(ctx, "Anything", "Anywhere")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := client.SearchPlaceImage(ctx, "Anything", "Anywhere")
		require.Error(t, err)
	})

	t.Run("unreachable server is an error", func(t *testing.T) {
		client, server, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := client.SearchPlaceImage(ctx, "Anything", "Anywhere")
		require.Error(t, err)
	})
}
