package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/cart-engine/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog(t *testing.T) {
	apple := domain.Product{ID: "apple", Name: "Apple", Price: 10, Stock: 3}
	sut := NewMemoryCatalog(apple)
	ctx := context.Background()

	got, err := sut.FetchProduct(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, apple, got)

	apple.Price = 12
	sut.Put(apple)
	got, err = sut.FetchProduct(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Price)

	sut.Remove("apple")
	_, err = sut.FetchProduct(ctx, "apple")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func newCatalogServer(t *testing.T, hits *atomic.Int32, status int) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		id := chi.URLParam(r, "id")
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if id == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(productDTO{ID: id, Name: "Apple", Price: 9.5, Stock: 7})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProvider_FetchProduct(t *testing.T) {
	var hits atomic.Int32
	srv := newCatalogServer(t, &hits, http.StatusOK)
	sut := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL + "/", Timeout: time.Second})

	got, err := sut.FetchProduct(context.Background(), "apple")
	require.NoError(t, err)
	assert.Equal(t, domain.Product{ID: "apple", Name: "Apple", Price: 9.5, Stock: 7}, got)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPProvider_NotFoundKeepsBreakerClosed(t *testing.T) {
	var hits atomic.Int32
	srv := newCatalogServer(t, &hits, http.StatusOK)
	sut := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, MaxFailures: 1})

	for i := 0; i < 3; i++ {
		_, err := sut.FetchProduct(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrProductNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, sut.State())
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPProvider_ServerErrorsOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := newCatalogServer(t, &hits, http.StatusInternalServerError)
	sut := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, MaxFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := sut.FetchProduct(context.Background(), "apple")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, sut.State())

	_, err := sut.FetchProduct(context.Background(), "apple")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTTPProvider_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	sut := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL})
	_, err := sut.FetchProduct(context.Background(), "apple")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
}
