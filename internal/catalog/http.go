package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/cart-engine/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseSize = 1 << 20

// HTTPProvider reads products from a catalog service over HTTP. Consecutive failures open a
// circuit breaker so a dead catalog does not stall every cart refresh.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[domain.Product]
}

type HTTPConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// productDTO is the catalog's wire shape.
type productDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[domain.Product](gobreaker.Settings{
		Name:    "catalog",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProductNotFound)
		},
	})

	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: cb,
	}
}

func (p *HTTPProvider) FetchProduct(ctx context.Context, id string) (domain.Product, error) {
	return p.cb.Execute(func() (domain.Product, error) {
		return p.fetch(ctx, id)
	})
}

func (p *HTTPProvider) State() gobreaker.State {
	return p.cb.State()
}

func (p *HTTPProvider) fetch(ctx context.Context, id string) (domain.Product, error) {
	endpoint := p.baseURL + "/api/products/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Product{}, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return domain.Product{}, fmt.Errorf("fetch product %s: unexpected status %d", id, resp.StatusCode)
	}

	var dto productDTO
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&dto); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	if dto.ID == "" {
		dto.ID = id
	}
	return domain.Product{ID: dto.ID, Name: dto.Name, Price: dto.Price, Stock: dto.Stock}, nil
}
