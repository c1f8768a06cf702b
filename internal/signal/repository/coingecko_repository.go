package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const globalMetricsCacheKey = "global_metrics"

type coinGeckoRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	cache          *cache.Cache
}

// NewCoinGeckoRepository creates a GlobalMetricsRepository backed by the
// CoinGecko public API. A fetch failure degrades to a static snapshot so the
// scoring pipeline never blocks on the aggregator.
func NewCoinGeckoRepository(cfg *config.Config, log *logger.Logger) (GlobalMetricsRepository, error) {
	requestLimiter := newRequestLimiter(cfg.CoinGecko.MaxRequestPerMinute, 10)

	ttl, err := time.ParseDuration(cfg.CoinGecko.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid coingecko cache ttl: %w", err)
	}

	return &coinGeckoRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: requestLimiter,
		cache:          cache.New(ttl, 2*ttl),
	}, nil
}

func (r *coinGeckoRepository) GetGlobalMetrics(ctx context.Context) (*dto.GlobalMetrics, error) {
	if cached, ok := r.cache.Get(globalMetricsCacheKey); ok {
		return cached.(*dto.GlobalMetrics), nil
	}

	metrics, err := r.fetch(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to fetch global metrics, using static fallback", logger.ErrorField(err))
		return dto.DefaultGlobalMetrics(), nil
	}

	r.cache.SetDefault(globalMetricsCacheKey, metrics)

	return metrics, nil
}

func (r *coinGeckoRepository) fetch(ctx context.Context) (*dto.GlobalMetrics, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	url := r.cfg.CoinGecko.BaseURL + "/api/v3/global"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to CoinGecko API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-OK response from CoinGecko API: %d - %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data struct {
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			TotalVolume         map[string]float64 `json:"total_volume"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &dto.GlobalMetrics{
		BTCDominance:   payload.Data.MarketCapPercentage["btc"],
		ETHDominance:   payload.Data.MarketCapPercentage["eth"],
		TotalMarketCap: payload.Data.TotalMarketCap["usd"],
		Volume24h:      payload.Data.TotalVolume["usd"],
	}, nil
}
