package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type binanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	cache          *cache.Cache
}

// NewBinanceRepository creates a MarketDataRepository backed by the Binance
// public REST API. Responses are cached in-process so a burst of jobs hitting
// the same symbol does not burn the rate budget.
func NewBinanceRepository(cfg *config.Config, log *logger.Logger) (MarketDataRepository, error) {
	requestLimiter := newRequestLimiter(cfg.Binance.MaxRequestPerMinute, 60)

	ttl, err := time.ParseDuration(cfg.Binance.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid binance cache ttl: %w", err)
	}

	return &binanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: requestLimiter,
		cache:          cache.New(ttl, 2*ttl),
	}, nil
}

func (r *binanceRepository) GetHistoricalData(ctx context.Context, symbol, interval string, limit int) (*dto.HistoricalData, error) {
	cacheKey := fmt.Sprintf("klines:%s:%s:%d", symbol, interval, limit)
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(*dto.HistoricalData), nil
	}

	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d", r.cfg.Binance.BaseURL, symbol, interval, limit)
	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	// Each kline is a mixed array: open time, OHLC and volume as strings.
	var klines [][]json.RawMessage
	if err := json.Unmarshal(body, &klines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal klines: %w", err)
	}

	data := &dto.HistoricalData{
		Prices:     make([]float64, 0, len(klines)),
		Volumes:    make([]float64, 0, len(klines)),
		Timestamps: make([]int64, 0, len(klines)),
	}
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(k[0], &openTime); err != nil {
			return nil, fmt.Errorf("failed to parse kline open time: %w", err)
		}
		closePrice, err := parseQuotedFloat(k[4])
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline close: %w", err)
		}
		volume, err := parseQuotedFloat(k[5])
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline volume: %w", err)
		}
		data.Prices = append(data.Prices, closePrice)
		data.Volumes = append(data.Volumes, volume)
		data.Timestamps = append(data.Timestamps, openTime)
	}

	if len(data.Prices) == 0 {
		return nil, fmt.Errorf("no klines returned for %s", symbol)
	}

	r.cache.SetDefault(cacheKey, data)

	return data, nil
}

func (r *binanceRepository) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", r.cfg.Binance.BaseURL, symbol)
	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return 0, err
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ticker: %w", err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ticker price %q: %w", ticker.Price, err)
	}

	return price, nil
}

// GetCurrentPrices resolves a set of symbols with a single full-ticker call.
func (r *binanceRepository) GetCurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	url := fmt.Sprintf("%s/api/v3/ticker/price", r.cfg.Binance.BaseURL)
	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var tickers []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tickers: %w", err)
	}

	wanted := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		wanted[symbol] = true
	}

	prices := make(map[string]float64, len(symbols))
	for _, ticker := range tickers {
		if !wanted[ticker.Symbol] {
			continue
		}
		price, err := strconv.ParseFloat(ticker.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ticker price %q: %w", ticker.Price, err)
		}
		prices[ticker.Symbol] = price
	}

	return prices, nil
}

func (r *binanceRepository) sendRequest(ctx context.Context, url string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.log.ErrorContext(ctx, "Failed to wait for request limit", logger.ErrorField(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Binance API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.log.ErrorContext(ctx, "Received non-OK response from Binance API",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("url", url),
		)
		return nil, fmt.Errorf("received non-OK response from Binance API: %d - %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func parseQuotedFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
