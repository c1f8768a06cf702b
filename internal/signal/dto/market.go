package dto

// HistoricalData is an ordered candle series (oldest to newest).
type HistoricalData struct {
	Prices     []float64 `json:"prices"`
	Volumes    []float64 `json:"volumes"`
	Timestamps []int64   `json:"timestamps"`
}

// GlobalMetrics is the market-wide data fetched from the aggregator.
type GlobalMetrics struct {
	BTCDominance   float64 `json:"btc_dominance"`
	ETHDominance   float64 `json:"eth_dominance"`
	TotalMarketCap float64 `json:"total_market_cap"`
	Volume24h      float64 `json:"volume_24h"`
}

// DefaultGlobalMetrics is the static fallback used when the aggregator is
// unreachable.
func DefaultGlobalMetrics() *GlobalMetrics {
	return &GlobalMetrics{
		BTCDominance:   59.3,
		ETHDominance:   12.1,
		TotalMarketCap: 3.53e12,
		Volume24h:      1.8146e11,
	}
}
