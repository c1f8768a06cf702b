// Package indicator computes technical indicators over a close-price and
// volume series. All functions are pure and deterministic; series are ordered
// oldest to newest.
package indicator

import (
	"math"
)

// VolumeTrend classifies the short-term direction of trading volume.
type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "INCREASING"
	VolumeDecreasing VolumeTrend = "DECREASING"
	VolumeStable     VolumeTrend = "STABLE"
)

// Snapshot is the full set of indicators computed for one request.
type Snapshot struct {
	CurrentPrice   float64     `json:"current_price"`
	PriceChange24h float64     `json:"price_change_24h"`
	RSI            float64     `json:"rsi"`
	MACD           float64     `json:"macd"`
	MACDSignal     float64     `json:"macd_signal"`
	MACDHistogram  float64     `json:"macd_histogram"`
	BollingerUpper float64     `json:"bollinger_upper"`
	BollingerMid   float64     `json:"bollinger_middle"`
	BollingerLower float64     `json:"bollinger_lower"`
	Support        float64     `json:"support"`
	Resistance     float64     `json:"resistance"`
	Volume         float64     `json:"volume"`
	VolumeTrend    VolumeTrend `json:"volume_trend"`
	VolumeRatio    float64     `json:"volume_ratio"`
}

// RSI computes the Relative Strength Index from the first `period` price
// deltas. Returns the neutral value 50 when the series is too short, and 100
// when there are no losses in the window.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return round2(100 - (100 / (1 + rs)))
}

// MACDResult holds the MACD line and its derived values.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes EMA(12) - EMA(26). The signal line is approximated by the MACD
// line itself since a 9-period EMA of MACD would require MACD history this
// calculator does not keep; the histogram is therefore zero.
func MACD(prices []float64) MACDResult {
	if len(prices) < 26 {
		return MACDResult{}
	}

	macd := ema(prices, 12) - ema(prices, 26)
	signal := macd

	return MACDResult{
		MACD:      round4(macd),
		Signal:    round4(signal),
		Histogram: round4(macd - signal),
	}
}

func ema(prices []float64, period int) float64 {
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	multiplier := 2 / float64(period+1)
	var sum float64
	for _, p := range prices[:period] {
		sum += p
	}
	e := sum / float64(period)

	for _, p := range prices[period:] {
		e = (p-e)*multiplier + e
	}

	return e
}

// Bands holds Bollinger band levels.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger computes SMA ± 2 standard deviations over the trailing window.
// A series shorter than the period degrades to a flat band at the last price.
func Bollinger(prices []float64, period int) Bands {
	if len(prices) < period {
		price := prices[len(prices)-1]
		return Bands{Upper: price, Middle: price, Lower: price}
	}

	window := prices[len(prices)-period:]
	var sum float64
	for _, p := range window {
		sum += p
	}
	sma := sum / float64(period)

	var variance float64
	for _, p := range window {
		variance += (p - sma) * (p - sma)
	}
	variance /= float64(period)
	stdDev := math.Sqrt(variance)

	return Bands{
		Upper:  round2(sma + 2*stdDev),
		Middle: round2(sma),
		Lower:  round2(sma - 2*stdDev),
	}
}

// SupportResistance detects support and resistance from strict local extrema
// over the trailing window, falling back to the window min/max and, for very
// short series, to ±5% of the current price.
func SupportResistance(prices []float64, window int) (support, resistance float64) {
	if len(prices) < window {
		current := prices[len(prices)-1]
		return round2(current * 0.95), round2(current * 1.05)
	}

	recent := prices[len(prices)-window:]
	var localMins, localMaxs []float64

	for i := 1; i < len(recent)-1; i++ {
		if recent[i] < recent[i-1] && recent[i] < recent[i+1] {
			localMins = append(localMins, recent[i])
		}
		if recent[i] > recent[i-1] && recent[i] > recent[i+1] {
			localMaxs = append(localMaxs, recent[i])
		}
	}

	if len(localMins) > 0 {
		support = minOf(localMins)
	} else {
		support = minOf(recent)
	}
	if len(localMaxs) > 0 {
		resistance = maxOf(localMaxs)
	} else {
		resistance = maxOf(recent)
	}

	return round2(support), round2(resistance)
}

// VolumeProfile summarizes volume behavior.
type VolumeProfile struct {
	Trend         VolumeTrend
	AvgVolume     float64
	CurrentVolume float64
	VolumeRatio   float64
}

// AnalyzeVolume compares the trailing-3 average against the preceding-3
// average with a ±20% threshold.
func AnalyzeVolume(volumes []float64) VolumeProfile {
	if len(volumes) == 0 {
		return VolumeProfile{Trend: VolumeStable, VolumeRatio: 1}
	}

	var total float64
	for _, v := range volumes {
		total += v
	}
	avg := total / float64(len(volumes))
	current := volumes[len(volumes)-1]

	trend := VolumeStable
	if len(volumes) >= 6 {
		recentAvg := mean(volumes[len(volumes)-3:])
		olderAvg := mean(volumes[len(volumes)-6 : len(volumes)-3])

		if recentAvg > olderAvg*1.2 {
			trend = VolumeIncreasing
		} else if recentAvg < olderAvg*0.8 {
			trend = VolumeDecreasing
		}
	}

	return VolumeProfile{
		Trend:         trend,
		AvgVolume:     round2(avg),
		CurrentVolume: round2(current),
		VolumeRatio:   round2(current / avg),
	}
}

// Compute assembles a Snapshot from matching price and volume series. The
// series granularity is assumed to be hourly, so the 24h change compares the
// close 24 candles back (or the first close when shorter).
func Compute(prices, volumes []float64) *Snapshot {
	if len(prices) == 0 {
		return nil
	}

	currentPrice := prices[len(prices)-1]
	macd := MACD(prices)
	bands := Bollinger(prices, 20)
	support, resistance := SupportResistance(prices, 20)
	volume := AnalyzeVolume(volumes)

	price24hAgo := prices[0]
	if len(prices) > 24 {
		price24hAgo = prices[len(prices)-24]
	}
	priceChange24h := (currentPrice - price24hAgo) / price24hAgo * 100

	return &Snapshot{
		CurrentPrice:   round2(currentPrice),
		PriceChange24h: round2(priceChange24h),
		RSI:            RSI(prices, 14),
		MACD:           macd.MACD,
		MACDSignal:     macd.Signal,
		MACDHistogram:  macd.Histogram,
		BollingerUpper: bands.Upper,
		BollingerMid:   bands.Middle,
		BollingerLower: bands.Lower,
		Support:        support,
		Resistance:     resistance,
		Volume:         volume.CurrentVolume,
		VolumeTrend:    volume.Trend,
		VolumeRatio:    volume.VolumeRatio,
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
