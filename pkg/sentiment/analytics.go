package sentiment

import "math"

const (
	smoothingWindow  = 3
	bandDeviations   = 2.0
	rsiOverbought    = 70.0
	rsiOversold      = 30.0
	priceAxisFloor   = 0.95
	priceAxisCeiling = 1.05
)

// RSIZone classifies a relative strength index reading.
type RSIZone string

const (
	RSIOverbought RSIZone = "Overbought"
	RSIOversold   RSIZone = "Oversold"
	RSINeutral    RSIZone = "Neutral"
)

// BarDirection colors a volume bar.
type BarDirection string

const (
	BarUp   BarDirection = "up"
	BarDown BarDirection = "down"
)

// SentimentBandPoint is a historical sentiment sample with its trailing
// moving average and Bollinger-style bands. The derived fields are nil when
// the sample has no score or the series is too short to smooth.
type SentimentBandPoint struct {
	Date           string   `json:"date"`
	SentimentScore *float64 `json:"sentimentScore"`
	SMA            *float64 `json:"sma"`
	UpperBand      *float64 `json:"upperBand"`
	LowerBand      *float64 `json:"lowerBand"`
}

// VolumeBar is a historical volume sample with its color.
type VolumeBar struct {
	Date      string       `json:"date"`
	Volume    *float64     `json:"volume"`
	Direction BarDirection `json:"direction"`
}

// AxisBounds is the visible range of the price axis.
type AxisBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ChartData bundles every derived series for one analysis.
type ChartData struct {
	Sentiment []SentimentBandPoint `json:"sentiment"`
	HasBands  bool                 `json:"hasBands"`
	Volume    []VolumeBar          `json:"volume"`
	PriceAxis *AxisBounds          `json:"priceAxis"`
	RSI       float64              `json:"rsi"`
	RSIZone   RSIZone              `json:"rsiZone"`
}

// SmoothSentiment computes a trailing moving average of sentimentScore with
// bands at two population standard deviations. The window for a point is the
// point itself and the two preceding samples, restricted to samples that have
// a score. With fewer than three scored samples the series passes through
// without bands.
func SmoothSentiment(points []HistoricalDataPoint) []SentimentBandPoint {
	out := make([]SentimentBandPoint, len(points))
	scored := 0
	for i, p := range points {
		out[i] = SentimentBandPoint{Date: p.Date, SentimentScore: p.SentimentScore}
		if p.SentimentScore != nil {
			scored++
		}
	}
	if scored < smoothingWindow {
		return out
	}

	for i, p := range points {
		if p.SentimentScore == nil {
			continue
		}
		window := make([]float64, 0, smoothingWindow)
		for j := max(0, i-smoothingWindow+1); j <= i; j++ {
			if s := points[j].SentimentScore; s != nil {
				window = append(window, *s)
			}
		}
		mean, stddev := meanStddev(window)
		upper := mean + bandDeviations*stddev
		lower := mean - bandDeviations*stddev
		out[i].SMA = &mean
		out[i].UpperBand = &upper
		out[i].LowerBand = &lower
	}
	return out
}

func meanStddev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// ClassifyRSI maps an RSI reading to its zone. The thresholds are exclusive.
func ClassifyRSI(v float64) RSIZone {
	switch {
	case v > rsiOverbought:
		return RSIOverbought
	case v < rsiOversold:
		return RSIOversold
	}
	return RSINeutral
}

// VolumeDirections colors each volume bar up when the price rose from the
// previous sample and down otherwise. The first bar is always down.
func VolumeDirections(points []HistoricalDataPoint) []VolumeBar {
	out := make([]VolumeBar, len(points))
	for i, p := range points {
		dir := BarDown
		if i > 0 {
			prev := points[i-1].Price
			if prev != nil && p.Price != nil && *prev < *p.Price {
				dir = BarUp
			}
		}
		out[i] = VolumeBar{Date: p.Date, Volume: p.Volume, Direction: dir}
	}
	return out
}

// PriceAxisBounds returns [0.95*min, 1.05*max] over the defined prices.
// ok is false when no sample has a price.
func PriceAxisBounds(points []HistoricalDataPoint) (AxisBounds, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if p.Price == nil {
			continue
		}
		lo = math.Min(lo, *p.Price)
		hi = math.Max(hi, *p.Price)
	}
	if math.IsInf(lo, 1) {
		return AxisBounds{}, false
	}
	return AxisBounds{Min: lo * priceAxisFloor, Max: hi * priceAxisCeiling}, true
}

// BuildCharts derives every chart series for an analysis.
func BuildCharts(a *SentimentAnalysis) ChartData {
	sentiment := SmoothSentiment(a.HistoricalData)
	hasBands := false
	for _, p := range sentiment {
		if p.SMA != nil {
			hasBands = true
			break
		}
	}
	charts := ChartData{
		Sentiment: sentiment,
		HasBands:  hasBands,
		Volume:    VolumeDirections(a.HistoricalData),
		RSI:       a.TechnicalIndicators.RSI14,
		RSIZone:   ClassifyRSI(a.TechnicalIndicators.RSI14),
	}
	if bounds, ok := PriceAxisBounds(a.HistoricalData); ok {
		charts.PriceAxis = &bounds
	}
	return charts
}
