package ta

import (
	"math"
	"time"
)

// EMA uses the adjust=false recurrence seeded with the first value.
func EMA(vals []float64, period int) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 || period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = out[i-1] + alpha*(vals[i]-out[i-1])
	}
	return out
}

// SMA is a rolling mean; the first period-1 values are NaN.
func SMA(vals []float64, period int) []float64 {
	out := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		sum += v
		if period > 0 && i >= period {
			sum -= vals[i-period]
		}
		if period <= 0 || i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// RSI smooths gains and losses with EMA. A flat window reads 50, a window
// with gains and no losses reads 100.
func RSI(closes []float64, period int) []float64 {
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}
	avgGain := EMA(gains, period)
	avgLoss := EMA(losses, period)
	out := make([]float64, len(closes))
	for i := range closes {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case l == 0 && g > 0:
			out[i] = 100
		case l == 0:
			out[i] = 50
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

func TrueRange(highs, lows, closes []float64) []float64 {
	n := min(len(highs), len(lows), len(closes))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		tr := highs[i] - lows[i]
		if i > 0 {
			tr = math.Max(tr, math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		}
		out[i] = tr
	}
	return out
}

func ATR(highs, lows, closes []float64, period int) []float64 {
	return EMA(TrueRange(highs, lows, closes), period)
}

// VWAP accumulates typical price times volume. With resetDaily the sums
// restart at each calendar day in loc. Bars with zero cumulative volume are NaN.
func VWAP(ts []int64, highs, lows, closes, volumes []float64, resetDaily bool, loc *time.Location) []float64 {
	if loc == nil {
		loc = time.UTC
	}
	n := min(len(highs), len(lows), len(closes), len(volumes))
	out := make([]float64, n)
	var pv, vol float64
	var day string
	for i := 0; i < n; i++ {
		if resetDaily && i < len(ts) {
			d := time.Unix(ts[i], 0).In(loc).Format(time.DateOnly)
			if d != day {
				day = d
				pv, vol = 0, 0
			}
		}
		tp := (highs[i] + lows[i] + closes[i]) / 3
		pv += tp * volumes[i]
		vol += volumes[i]
		if vol == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = pv / vol
	}
	return out
}

// Slope is the percent change from periods bars back to the latest value.
func Slope(vals []float64, periods int) float64 {
	if periods <= 0 || len(vals) < periods+1 {
		return 0
	}
	cur := vals[len(vals)-1]
	prev := vals[len(vals)-1-periods]
	if prev == 0 || math.IsNaN(prev) || math.IsNaN(cur) {
		return 0
	}
	return (cur - prev) / prev * 100
}

// Mean of the last n values, NaN when fewer are available.
func Mean(vals []float64, n int) float64 {
	if n <= 0 || len(vals) < n {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals[len(vals)-n:] {
		sum += v
	}
	return sum / float64(n)
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
