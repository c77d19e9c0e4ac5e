package marketdata

import (
	"time"

	"mtf-trading-bot/internal/types"
)

// Resample aggregates bars into hours-wide buckets anchored at each trading
// day's first bar, so a 09:30 session open yields 09:30 and 13:30 buckets
// for a 4h target.
func Resample(candles []types.Candle, hours int, loc *time.Location) []types.Candle {
	if hours <= 1 || len(candles) == 0 {
		return candles
	}
	if loc == nil {
		loc = time.UTC
	}
	width := time.Duration(hours) * time.Hour

	var (
		out    []types.Candle
		day    string
		anchor time.Time
		bucket = -1
	)
	for _, c := range candles {
		t := time.Unix(c.Ts, 0).In(loc)
		if d := t.Format(time.DateOnly); d != day {
			day, anchor, bucket = d, t, -1
		}
		b := int(t.Sub(anchor) / width)
		if b != bucket {
			bucket = b
			out = append(out, c)
			continue
		}
		merge(&out[len(out)-1], c)
	}
	return out
}

// ResampleWeekly aggregates daily bars into ISO weeks.
func ResampleWeekly(candles []types.Candle, loc *time.Location) []types.Candle {
	if loc == nil {
		loc = time.UTC
	}
	var (
		out  []types.Candle
		last = -1
	)
	for _, c := range candles {
		y, w := time.Unix(c.Ts, 0).In(loc).ISOWeek()
		key := y*100 + w
		if key != last {
			last = key
			out = append(out, c)
			continue
		}
		merge(&out[len(out)-1], c)
	}
	return out
}

func merge(agg *types.Candle, c types.Candle) {
	agg.High = max(agg.High, c.High)
	agg.Low = min(agg.Low, c.Low)
	agg.Close = c.Close
	agg.Vol += c.Vol
}
