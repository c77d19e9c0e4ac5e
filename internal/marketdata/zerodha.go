package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/ratelimit"
	"mtf-trading-bot/internal/types"
)

var kiteIntervals = map[Interval]string{
	Interval5m:  "5minute",
	Interval15m: "15minute",
	Interval1h:  "60minute",
	Interval1d:  "day",
}

// kiteClient is the subset of the Kite Connect client used for history.
type kiteClient interface {
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

type ZerodhaParams struct {
	APIKey         string
	AccessToken    string
	Exchange       string
	RequestsPerMin int
}

// ZerodhaProvider reads historical candles through Kite Connect.
type ZerodhaProvider struct {
	kc       kiteClient
	exchange string
	mapper   *instrumentMapper
	limiter  *ratelimit.Limiter
	loadOnce sync.Once
	loadErr  error
}

var _ Provider = (*ZerodhaProvider)(nil)

func NewZerodhaProvider(p ZerodhaParams) (*ZerodhaProvider, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing API key/access token")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newZerodhaProvider(kc, p), nil
}

func newZerodhaProvider(kc kiteClient, p ZerodhaParams) *ZerodhaProvider {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	// historical API allows 3 requests per second
	if p.RequestsPerMin == 0 || p.RequestsPerMin > 180 {
		p.RequestsPerMin = 180
	}
	return &ZerodhaProvider{
		kc:       kc,
		exchange: p.Exchange,
		mapper:   newInstrumentMapper(),
		limiter:  ratelimit.NewLimiter("zerodha", p.RequestsPerMin),
	}
}

func (z *ZerodhaProvider) Name() string { return "zerodha" }

func (z *ZerodhaProvider) loadInstruments(ctx context.Context) error {
	z.loadOnce.Do(func() {
		instruments, err := z.kc.GetInstrumentsByExchange(z.exchange)
		if err != nil {
			z.loadErr = fmt.Errorf("load instruments: %w", err)
			return
		}
		for _, ins := range instruments {
			if ins.Segment == z.exchange || ins.InstrumentType == "EQ" {
				z.mapper.addMapping(ins.Tradingsymbol, ins.InstrumentToken)
			}
		}
		logger.Info(ctx, "Loaded Kite instruments", "exchange", z.exchange, "count", z.mapper.size())
	})
	return z.loadErr
}

func (z *ZerodhaProvider) Candles(ctx context.Context, symbol string, iv Interval, from, to time.Time) (*types.Series, error) {
	kiv, ok := kiteIntervals[iv]
	if !ok {
		return nil, &ProviderError{Provider: z.Name(), Err: fmt.Errorf("%s: %w", iv, ErrUnsupportedInterval)}
	}
	if err := z.loadInstruments(ctx); err != nil {
		return nil, &ProviderError{Provider: z.Name(), Err: err, Retryable: true}
	}
	token, ok := z.mapper.getToken(symbol)
	if !ok {
		return nil, &ProviderError{Provider: z.Name(), Err: fmt.Errorf("unknown symbol %s on %s: %w", symbol, z.exchange, ErrNoData)}
	}
	if err := z.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rows, err := z.kc.GetHistoricalData(token, kiv, from, to, false, false)
	if err != nil {
		return nil, &ProviderError{Provider: z.Name(), Err: err, Retryable: true}
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, types.Candle{
			Ts:    r.Date.Unix(),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
			Vol:   float64(r.Volume),
		})
	}
	s, err := newSeries(symbol, iv, candles)
	if err != nil {
		return nil, &ProviderError{Provider: z.Name(), Err: err}
	}
	return s, nil
}
