package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mtf-trading-bot/internal/api"
	"mtf-trading-bot/internal/logger"
	"mtf-trading-bot/internal/ratelimit"
	"mtf-trading-bot/internal/types"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

var yahooIntervals = map[Interval]string{
	Interval5m:  "5m",
	Interval15m: "15m",
	Interval1h:  "60m",
	Interval1d:  "1d",
	Interval1w:  "1wk",
}

type YahooOptions struct {
	BaseURL        string
	RequestsPerMin int
	Timeout        time.Duration
	Retry          *api.RetryConfig
	// HTTPClient replaces the default transport when set.
	HTTPClient *http.Client
}

// YahooProvider reads bars from the v8 chart endpoint.
type YahooProvider struct {
	client  *api.Client
	limiter *ratelimit.Limiter
	retry   *api.RetryConfig
}

var _ Provider = (*YahooProvider)(nil)

func NewYahooProvider(opts YahooOptions) *YahooProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = yahooBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	clientOpts := []api.ClientOption{api.WithBaseURL(opts.BaseURL)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	clientOpts = append(clientOpts, api.WithTimeout(opts.Timeout), api.WithLogging(true))
	return &YahooProvider{
		client:  api.NewClient(clientOpts...),
		limiter: ratelimit.NewLimiter("yahoo", opts.RequestsPerMin),
		retry:   opts.Retry,
	}
}

func (y *YahooProvider) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooProvider) Candles(ctx context.Context, symbol string, iv Interval, from, to time.Time) (*types.Series, error) {
	yiv, ok := yahooIntervals[iv]
	if !ok {
		return nil, &ProviderError{Provider: y.Name(), Err: fmt.Errorf("%s: %w", iv, ErrUnsupportedInterval)}
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", yiv)
	q.Set("includePrePost", "false")
	endpoint := fmt.Sprintf("/v8/finance/chart/%s?%s", url.PathEscape(symbol), q.Encode())

	req := api.NewRequest(http.MethodGet, endpoint).WithContext(ctx).WithHeaders(api.YahooFinanceHeaders())
	resp, err := y.client.DoWithRetry(req, y.retry)
	if err != nil {
		status := api.StatusCode(err)
		if status == http.StatusTooManyRequests {
			y.limiter.SignalRateLimited()
			logger.Warn(ctx, "Yahoo rate limited", "symbol", symbol, "backoff", y.limiter.Backoff())
		}
		return nil, &ProviderError{Provider: y.Name(), Err: err, Retryable: status == 0 || status == http.StatusTooManyRequests || status >= 500}
	}
	y.limiter.ResetBackoff()

	var cr chartResponse
	if err := resp.ParseJSON(&cr); err != nil {
		return nil, &ProviderError{Provider: y.Name(), Err: err}
	}
	if cr.Chart.Error != nil {
		return nil, &ProviderError{Provider: y.Name(), Err: fmt.Errorf("%s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)}
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: y.Name(), Err: ErrNoData}
	}

	r := cr.Chart.Result[0]
	quote := r.Indicators.Quote[0]
	candles := make([]types.Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		var vol float64
		if v := at(quote.Volume, i); v != nil {
			vol = *v
		}
		candles = append(candles, types.Candle{Ts: ts, Open: *o, High: *h, Low: *l, Close: *c, Vol: vol})
	}

	s, err := newSeries(symbol, iv, candles)
	if err != nil {
		return nil, &ProviderError{Provider: y.Name(), Err: err}
	}
	return s, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
