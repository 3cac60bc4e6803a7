package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

// RawBar is one daily bar exactly as the provider reports it. Quote fields
// are pointers because the provider emits null for halted sessions.
type RawBar struct {
	Timestamp int64 // bar open, seconds since epoch
	GMTOffset int   // exchange UTC offset, seconds
	Currency  string
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Volume    *int64
}

// chartResponse mirrors the provider's chart endpoint payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency  string `json:"currency"`
				Symbol    string `json:"symbol"`
				GMTOffset int    `json:"gmtoffset"`
				Timezone  string `json:"timezone"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyBars fetches daily bars for one ticker over an inclusive date
// range. A range the provider has no rows for (holiday, weekend) returns an
// empty slice and no error. The call is bounded by the client timeout and
// the context; it never retries.
func (c *Client) GetDailyBars(ctx context.Context, ticker string, start, end model.Date) ([]RawBar, error) {
	// The provider treats period2 as exclusive; push it one day past end.
	period1 := start.Time(time.UTC).Unix()
	period2 := end.Next().Time(time.UTC).Unix()

	query := url.Values{}
	query.Set("period1", strconv.FormatInt(period1, 10))
	query.Set("period2", strconv.FormatInt(period2, 10))
	query.Set("interval", "1d")
	query.Set("includePrePost", "false")

	fullURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Ticker: ticker, Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Ticker: ticker, Kind: KindTransient, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, &Error{Ticker: ticker, Kind: KindInvalidTicker,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &Error{Ticker: ticker, Kind: KindTransient,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	case resp.StatusCode >= 400:
		return nil, &Error{Ticker: ticker, Kind: KindInvalidTicker,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	return c.decodeBars(ticker, body)
}

func (c *Client) decodeBars(ticker string, body []byte) ([]RawBar, error) {
	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Ticker: ticker, Kind: KindTransient,
			Err: fmt.Errorf("decode chart response: %w", err)}
	}

	if parsed.Chart.Error != nil {
		return nil, &Error{Ticker: ticker, Kind: KindInvalidTicker,
			Err: fmt.Errorf("%s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)}
	}

	if len(parsed.Chart.Result) == 0 {
		c.logger.Debug("no chart result", "ticker", ticker)
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		c.logger.Debug("no rows for range", "ticker", ticker)
		return nil, nil
	}

	quote := result.Indicators.Quote[0]
	bars := make([]RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := RawBar{
			Timestamp: ts,
			GMTOffset: result.Meta.GMTOffset,
			Currency:  result.Meta.Currency,
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Close) {
			bar.Close = quote.Close[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
