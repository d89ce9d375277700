package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type RESTClient struct {
	baseURL    string
	category   string
	httpClient *http.Client
}

func NewRESTClient(baseURL, category string, timeout time.Duration) *RESTClient {
	if category == "" {
		category = CategoryLinear
	}
	return &RESTClient{
		baseURL:    baseURL,
		category:   category,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// get issues a GET and decodes the result payload of the V5 envelope into out.
func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bybit error: %s: %s", resp.Status, body)
	}

	var rawResp BybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := rawResp.Err(); err != nil {
		return err
	}

	if err := json.Unmarshal(rawResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// GetInstruments returns every instrument of the client's category, following
// the page cursor.
func (c *RESTClient) GetInstruments(ctx context.Context) ([]Instrument, error) {
	var all []Instrument
	cursor := ""
	for {
		query := url.Values{}
		query.Set("category", c.category)
		query.Set("limit", "1000")
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var page InstrumentListResponse
		if err := c.get(ctx, "/v5/market/instruments-info", query, &page); err != nil {
			return nil, fmt.Errorf("instruments-info: %w", err)
		}
		all = append(all, page.List...)

		if page.NextPageCursor == "" || page.NextPageCursor == cursor {
			return all, nil
		}
		cursor = page.NextPageCursor
	}
}

// GetUSDTAltcoinSymbols fetches trading symbols with quoteCoin = USDT, one per base coin.
func (c *RESTClient) GetUSDTAltcoinSymbols(ctx context.Context) ([]Instrument, error) {
	instruments, err := c.GetInstruments(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []Instrument
	for _, inst := range instruments {
		if inst.QuoteCoin != "USDT" || seen[inst.BaseCoin] {
			continue
		}
		if inst.Status != "" && inst.Status != "Trading" {
			continue
		}
		out = append(out, inst)
		seen[inst.BaseCoin] = true
	}
	return out, nil
}

// GetKlines returns the bars of symbol starting in [start, end], oldest first.
func (c *RESTClient) GetKlines(ctx context.Context, symbol string, interval KlineInterval, start, end time.Time) ([]Kline, error) {
	meta, err := ParseKlineInterval(string(interval))
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("category", c.category)
	query.Set("symbol", symbol)
	query.Set("interval", meta.APIValue)
	query.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	query.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	query.Set("limit", strconv.Itoa(maxKlineLimit))

	var result KlinesResponse
	if err := c.get(ctx, "/v5/market/kline", query, &result); err != nil {
		return nil, fmt.Errorf("kline %s: %w", symbol, err)
	}

	klines, err := ParseKlineList(meta, result.List)
	if err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}
	return klines, nil
}
