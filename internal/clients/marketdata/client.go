package marketdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// userAgent is sent on every provider request; the quote API rejects
// requests without a browser-like agent.
const userAgent = "Mozilla/5.0 (compatible; portfolio-balancer/1.0)"

// Quote is the current market snapshot for one symbol
type Quote struct {
	Symbol        string  `msgpack:"symbol" json:"symbol"`
	Name          string  `msgpack:"name" json:"name"`
	Price         float64 `msgpack:"price" json:"price"`
	Currency      string  `msgpack:"currency" json:"currency"`
	MarketCap     float64 `msgpack:"market_cap" json:"market_cap"`
	DividendRate  float64 `msgpack:"dividend_rate" json:"dividend_rate"`
	DividendYield float64 `msgpack:"dividend_yield" json:"dividend_yield"`
	QuoteType     string  `msgpack:"quote_type" json:"quote_type"`
}

// Profile holds the slow-moving descriptive fields for one symbol
type Profile struct {
	Sector         string `msgpack:"sector" json:"sector"`
	Industry       string `msgpack:"industry" json:"industry"`
	Country        string `msgpack:"country" json:"country"`
	LogoURL        string `msgpack:"logo_url" json:"logo_url"`
	ExDividendDate string `msgpack:"ex_dividend_date" json:"ex_dividend_date"`
}

// DividendEvent is one historical dividend payment
type DividendEvent struct {
	Date   string  `msgpack:"date" json:"date"` // ISO YYYY-MM-DD
	Amount float64 `msgpack:"amount" json:"amount"`
}

// DailyPrice is one daily OHLCV candle
type DailyPrice struct {
	Date   string  `msgpack:"date" json:"date"`
	Open   float64 `msgpack:"open" json:"open"`
	High   float64 `msgpack:"high" json:"high"`
	Low    float64 `msgpack:"low" json:"low"`
	Close  float64 `msgpack:"close" json:"close"`
	Volume int64   `msgpack:"volume" json:"volume"`
}

// Client fetches market data from a Yahoo-style quote API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	cache   *Cache
}

// NewClient creates a new market data client.
// cache is optional - if nil, caching is disabled.
func NewClient(baseURL string, cache *Cache, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "marketdata").Logger(),
		cache:   cache,
	}
}

// GetQuote fetches the current quote for a symbol, cache-first.
// If the provider fails, returns stale cached data if available.
func (c *Client) GetQuote(symbol string) (*Quote, error) {
	if c.cache != nil {
		var cached Quote
		if ok, err := c.cache.GetIfFresh("quotes", symbol, &cached); err == nil && ok {
			c.log.Debug().Str("symbol", symbol).Float64("price", cached.Price).Msg("Quote cache hit")
			return &cached, nil
		}
	}

	reqURL := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	var payload struct {
		QuoteResponse struct {
			Result []struct {
				Symbol                      string  `json:"symbol"`
				LongName                    string  `json:"longName"`
				ShortName                   string  `json:"shortName"`
				RegularMarketPrice          float64 `json:"regularMarketPrice"`
				Currency                    string  `json:"currency"`
				MarketCap                   float64 `json:"marketCap"`
				TrailingAnnualDividendRate  float64 `json:"trailingAnnualDividendRate"`
				TrailingAnnualDividendYield float64 `json:"trailingAnnualDividendYield"`
				QuoteType                   string  `json:"quoteType"`
			} `json:"result"`
		} `json:"quoteResponse"`
	}

	if err := c.getJSON(reqURL, &payload); err != nil {
		if stale := c.staleQuote(symbol); stale != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, using stale quote")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	if len(payload.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote found for symbol %s", symbol)
	}

	r := payload.QuoteResponse.Result[0]
	name := r.LongName
	if name == "" {
		name = r.ShortName
	}

	quote := &Quote{
		Symbol:        r.Symbol,
		Name:          name,
		Price:         r.RegularMarketPrice,
		Currency:      r.Currency,
		MarketCap:     r.MarketCap,
		DividendRate:  r.TrailingAnnualDividendRate,
		DividendYield: r.TrailingAnnualDividendYield,
		QuoteType:     r.QuoteType,
	}

	if c.cache != nil {
		if err := c.cache.Store("quotes", symbol, quote, TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", quote.Price).Msg("Fetched quote")
	return quote, nil
}

// GetProfile fetches descriptive company data for a symbol, cache-first
func (c *Client) GetProfile(symbol string) (*Profile, error) {
	if c.cache != nil {
		var cached Profile
		if ok, err := c.cache.GetIfFresh("profiles", symbol, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	reqURL := fmt.Sprintf(
		"%s/v10/finance/quoteSummary/%s?modules=assetProfile,summaryDetail",
		c.baseURL, url.PathEscape(symbol),
	)

	var payload struct {
		QuoteSummary struct {
			Result []struct {
				AssetProfile struct {
					Sector   string `json:"sector"`
					Industry string `json:"industry"`
					Country  string `json:"country"`
					Website  string `json:"website"`
				} `json:"assetProfile"`
				SummaryDetail struct {
					ExDividendDate struct {
						Raw int64 `json:"raw"`
					} `json:"exDividendDate"`
				} `json:"summaryDetail"`
			} `json:"result"`
		} `json:"quoteSummary"`
	}

	if err := c.getJSON(reqURL, &payload); err != nil {
		var stale Profile
		if c.cache != nil {
			if ok, cacheErr := c.cache.Get("profiles", symbol, &stale); cacheErr == nil && ok {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, using stale profile")
				return &stale, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", symbol, err)
	}

	if len(payload.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no profile found for symbol %s", symbol)
	}

	r := payload.QuoteSummary.Result[0]
	profile := &Profile{
		Sector:   r.AssetProfile.Sector,
		Industry: r.AssetProfile.Industry,
		Country:  r.AssetProfile.Country,
	}
	if r.AssetProfile.Website != "" {
		profile.LogoURL = "https://logo.clearbit.com/" + hostOf(r.AssetProfile.Website)
	}
	if r.SummaryDetail.ExDividendDate.Raw > 0 {
		profile.ExDividendDate = time.Unix(r.SummaryDetail.ExDividendDate.Raw, 0).UTC().Format("2006-01-02")
	}

	if c.cache != nil {
		if err := c.cache.Store("profiles", symbol, profile, TTLProfile); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache profile")
		}
	}

	return profile, nil
}

// GetDividends fetches the historical dividend feed for a symbol,
// ascending by date. Ten years of history is enough for cadence inference.
func (c *Client) GetDividends(symbol string) ([]DividendEvent, error) {
	if c.cache != nil {
		var cached []DividendEvent
		if ok, err := c.cache.GetIfFresh("dividend_feeds", symbol, &cached); err == nil && ok {
			return cached, nil
		}
	}

	reqURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=10y&interval=1mo&events=div",
		c.baseURL, url.PathEscape(symbol),
	)

	var payload struct {
		Chart struct {
			Result []struct {
				Events struct {
					Dividends map[string]struct {
						Amount float64 `json:"amount"`
						Date   int64   `json:"date"`
					} `json:"dividends"`
				} `json:"events"`
			} `json:"result"`
		} `json:"chart"`
	}

	if err := c.getJSON(reqURL, &payload); err != nil {
		var stale []DividendEvent
		if c.cache != nil {
			if ok, cacheErr := c.cache.Get("dividend_feeds", symbol, &stale); cacheErr == nil && ok {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, using stale dividend feed")
				return stale, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch dividends for %s: %w", symbol, err)
	}

	var dividends []DividendEvent
	if len(payload.Chart.Result) > 0 {
		for _, div := range payload.Chart.Result[0].Events.Dividends {
			if div.Date <= 0 || div.Amount <= 0 {
				continue
			}
			dividends = append(dividends, DividendEvent{
				Date:   time.Unix(div.Date, 0).UTC().Format("2006-01-02"),
				Amount: div.Amount,
			})
		}
	}
	sort.Slice(dividends, func(i, j int) bool { return dividends[i].Date < dividends[j].Date })

	if c.cache != nil {
		if err := c.cache.Store("dividend_feeds", symbol, dividends, TTLDividends); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache dividend feed")
		}
	}

	c.log.Debug().Str("symbol", symbol).Int("events", len(dividends)).Msg("Fetched dividend feed")
	return dividends, nil
}

// GetDailyPrices fetches up to days of daily OHLCV candles, ascending by date
func (c *Client) GetDailyPrices(symbol string, days int) ([]DailyPrice, error) {
	if days <= 0 {
		days = 365
	}

	if c.cache != nil {
		var cached []DailyPrice
		if ok, err := c.cache.GetIfFresh("daily_series", symbol, &cached); err == nil && ok && len(cached) >= days {
			return cached[len(cached)-days:], nil
		}
	}

	reqURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=%dd&interval=1d",
		c.baseURL, url.PathEscape(symbol), days,
	)

	var payload struct {
		Chart struct {
			Result []struct {
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
		} `json:"chart"`
	}

	if err := c.getJSON(reqURL, &payload); err != nil {
		var stale []DailyPrice
		if c.cache != nil {
			if ok, cacheErr := c.cache.Get("daily_series", symbol, &stale); cacheErr == nil && ok {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, using stale daily series")
				return stale, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch daily prices for %s: %w", symbol, err)
	}

	var prices []DailyPrice
	if len(payload.Chart.Result) > 0 && len(payload.Chart.Result[0].Indicators.Quote) > 0 {
		result := payload.Chart.Result[0]
		quote := result.Indicators.Quote[0]
		for i, ts := range result.Timestamp {
			// Provider emits null rows for non-trading days
			if i >= len(quote.Close) || quote.Close[i] == nil {
				continue
			}
			price := DailyPrice{
				Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
				Close: *quote.Close[i],
			}
			if i < len(quote.Open) && quote.Open[i] != nil {
				price.Open = *quote.Open[i]
			}
			if i < len(quote.High) && quote.High[i] != nil {
				price.High = *quote.High[i]
			}
			if i < len(quote.Low) && quote.Low[i] != nil {
				price.Low = *quote.Low[i]
			}
			if i < len(quote.Volume) && quote.Volume[i] != nil {
				price.Volume = *quote.Volume[i]
			}
			prices = append(prices, price)
		}
	}

	if c.cache != nil {
		if err := c.cache.Store("daily_series", symbol, prices, TTLDailySeries); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache daily series")
		}
	}

	return prices, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(reqURL string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// staleQuote returns the cached quote regardless of freshness, or nil
func (c *Client) staleQuote(symbol string) *Quote {
	if c.cache == nil {
		return nil
	}
	var stale Quote
	if ok, err := c.cache.Get("quotes", symbol, &stale); err == nil && ok {
		return &stale
	}
	return nil
}

// hostOf extracts the host part of a website URL for logo lookups
func hostOf(website string) string {
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return website
	}
	return u.Host
}
