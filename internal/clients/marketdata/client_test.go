package marketdata

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{
			"quoteResponse": {
				"result": [{
					"symbol": "AAPL",
					"longName": "Apple Inc.",
					"regularMarketPrice": 150.25,
					"currency": "USD",
					"marketCap": 2500000000000,
					"trailingAnnualDividendRate": 0.96,
					"trailingAnnualDividendYield": 0.0064,
					"quoteType": "EQUITY"
				}]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	quote, err := client.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "Apple Inc.", quote.Name)
	assert.InDelta(t, 150.25, quote.Price, 0.001)
	assert.InDelta(t, 0.96, quote.DividendRate, 0.001)
}

func TestGetQuoteFallsBackToShortName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"quoteResponse": {
				"result": [{
					"symbol": "AAPL",
					"shortName": "Apple",
					"regularMarketPrice": 150.0
				}]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	quote, err := client.GetQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple", quote.Name)
}

func TestGetQuoteUnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": []}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	_, err := client.GetQuote("NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestGetQuoteProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	_, err := client.GetQuote("AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGetQuoteUsesFreshCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{
			"quoteResponse": {
				"result": [{"symbol": "AAPL", "longName": "Apple", "regularMarketPrice": 150.0}]
			}
		}`)
	}))
	defer server.Close()

	cache := setupCacheDB(t)
	client := NewClient(server.URL, cache, zerolog.Nop())

	_, err := client.GetQuote("AAPL")
	require.NoError(t, err)
	_, err = client.GetQuote("AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second lookup must be served from cache")
}

func TestGetQuoteStaleFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := setupCacheDB(t)
	require.NoError(t, cache.Store("quotes", "AAPL", &Quote{Symbol: "AAPL", Price: 149.0}, -time.Minute))

	client := NewClient(server.URL, cache, zerolog.Nop())

	quote, err := client.GetQuote("AAPL")
	require.NoError(t, err, "stale cache must carry a provider outage")
	assert.InDelta(t, 149.0, quote.Price, 0.001)
}

func TestGetProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		fmt.Fprint(w, `{
			"quoteSummary": {
				"result": [{
					"assetProfile": {
						"sector": "Technology",
						"industry": "Consumer Electronics",
						"country": "United States",
						"website": "https://www.apple.com"
					},
					"summaryDetail": {
						"exDividendDate": {"raw": 1715299200}
					}
				}]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	profile, err := client.GetProfile("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", profile.Sector)
	assert.Equal(t, "https://logo.clearbit.com/www.apple.com", profile.LogoURL)
	assert.Equal(t, "2024-05-10", profile.ExDividendDate)
}

func TestGetDividendsSortedAscending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Keyed by timestamp, deliberately out of order, with one
		// zero-amount row to drop.
		fmt.Fprint(w, `{
			"chart": {
				"result": [{
					"events": {
						"dividends": {
							"1713139200": {"amount": 0.25, "date": 1713139200},
							"1705276800": {"amount": 0.24, "date": 1705276800},
							"1720992000": {"amount": 0, "date": 1720992000}
						}
					}
				}]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	dividends, err := client.GetDividends("AAPL")
	require.NoError(t, err)
	require.Len(t, dividends, 2)
	assert.Equal(t, "2024-01-15", dividends[0].Date)
	assert.InDelta(t, 0.24, dividends[0].Amount, 0.001)
	assert.Equal(t, "2024-04-15", dividends[1].Date)
}

func TestGetDailyPricesSkipsNullCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"chart": {
				"result": [{
					"timestamp": [1705276800, 1705363200, 1705449600],
					"indicators": {
						"quote": [{
							"open":   [150.0, null, 152.0],
							"high":   [151.0, null, 153.0],
							"low":    [149.0, null, 151.0],
							"close":  [150.5, null, 152.5],
							"volume": [1000, null, 2000]
						}]
					}
				}]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())

	prices, err := client.GetDailyPrices("AAPL", 3)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2024-01-15", prices[0].Date)
	assert.InDelta(t, 150.5, prices[0].Close, 0.001)
	assert.Equal(t, int64(2000), prices[1].Volume)
}
