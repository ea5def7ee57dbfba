package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valueband/vr-service/internal/config"
)

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func newTestClient(serverURL string) *Client {
	return NewClient(config.MarketConfig{
		BaseURL: serverURL,
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
}

func chartBody(symbol, currency string, price float64, name string) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"currency":%q,"symbol":%q,"regularMarketPrice":%v,"shortName":%q}}],"error":null}}`,
		currency, symbol, price, name)
}

func TestFetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/005930.KS", r.URL.Path)
		fmt.Fprint(w, chartBody("005930.KS", "KRW", 71000, "Samsung Electronics"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	quote, err := client.FetchQuote(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, "Samsung Electronics", quote.Name)
	assert.Equal(t, "KRW", quote.Currency)
	assert.True(t, quote.Price.Equal(decimalFromFloat(71000)))
}

func TestFetchQuoteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestFetchQuoteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "005930.KS", NormalizeTicker("005930"))
	assert.Equal(t, "035720.KS", NormalizeTicker("035720"))
	assert.Equal(t, "AAPL", NormalizeTicker("AAPL"))
	assert.Equal(t, "7203.T", NormalizeTicker("7203.T"))
	assert.Equal(t, "000660.KQ", NormalizeTicker("000660.KQ"))
}

func TestRateCacheBaseCurrency(t *testing.T) {
	cache := NewRateCache(nil, nil, "KRW", time.Minute, zerolog.Nop())
	rate, err := cache.Rate(context.Background(), "KRW")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimalFromFloat(1)))
}

func TestRateCacheLiveFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/USDKRW=X", r.URL.Path)
		fmt.Fprint(w, chartBody("USDKRW=X", "KRW", 1385.5, "USD/KRW"))
	}))
	defer server.Close()

	cache := NewRateCache(newTestClient(server.URL), nil, "KRW", time.Minute, zerolog.Nop())
	rate, err := cache.Rate(context.Background(), "USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimalFromFloat(1385.5)))
}

func TestRateCacheFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := NewRateCache(newTestClient(server.URL), nil, "KRW", time.Minute, zerolog.Nop())

	rate, err := cache.Rate(context.Background(), "USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimalFromFloat(1400)))

	rate, err = cache.Rate(context.Background(), "JPY")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimalFromFloat(9)))

	_, err = cache.Rate(context.Background(), "GBP")
	require.Error(t, err)
}
