package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trade-journal-go/internal/benchmark"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/database"
	"trade-journal-go/internal/date"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/ledger"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

// MockLookup is a mock implementation of pricefeed.Lookup.
type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) LookupPrice(ctx context.Context, asset string) (*float64, error) {
	args := m.Called(ctx, asset)
	return args.Get(0).(*float64), args.Error(1)
}

var now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func day(s string) time.Time { return date.MustParse(s).Time().Add(9 * time.Hour) }

// setupTest opens a journal with one closed and one open trade.
func setupTest(t *testing.T, prices *MockLookup) (*journal.Service, http.Handler) {
	t.Helper()
	db, err := database.NewDatabase(&config.Database{DSN: "file::memory:"}, zap.NewNop())
	require.NoError(t, err)

	settings := models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 10000}
	svc, err := journal.Open(context.Background(), store.NewKVStore(db), settings, zap.NewNop(),
		journal.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	closed := svc.AddTrade(ledger.NewTrade{Asset: "BTC", EntryPrice: 100, Quantity: 10, StopLoss: 90, EntryDate: day("2024-01-01")})
	_, err = svc.CloseTrade(closed.ID, 110, ledger.WithExitDate(day("2024-01-05")))
	require.NoError(t, err)
	svc.AddTrade(ledger.NewTrade{Asset: "ETH", EntryPrice: 50, Quantity: 2, EntryDate: day("2024-01-08")})

	var handler *APIHandler
	if prices != nil {
		handler = NewAPIHandler(zap.NewNop(), svc, prices)
	} else {
		// a typed nil would not disable the endpoint
		handler = NewAPIHandler(zap.NewNop(), svc, nil)
	}
	mux := http.NewServeMux()
	handler.Routes(mux)
	return svc, mux
}

func get(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rec.Code == http.StatusOK {
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestTradesHandler(t *testing.T) {
	_, h := setupTest(t, nil)

	var all []models.Trade
	assert.Equal(t, http.StatusOK, get(t, h, "/api/trades", &all).Code)
	assert.Len(t, all, 2)

	var open []models.Trade
	get(t, h, "/api/trades?status=open", &open)
	require.Len(t, open, 1)
	assert.Equal(t, "ETH", open[0].Asset)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trades?status=maybe", nil).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trades", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPortfolioHandler(t *testing.T) {
	_, h := setupTest(t, nil)

	var resp PortfolioResponse
	get(t, h, "/api/portfolio", &resp)
	assert.Equal(t, 10100.0, resp.PortfolioValue)
	assert.Equal(t, 1, resp.OpenTrades)
	assert.Equal(t, date.MustParse("2024-01-01"), resp.Settings.StartDate)
}

func TestPerformanceHandler(t *testing.T) {
	_, h := setupTest(t, nil)

	var series []models.PerformancePoint
	get(t, h, "/api/performance?period=all", &series)
	require.Len(t, series, 10)
	assert.Equal(t, 10000.0, series[3].PortfolioValue)
	assert.Equal(t, 10100.0, series[9].PortfolioValue)
	assert.Equal(t, 2, series[9].TradeCount)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/performance?period=fortnight", nil).Code)
}

func TestComparisonHandler(t *testing.T) {
	_, h := setupTest(t, nil)

	var c benchmark.Comparison
	get(t, h, "/api/comparison?period=month", &c)
	assert.Equal(t, date.Month, c.Period)
	assert.Equal(t, 100.0, c.TradingProfit)
	assert.Equal(t, date.MustParse("2024-01-01"), c.BaselineDate)
}

func TestStatisticsHandler(t *testing.T) {
	_, h := setupTest(t, nil)

	var st journal.Statistics
	get(t, h, "/api/statistics", &st)
	assert.Equal(t, 2, st.TotalTrades)
	assert.Equal(t, 1, st.ClosedTrades)
	assert.Equal(t, 100.0, st.WinRate)
	assert.Equal(t, 100.0, st.TotalRealized)
}

func TestPositionSizeHandler(t *testing.T) {
	svc, h := setupTest(t, nil)
	require.NoError(t, svc.UpdateSettings(models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 9900}))

	var resp PositionSizeResponse
	get(t, h, "/api/risk/position?entry=100&stop=90&riskPct=2", &resp)
	assert.InDelta(t, 20.0, resp.PositionSize, 1e-9)
	assert.InDelta(t, 200.0, resp.RiskDollars, 1e-9)
	assert.InDelta(t, 2.0, resp.RiskPercent, 1e-9)

	get(t, h, "/api/risk/position?entry=100&stop=110&direction=short&dollarRisk=50", &resp)
	assert.InDelta(t, 5.0, resp.PositionSize, 1e-9)

	var fee PositionSizeResponse
	get(t, h, "/api/risk/position?entry=100&stop=90&riskPct=2&fee=1", &fee)
	assert.Less(t, fee.PositionSize, 20.0)

	testCases := []string{
		"/api/risk/position?stop=90&riskPct=2",
		"/api/risk/position?entry=abc&stop=90&riskPct=2",
		"/api/risk/position?entry=100&stop=90",
		"/api/risk/position?entry=100&stop=90&riskPct=2&quantityType=shares",
		"/api/risk/position?entry=100&stop=90&riskPct=2&feeType=flat",
		"/api/risk/position?entry=100&stop=90&riskPct=2&direction=sideways",
	}
	for _, target := range testCases {
		assert.Equal(t, http.StatusBadRequest, get(t, h, target, nil).Code, target)
	}
}

func TestStopLossHandler(t *testing.T) {
	svc, h := setupTest(t, nil)
	require.NoError(t, svc.UpdateSettings(models.PortfolioSettings{StartDate: date.MustParse("2024-01-01"), InitialBalance: 9900}))

	var resp StopLossResponse
	get(t, h, "/api/risk/stop?entry=100&quantity=20&riskPct=2", &resp)
	assert.InDelta(t, 90.0, resp.StopLoss, 1e-9)
	assert.InDelta(t, 2.0, resp.RiskPercent, 1e-9)

	get(t, h, "/api/risk/stop?entry=100&quantity=20&riskPct=2&direction=short", &resp)
	assert.InDelta(t, 110.0, resp.StopLoss, 1e-9)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/risk/stop?entry=100&riskPct=2", nil).Code)
}

func TestPriceHandler(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		_, h := setupTest(t, nil)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/price?asset=BTC", nil).Code)
	})

	t.Run("Found", func(t *testing.T) {
		prices := new(MockLookup)
		price := 64000.0
		prices.On("LookupPrice", mock.Anything, "BTC").Return(&price, nil)
		_, h := setupTest(t, prices)

		var resp struct {
			Price *float64 `json:"price"`
		}
		get(t, h, "/api/price?asset=BTC", &resp)
		require.NotNil(t, resp.Price)
		assert.Equal(t, 64000.0, *resp.Price)
		prices.AssertExpectations(t)
	})

	t.Run("Unknown", func(t *testing.T) {
		prices := new(MockLookup)
		prices.On("LookupPrice", mock.Anything, "NOPE").Return((*float64)(nil), nil)
		_, h := setupTest(t, prices)

		var resp struct {
			Price *float64 `json:"price"`
		}
		get(t, h, "/api/price?asset=NOPE", &resp)
		assert.Nil(t, resp.Price)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		prices := new(MockLookup)
		prices.On("LookupPrice", mock.Anything, "BTC").Return((*float64)(nil), errors.New("timeout"))
		_, h := setupTest(t, prices)

		assert.Equal(t, http.StatusBadGateway, get(t, h, "/api/price?asset=BTC", nil).Code)
		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/price", nil).Code)
	})
}
