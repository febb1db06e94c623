// Package api serves the journal's read side and the risk calculator over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"trade-journal-go/internal/benchmark"
	"trade-journal-go/internal/date"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/pricefeed"
	"trade-journal-go/internal/risk"
)

// Journal is the part of the journal service the API reads from.
type Journal interface {
	Trades() []models.Trade
	Settings() models.PortfolioSettings
	CurrentPortfolioValue() float64
	Performance(period date.Period) []models.PerformancePoint
	Comparison(period date.Period) benchmark.Comparison
	Statistics(period date.Period) journal.Statistics
	PositionSize(in risk.Inputs, riskPct float64) float64
	PositionForDollarRisk(in risk.Inputs, dollars float64) float64
	StopLoss(in risk.Inputs, riskPct float64) float64
	RiskPercent(in risk.Inputs) float64
}

// ensure the journal service satisfies the API
var _ Journal = (*journal.Service)(nil)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log     *zap.Logger
	journal Journal
	prices  pricefeed.Lookup
}

// NewAPIHandler creates a new APIHandler. prices may be nil, which disables
// /api/price.
func NewAPIHandler(log *zap.Logger, j Journal, prices pricefeed.Lookup) *APIHandler {
	return &APIHandler{log: log.Named("api"), journal: j, prices: prices}
}

// Routes registers every endpoint on mux.
func (h *APIHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/trades", h.TradesHandler)
	mux.HandleFunc("GET /api/portfolio", h.PortfolioHandler)
	mux.HandleFunc("GET /api/performance", h.PerformanceHandler)
	mux.HandleFunc("GET /api/comparison", h.ComparisonHandler)
	mux.HandleFunc("GET /api/statistics", h.StatisticsHandler)
	mux.HandleFunc("GET /api/risk/position", h.PositionSizeHandler)
	mux.HandleFunc("GET /api/risk/stop", h.StopLossHandler)
	mux.HandleFunc("GET /api/price", h.PriceHandler)
}

// TradesHandler returns all trades, optionally only open or closed ones.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades := h.journal.Trades()
	switch status := r.URL.Query().Get("status"); status {
	case "":
	case "open", "closed":
		filtered := make([]models.Trade, 0, len(trades))
		for _, t := range trades {
			if t.IsActive == (status == "open") {
				filtered = append(filtered, t)
			}
		}
		trades = filtered
	default:
		h.badRequest(w, fmt.Errorf("unknown status %q", status))
		return
	}
	h.writeJSON(w, trades)
}

// PortfolioResponse is the structure for the /api/portfolio endpoint.
type PortfolioResponse struct {
	Settings       models.PortfolioSettings `json:"settings"`
	PortfolioValue float64                  `json:"portfolioValue"`
	OpenTrades     int                      `json:"openTrades"`
}

// PortfolioHandler returns the settings and the current portfolio value.
func (h *APIHandler) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	resp := PortfolioResponse{
		Settings:       h.journal.Settings(),
		PortfolioValue: h.journal.CurrentPortfolioValue(),
	}
	for _, t := range h.journal.Trades() {
		if t.IsActive {
			resp.OpenTrades++
		}
	}
	h.writeJSON(w, resp)
}

// PerformanceHandler returns the daily equity curve.
func (h *APIHandler) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, h.journal.Performance(period))
}

// ComparisonHandler returns trading profit against the benchmark.
func (h *APIHandler) ComparisonHandler(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, h.journal.Comparison(period))
}

// StatisticsHandler returns win rate and realized totals.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, h.journal.Statistics(period))
}

// PositionSizeResponse is the structure for the /api/risk/position endpoint.
type PositionSizeResponse struct {
	PositionSize float64 `json:"positionSize"`
	RiskDollars  float64 `json:"riskDollars"`
	RiskPercent  float64 `json:"riskPercent"`
}

// PositionSizeHandler sizes a position from riskPct of the portfolio, or from
// a fixed dollarRisk when given.
func (h *APIHandler) PositionSizeHandler(w http.ResponseWriter, r *http.Request) {
	in, err := riskInputs(r, true)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	q := r.URL.Query()

	var size float64
	if q.Has("dollarRisk") {
		dollars, err := floatParam(q.Get("dollarRisk"), "dollarRisk")
		if err != nil {
			h.badRequest(w, err)
			return
		}
		size = h.journal.PositionForDollarRisk(in, dollars)
	} else {
		riskPct, err := floatParam(q.Get("riskPct"), "riskPct")
		if err != nil {
			h.badRequest(w, err)
			return
		}
		size = h.journal.PositionSize(in, riskPct)
	}

	in.Quantity = size
	h.writeJSON(w, PositionSizeResponse{
		PositionSize: size,
		RiskDollars:  risk.RiskDollars(in),
		RiskPercent:  h.journal.RiskPercent(in),
	})
}

// StopLossResponse is the structure for the /api/risk/stop endpoint.
type StopLossResponse struct {
	StopLoss    float64 `json:"stopLoss"`
	RiskDollars float64 `json:"riskDollars"`
	RiskPercent float64 `json:"riskPercent"`
}

// StopLossHandler places a stop so the given quantity risks riskPct of the
// portfolio.
func (h *APIHandler) StopLossHandler(w http.ResponseWriter, r *http.Request) {
	in, err := riskInputs(r, false)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	riskPct, err := floatParam(r.URL.Query().Get("riskPct"), "riskPct")
	if err != nil {
		h.badRequest(w, err)
		return
	}

	in.Stop = h.journal.StopLoss(in, riskPct)
	h.writeJSON(w, StopLossResponse{
		StopLoss:    in.Stop,
		RiskDollars: risk.RiskDollars(in),
		RiskPercent: h.journal.RiskPercent(in),
	})
}

// PriceHandler looks up the current market price of an asset.
func (h *APIHandler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	if h.prices == nil {
		http.Error(w, "price lookup is disabled", http.StatusNotFound)
		return
	}
	asset := r.URL.Query().Get("asset")
	if strings.TrimSpace(asset) == "" {
		h.badRequest(w, fmt.Errorf("asset is required"))
		return
	}

	price, err := h.prices.LookupPrice(r.Context(), asset)
	if err != nil {
		h.log.Error("Failed to look up price", zap.String("asset", asset), zap.Error(err))
		http.Error(w, "Failed to look up price", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, struct {
		Asset string   `json:"asset"`
		Price *float64 `json:"price"`
	}{asset, price})
}

// riskInputs reads entry, stop (when withStop), quantity (when !withStop),
// quantityType, direction, fee and feeType.
func riskInputs(r *http.Request, withStop bool) (risk.Inputs, error) {
	q := r.URL.Query()
	var in risk.Inputs
	var err error

	if in.Entry, err = floatParam(q.Get("entry"), "entry"); err != nil {
		return in, err
	}
	if withStop {
		if in.Stop, err = floatParam(q.Get("stop"), "stop"); err != nil {
			return in, err
		}
	} else {
		if in.Quantity, err = floatParam(q.Get("quantity"), "quantity"); err != nil {
			return in, err
		}
	}
	if q.Has("fee") {
		if in.Fee, err = floatParam(q.Get("fee"), "fee"); err != nil {
			return in, err
		}
	}

	switch qt := models.QuantityType(q.Get("quantityType")); qt {
	case "", models.QuantityCoins:
		in.QuantityType = models.QuantityCoins
	case models.QuantityDollars:
		in.QuantityType = qt
	default:
		return in, fmt.Errorf("unknown quantityType %q", qt)
	}
	switch ft := models.FeeType(q.Get("feeType")); ft {
	case "", models.FeePercentage:
		in.FeeType = models.FeePercentage
	case models.FeeFixed:
		in.FeeType = ft
	default:
		return in, fmt.Errorf("unknown feeType %q", ft)
	}
	dir, ok := models.ParseDirection(q.Get("direction"))
	if !ok {
		return in, fmt.Errorf("unknown direction %q", q.Get("direction"))
	}
	in.Short = dir == models.Short
	return in, nil
}

func floatParam(v, name string) (float64, error) {
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func (h *APIHandler) period(w http.ResponseWriter, r *http.Request) (date.Period, bool) {
	period, err := date.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.badRequest(w, err)
		return period, false
	}
	return period, true
}

func (h *APIHandler) badRequest(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}
