package handlers

import (
	"net/http"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/middleware"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
)

// Stock is one row of the stock screener payload.
type Stock struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	YieldPct     float64 `json:"yield_pct"`
	PayoutRatio  float64 `json:"payout_ratio"`
	YearsGrowing int     `json:"years_growing"`
}

type stocksResponse struct {
	Tier   string  `json:"tier"`
	Stocks []Stock `json:"stocks"`
}

var sampleStocks = []Stock{
	{Symbol: "KO", Name: "Coca-Cola", Price: 63.20, YieldPct: 3.1, PayoutRatio: 0.68, YearsGrowing: 63},
	{Symbol: "PG", Name: "Procter & Gamble", Price: 168.45, YieldPct: 2.4, PayoutRatio: 0.61, YearsGrowing: 69},
	{Symbol: "MO", Name: "Altria", Price: 52.10, YieldPct: 7.8, PayoutRatio: 0.80, YearsGrowing: 55},
}

// Stocks serves the dividend stock screener listing.
func Stocks(w http.ResponseWriter, r *http.Request) {
	tier := limits.TierAnonymous
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		tier = identity.Tier
	}

	middleware.WriteJSON(w, http.StatusOK, stocksResponse{
		Tier:   string(tier),
		Stocks: sampleStocks,
	})
}
