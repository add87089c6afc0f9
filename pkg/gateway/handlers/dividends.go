package handlers

import (
	"net/http"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/middleware"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
)

// Dividend is one row of the dividend history payload.
type Dividend struct {
	Symbol    string  `json:"symbol"`
	ExDate    string  `json:"ex_date"`
	PayDate   string  `json:"pay_date"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
	YieldPct  float64 `json:"yield_pct"`
}

type dividendsResponse struct {
	Tier      string     `json:"tier"`
	Dividends []Dividend `json:"dividends"`
}

// sampleDividends is a fixed payload; the endpoint exists so the metered
// chain has real traffic behind it.
var sampleDividends = []Dividend{
	{Symbol: "KO", ExDate: "2026-06-12", PayDate: "2026-07-01", Amount: 0.485, Frequency: "quarterly", YieldPct: 3.1},
	{Symbol: "JNJ", ExDate: "2026-05-26", PayDate: "2026-06-09", Amount: 1.24, Frequency: "quarterly", YieldPct: 3.4},
	{Symbol: "O", ExDate: "2026-06-02", PayDate: "2026-06-13", Amount: 0.2635, Frequency: "monthly", YieldPct: 5.6},
}

// Dividends serves the dividend history listing. Anonymous callers are
// served at the anonymous quota; the payload notes the effective tier.
func Dividends(w http.ResponseWriter, r *http.Request) {
	tier := limits.TierAnonymous
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		tier = identity.Tier
	}

	middleware.WriteJSON(w, http.StatusOK, dividendsResponse{
		Tier:      string(tier),
		Dividends: sampleDividends,
	})
}
