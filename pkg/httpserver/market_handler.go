package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/market"
	"github.com/cruisectl/truthmarket/internal/registry"
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// MarketService is the market application surface the HTTP layer exposes.
type MarketService interface {
	CreateMarket(ctx context.Context, p registry.Params) (market.Snapshot, error)
	ListMarkets(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, marketID string) (market.Snapshot, error)
	Odds(ctx context.Context, marketID string) ([2]market.OptionOdds, error)
	TotalsPerOption(ctx context.Context, marketID string) ([2]market.OptionTotal, error)
	UserShares(ctx context.Context, marketID, user string) ([]market.ShareView, error)
	AllShares(ctx context.Context, marketID string) ([]market.ShareView, error)
	PotentialWinnings(ctx context.Context, marketID, user string) ([2]market.OptionWinnings, error)
	ActualWinnings(ctx context.Context, marketID, user string) (types.Coin, error)
	TaxRate(ctx context.Context, marketID string, now time.Time) (fixedpoint.Dec, error)
	SimulateSell(ctx context.Context, marketID, option string, amount fixedpoint.Amount, now time.Time) (market.SellQuote, error)

	Buy(ctx context.Context, marketID string, in market.BuyInput) (*market.Result, error)
	Sell(ctx context.Context, marketID string, in market.SellInput) (*market.Result, error)
	Resolve(ctx context.Context, marketID, caller string, now time.Time) (*market.Result, error)
	Withdraw(ctx context.Context, marketID string, in market.WithdrawInput) (*market.Result, error)
}

// MarketHandler serves the market API on top of the application service.
type MarketHandler struct {
	svc    MarketService
	logger *zap.Logger
	now    func() time.Time
}

// NewMarketHandler creates a market API handler.
func NewMarketHandler(svc MarketService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		svc:    svc,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Class string `json:"class,omitempty"`
}

// statusForClass maps the engine's error classes onto HTTP status codes.
func statusForClass(class types.ErrorClass) int {
	switch class {
	case types.ErrClassValidation:
		return http.StatusBadRequest
	case types.ErrClassAuthorization:
		return http.StatusForbidden
	case types.ErrClassStateConflict:
		return http.StatusConflict
	case types.ErrClassNotFound:
		return http.StatusNotFound
	case types.ErrClassUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *MarketHandler) writeError(w http.ResponseWriter, err error) {
	class := types.ClassOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForClass(class))
	encErr := json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), Class: string(class)})
	if encErr != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(encErr))
	}
}

func (h *MarketHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// CreateMarketRequest is the body of POST /api/markets.
type CreateMarketRequest struct {
	ID            string `json:"id,omitempty"`
	Admin         string `json:"admin"`
	CommissionBps uint32 `json:"commission_bps"`
	BuyToken      string `json:"buy_token"`
	StartTime     string `json:"start_time"` // RFC3339
	EndTime       string `json:"end_time"`   // RFC3339

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	BannerURL   string `json:"banner_url,omitempty"`

	Oracle           string `json:"oracle,omitempty"`
	ResolutionSource string `json:"resolution_source,omitempty"`
	AssetToTrack     string `json:"asset_to_track"`
	Rule             string `json:"rule"`
	TargetPrice      string `json:"target_price"`
}

// HandleCreateMarket handles POST /api/markets.
func (h *MarketHandler) HandleCreateMarket(w http.ResponseWriter, r *http.Request) {
	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.ErrValidation("decode request: %v", err))
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		h.writeError(w, types.ErrValidation("parse start_time: %v", err))
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		h.writeError(w, types.ErrValidation("parse end_time: %v", err))
		return
	}
	target, err := fixedpoint.DecFromString(req.TargetPrice)
	if err != nil {
		h.writeError(w, types.ErrValidation("parse target_price: %v", err))
		return
	}

	snap, err := h.svc.CreateMarket(r.Context(), registry.Params{
		ID:               req.ID,
		Admin:            req.Admin,
		CommissionBps:    req.CommissionBps,
		BuyToken:         req.BuyToken,
		StartTime:        start,
		EndTime:          end,
		Title:            req.Title,
		Description:      req.Description,
		BannerURL:        req.BannerURL,
		Oracle:           req.Oracle,
		ResolutionSource: req.ResolutionSource,
		AssetToTrack:     req.AssetToTrack,
		Rule:             market.Rule(req.Rule),
		TargetPrice:      target,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, snap)
}

// HandleListMarkets handles GET /api/markets.
func (h *MarketHandler) HandleListMarkets(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.ListMarkets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"markets": ids})
}

// HandleSnapshot handles GET /api/markets/{marketID}.
func (h *MarketHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// HandleOdds handles GET /api/markets/{marketID}/odds.
func (h *MarketHandler) HandleOdds(w http.ResponseWriter, r *http.Request) {
	odds, err := h.svc.Odds(r.Context(), chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"odds": odds})
}

// HandleTotals handles GET /api/markets/{marketID}/totals.
func (h *MarketHandler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.svc.TotalsPerOption(r.Context(), chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"totals": totals})
}

// HandleShares handles GET /api/markets/{marketID}/shares[?user=].
func (h *MarketHandler) HandleShares(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	user := r.URL.Query().Get("user")

	var (
		views []market.ShareView
		err   error
	)
	if user == "" {
		views, err = h.svc.AllShares(r.Context(), marketID)
	} else {
		views, err = h.svc.UserShares(r.Context(), marketID, user)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"shares": views})
}

// HandleWinnings handles GET /api/markets/{marketID}/winnings?user=.
// It reports both the per-option potential payout and the realized payout
// after resolution.
func (h *MarketHandler) HandleWinnings(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	user := r.URL.Query().Get("user")
	if user == "" {
		h.writeError(w, types.ErrValidation("missing required query parameter: user"))
		return
	}

	potential, err := h.svc.PotentialWinnings(r.Context(), marketID, user)
	if err != nil {
		h.writeError(w, err)
		return
	}
	actual, err := h.svc.ActualWinnings(r.Context(), marketID, user)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"potential": potential,
		"actual":    actual,
	})
}

// HandleTaxRate handles GET /api/markets/{marketID}/tax-rate.
func (h *MarketHandler) HandleTaxRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.TaxRate(r.Context(), chi.URLParam(r, "marketID"), h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"tax_rate": rate.String()})
}

// HandleSimulateSell handles
// GET /api/markets/{marketID}/simulate-sell?option=&amount=.
func (h *MarketHandler) HandleSimulateSell(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	option := r.URL.Query().Get("option")
	amountStr := r.URL.Query().Get("amount")
	if option == "" || amountStr == "" {
		h.writeError(w, types.ErrValidation("missing required query parameters: option, amount"))
		return
	}
	amount, err := fixedpoint.AmountFromString(amountStr)
	if err != nil {
		h.writeError(w, types.ErrValidation("parse amount: %v", err))
		return
	}

	quote, err := h.svc.SimulateSell(r.Context(), marketID, option, amount, h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// TransitionRequest is the shared body shape of the buy/sell/withdraw
// endpoints: the acting user and the coin they send.
type TransitionRequest struct {
	User   string `json:"user"`
	Option string `json:"option,omitempty"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func (req *TransitionRequest) coin() (types.Coin, error) {
	amount, err := fixedpoint.AmountFromString(req.Amount)
	if err != nil {
		return types.Coin{}, types.ErrValidation("parse amount: %v", err)
	}
	return types.NewCoin(req.Denom, amount), nil
}

func (h *MarketHandler) decodeTransition(w http.ResponseWriter, r *http.Request) (TransitionRequest, types.Coin, bool) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.ErrValidation("decode request: %v", err))
		return TransitionRequest{}, types.Coin{}, false
	}
	payment, err := req.coin()
	if err != nil {
		h.writeError(w, err)
		return TransitionRequest{}, types.Coin{}, false
	}
	return req, payment, true
}

// HandleBuy handles POST /api/markets/{marketID}/buy.
func (h *MarketHandler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	req, payment, ok := h.decodeTransition(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Buy(r.Context(), chi.URLParam(r, "marketID"), market.BuyInput{
		Buyer:   req.User,
		Option:  req.Option,
		Payment: payment,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// HandleSell handles POST /api/markets/{marketID}/sell.
func (h *MarketHandler) HandleSell(w http.ResponseWriter, r *http.Request) {
	req, payment, ok := h.decodeTransition(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Sell(r.Context(), chi.URLParam(r, "marketID"), market.SellInput{
		Seller:  req.User,
		Option:  req.Option,
		Payment: payment,
		Now:     h.now(),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// ResolveRequest is the body of POST /api/markets/{marketID}/resolve.
type ResolveRequest struct {
	Caller string `json:"caller"`
}

// HandleResolve handles POST /api/markets/{marketID}/resolve.
func (h *MarketHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.ErrValidation("decode request: %v", err))
		return
	}

	res, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "marketID"), req.Caller, h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// HandleWithdraw handles POST /api/markets/{marketID}/withdraw.
func (h *MarketHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	req, payment, ok := h.decodeTransition(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Withdraw(r.Context(), chi.URLParam(r, "marketID"), market.WithdrawInput{
		User:    req.User,
		Payment: payment,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}
