package app

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cruisectl/truthmarket/internal/market"
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/healthprobe"
	"github.com/cruisectl/truthmarket/pkg/httpserver"
)

// httpFixture drives the full stack through the HTTP API: router, handler,
// service, engine, storage and bank.
type httpFixture struct {
	*fixture
	srv *httpserver.Server
}

func newHTTPFixture(t *testing.T) *httpFixture {
	f := newFixture(t)

	hc := healthprobe.New()
	hc.SetReady(true)

	srv := httpserver.New(&httpserver.Config{
		Port:          "0",
		Logger:        zaptest.NewLogger(t),
		HealthChecker: hc,
		Service:       f.svc,
		Hub:           httpserver.NewHub(zaptest.NewLogger(t)),
	})
	return &httpFixture{fixture: f, srv: srv}
}

func (f *httpFixture) do(t *testing.T, method, target string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w.Result()
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *httpFixture) createMarketHTTP(t *testing.T, id string, start, end time.Time) market.Snapshot {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/markets", httpserver.CreateMarketRequest{
		ID:            id,
		Admin:         "admin1",
		CommissionBps: 500,
		BuyToken:      "uusd",
		StartTime:     start.Format(time.RFC3339),
		EndTime:       end.Format(time.RFC3339),
		Title:         "BTC above 97000?",
		AssetToTrack:  "BTC",
		Rule:          "price_at",
		TargetPrice:   "97000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[market.Snapshot](t, resp)
}

func TestHTTP_CreateAndSnapshot(t *testing.T) {
	f := newHTTPFixture(t)
	now := time.Now().UTC()
	snap := f.createMarketHTTP(t, "mkt-1", now.Add(-time.Hour), now.Add(time.Hour))

	assert.Equal(t, "mkt-1", snap.ID)
	assert.Equal(t, "pending", snap.Status)
	assert.Equal(t, "95000", snap.InitialPrice.String())

	resp := f.do(t, http.MethodGet, "/api/markets/mkt-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[market.Snapshot](t, resp)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, snap.Options[0].TokenDenom, got.Options[0].TokenDenom)

	resp = f.do(t, http.MethodGet, "/api/markets", nil)
	list := decodeBody[map[string][]string](t, resp)
	assert.Equal(t, []string{"mkt-1"}, list["markets"])
}

func TestHTTP_BuyAndShares(t *testing.T) {
	f := newHTTPFixture(t)
	now := time.Now().UTC()
	f.createMarketHTTP(t, "mkt-1", now.Add(-time.Hour), now.Add(time.Hour))
	f.bank.Credit("alice", "uusd", fixedpoint.NewAmount(1000))

	resp := f.do(t, http.MethodPost, "/api/markets/mkt-1/buy", httpserver.TransitionRequest{
		User: "alice", Option: "Yes", Denom: "uusd", Amount: "1000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[market.Result](t, resp)
	assert.Equal(t, market.EventBuyShare, res.Event)

	resp = f.do(t, http.MethodGet, "/api/markets/mkt-1/shares?user=alice", nil)
	shares := decodeBody[map[string][]market.ShareView](t, resp)
	require.Len(t, shares["shares"], 1)
	// 5% commission on 1000.
	assert.Equal(t, "950", shares["shares"][0].Amount.String())
}

func TestHTTP_SimulateSell(t *testing.T) {
	f := newHTTPFixture(t)
	now := time.Now().UTC()
	f.createMarketHTTP(t, "mkt-1", now.Add(-time.Hour), now.Add(time.Hour))
	f.bank.Credit("alice", "uusd", fixedpoint.NewAmount(1000))

	resp := f.do(t, http.MethodPost, "/api/markets/mkt-1/buy", httpserver.TransitionRequest{
		User: "alice", Option: "Yes", Denom: "uusd", Amount: "1000",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/markets/mkt-1/simulate-sell?option=Yes&amount=400", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	quote := decodeBody[market.SellQuote](t, resp)
	assert.Equal(t, "400", quote.AmountSent.String())

	resp = f.do(t, http.MethodGet, "/api/markets/mkt-1/simulate-sell?option=Yes", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_ErrorStatusMapping(t *testing.T) {
	f := newHTTPFixture(t)
	now := time.Now().UTC()
	f.createMarketHTTP(t, "mkt-1", now.Add(-time.Hour), now.Add(time.Hour))
	f.bank.Credit("alice", "uusd", fixedpoint.NewAmount(100))

	tests := []struct {
		name       string
		method     string
		target     string
		body       any
		wantStatus int
	}{
		{
			name:       "unknown_market_is_404",
			method:     http.MethodGet,
			target:     "/api/markets/no-such/odds",
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "wrong_denom_is_400",
			method: http.MethodPost,
			target: "/api/markets/mkt-1/buy",
			body: httpserver.TransitionRequest{
				User: "alice", Option: "Yes", Denom: "uatom", Amount: "100",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "malformed_amount_is_400",
			method: http.MethodPost,
			target: "/api/markets/mkt-1/buy",
			body: httpserver.TransitionRequest{
				User: "alice", Option: "Yes", Denom: "uusd", Amount: "not-a-number",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "resolve_before_end_is_409",
			method:     http.MethodPost,
			target:     "/api/markets/mkt-1/resolve",
			body:       httpserver.ResolveRequest{Caller: "admin1"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "winnings_missing_user_is_400",
			method:     http.MethodGet,
			target:     "/api/markets/mkt-1/winnings",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			errResp := decodeBody[httpserver.ErrorResponse](t, resp)
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestHTTP_Resolve(t *testing.T) {
	f := newHTTPFixture(t)
	now := time.Now().UTC()
	// Already past its close so it can be resolved immediately.
	f.createMarketHTTP(t, "mkt-1", now.Add(-2*time.Hour), now.Add(-time.Minute))

	resp := f.do(t, http.MethodPost, "/api/markets/mkt-1/resolve", httpserver.ResolveRequest{Caller: "mallory"})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	f.prices.SetPrice("BTC", fixedpoint.MustDec("98000"))
	resp = f.do(t, http.MethodPost, "/api/markets/mkt-1/resolve", httpserver.ResolveRequest{Caller: "admin1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[market.Result](t, resp)
	assert.Equal(t, market.EventResolve, res.Event)

	resp = f.do(t, http.MethodGet, "/api/markets/mkt-1", nil)
	snap := decodeBody[market.Snapshot](t, resp)
	assert.Equal(t, "resolved", snap.Status)
	assert.Equal(t, "Yes", snap.WinningOption)
}
