package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
	"analystprovider/internal/provider/providertest"
	"analystprovider/internal/report"
)

func fakeProvider() *providertest.Stub {
	return &providertest.Stub{
		ProviderName: "fake",
		PeersFunc: func(_ context.Context, s analysis.Symbol) (analysis.Symbols, error) {
			if s == "DOWN" {
				return nil, provider.NewRequestError("fake", provider.OpPeers, s, provider.ErrUnavailable)
			}
			return analysis.NewSymbols("MSFT"), nil
		},
		TargetPriceFunc: func(_ context.Context, s analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
			if s == "DOWN" {
				return nil, provider.NewRequestError("fake", provider.OpTargetPrice, s, provider.ErrUnavailable)
			}
			return &analysis.Snapshot[analysis.PriceTarget]{Value: analysis.PriceTarget{
				High: decimal.NewFromInt(250), Low: decimal.NewFromInt(164), Average: decimal.RequireFromString("203.95"), NumberOfAnalysts: 38,
			}}, nil
		},
		ConsensusRatingFunc: func(_ context.Context, s analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
			if s == "DOWN" {
				return nil, provider.NewRequestError("fake", provider.OpConsensusRating, s, provider.ErrUnavailable)
			}
			return nil, nil
		},
		ConsensusEPSFunc: func(_ context.Context, s analysis.Symbol) ([]analysis.EPSConsensus, error) {
			if s == "DOWN" {
				return nil, provider.NewRequestError("fake", provider.OpConsensusEPS, s, provider.ErrUnavailable)
			}
			return nil, nil
		},
	}
}

func serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	h := withRequestLog(zerolog.Nop(), recoverPanic(limitBody(maxRequestBody, withCORS(newGzipper().wrap(analysisHandler(fakeProvider(), time.Second))))))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetAnalysis(t *testing.T) {
	t.Parallel()

	rr := serve(t, httptest.NewRequest(http.MethodGet, "/api/analysis?symbol=aapl", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var rep report.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	require.Equal(t, analysis.Symbol("AAPL"), rep.Symbol)
	require.Equal(t, "fake", rep.Provider)
	require.Equal(t, report.StatusOK, rep.Peers.Status)
	require.Equal(t, []analysis.Symbol{"MSFT"}, rep.Peers.Data)
	require.True(t, rep.TargetPrice.Data.Valid)
	require.True(t, rep.TargetPrice.Data.Value.Average.Equal(decimal.RequireFromString("203.95")))
	require.Equal(t, report.StatusAbsent, rep.Ratings.Status)
}

func TestGetAnalysis_MissingSymbol(t *testing.T) {
	t.Parallel()

	rr := serve(t, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.JSONEq(t, `{"error":"missing symbol query param"}`, rr.Body.String())
}

func TestGetAnalysis_AllSectionsFailed(t *testing.T) {
	t.Parallel()

	rr := serve(t, httptest.NewRequest(http.MethodGet, "/api/analysis?symbol=DOWN", nil))
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var rep report.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	require.Equal(t, "unavailable", rep.EPS.Class)
}

func TestPostAnalysis(t *testing.T) {
	t.Parallel()

	body := strings.NewReader(`{"symbols":["aapl"," MSFT ","AAPL","DOWN",""]}`)
	rr := serve(t, httptest.NewRequest(http.MethodPost, "/api/analysis", body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp reportsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Reports, 3)
	require.Equal(t, analysis.Symbol("AAPL"), resp.Reports[0].Symbol)
	require.Equal(t, analysis.Symbol("MSFT"), resp.Reports[1].Symbol)
	require.True(t, resp.Reports[2].Failed())
}

func TestPostAnalysis_BadRequests(t *testing.T) {
	t.Parallel()

	many := make([]string, maxSymbols+1)
	for i := range many {
		many[i] = fmt.Sprintf("S%d", i)
	}
	manyBody, err := json.Marshal(postBody{Symbols: many})
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "invalid json", body: `{`, want: "invalid JSON body"},
		{name: "unknown field", body: `{"tickers":["AAPL"]}`, want: "invalid JSON body"},
		{name: "empty", body: `{"symbols":[" "]}`, want: "symbols cannot be empty"},
		{name: "too many", body: string(manyBody), want: "too many symbols"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := serve(t, httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(tt.body)))
			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestAnalysis_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	rr := serve(t, httptest.NewRequest(http.MethodDelete, "/api/analysis", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAnalysis_Options(t *testing.T) {
	t.Parallel()

	rr := serve(t, httptest.NewRequest(http.MethodOptions, "/api/analysis", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalysis_Gzip(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?symbol=AAPL", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := serve(t, req)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	b, err := io.ReadAll(zr)
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal(b, &rep))
	require.Equal(t, analysis.Symbol("AAPL"), rep.Symbol)
}

func TestRecoverPanic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := withRequestLog(zerolog.New(&buf), recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
	require.Contains(t, buf.String(), `"panic":"boom"`)
	require.Contains(t, buf.String(), `"status":500`)
}

func TestRequestLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := withRequestLog(zerolog.New(&buf), analysisHandler(fakeProvider(), time.Second))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analysis?symbol=AAPL", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	id := rr.Header().Get("X-Request-Id")
	require.NotEmpty(t, id)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "request", line["message"])
	require.Equal(t, id, line["req_id"])
	require.EqualValues(t, http.StatusOK, line["status"])
	require.Equal(t, "/api/analysis?symbol=AAPL", line["url"])
}

func TestLimitBody(t *testing.T) {
	t.Parallel()

	body := `{"symbols":["` + strings.Repeat("A", 64) + `"]}`
	h := limitBody(16, analysisHandler(fakeProvider(), time.Second))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid JSON body")
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := normalize([]string{"aapl", "", " msft", "AAPL"})
	require.Equal(t, []analysis.Symbol{"AAPL", "MSFT"}, got)
}
