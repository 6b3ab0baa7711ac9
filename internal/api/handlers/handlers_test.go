package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/internal/ranking"
)

// bankJSON renders a record where higher-is-better metrics take high and
// lower-is-better metrics take low.
func bankJSON(name string, high, low, ldr float64) string {
	fields := []string{fmt.Sprintf(`"name":%q`, name)}
	for _, m := range contracts.RankedMetrics {
		v := low
		if m.Direction == contracts.HigherIsBetter {
			v = high
		}
		fields = append(fields, fmt.Sprintf(`%q:%g`, m.Key, v))
	}
	fields = append(fields, fmt.Sprintf(`"ldr":%g`, ldr))
	return "{" + strings.Join(fields, ",") + "}"
}

func rawBank(t *testing.T, name string, high, low, ldr float64) contracts.RawBank {
	t.Helper()
	var bank contracts.RawBank
	require.NoError(t, json.Unmarshal([]byte(bankJSON(name, high, low, ldr)), &bank))
	return bank
}

type recordingObserver struct {
	results []string
}

func (o *recordingObserver) ObserveRanking(result string, banks int) {
	o.results = append(o.results, result)
}

type fakeSource struct {
	periods []contracts.Period
	banks   map[string][]contracts.RawBank
	err     error
}

func (f *fakeSource) ListPeriods(ctx context.Context) ([]contracts.Period, error) {
	return f.periods, f.err
}

func (f *fakeSource) LoadPeriod(ctx context.Context, period string) ([]contracts.RawBank, error) {
	if f.err != nil {
		return nil, f.err
	}
	banks, ok := f.banks[period]
	if !ok {
		return nil, fmt.Errorf("period %s: %w", period, contracts.ErrPeriodNotFound)
	}
	return banks, nil
}

type failingEngine struct{}

func (failingEngine) Rank(ctx context.Context, banks []contracts.RawBank) ([]contracts.RankedBank, error) {
	return nil, errors.New("engine exploded")
}

func postCalculate(h *RankingHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Calculate(rec, req)
	return rec
}

func TestCalculate_Success(t *testing.T) {
	obs := &recordingObserver{}
	h := NewRankingHandler(ranking.NewEngine(nil), nil, obs, nil)

	body := "[" + bankJSON("Bank B", 1, 9, 80) + "," + bankJSON("Bank A", 5, 2, 90.5) + "]"
	rec := postCalculate(h, body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[
		{"name":"Bank A","ldr":90.5,"total_points":11,"rank":1},
		{"name":"Bank B","ldr":80,"total_points":22,"rank":2}
	]`, rec.Body.String())
	assert.Equal(t, []string{ResultOK}, obs.results)
}

func TestCalculate_Errors(t *testing.T) {
	valid := bankJSON("Bank A", 5, 2, 90)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantResult string
	}{
		{"empty body", "", http.StatusBadRequest, contracts.ErrInvalidRequest.Error(), ResultInvalidRequest},
		{"malformed json", "[{", http.StatusBadRequest, contracts.ErrInvalidRequest.Error(), ResultInvalidRequest},
		{"object instead of list", valid, http.StatusBadRequest, contracts.ErrInvalidRequest.Error(), ResultInvalidRequest},
		{"empty list", "[]", http.StatusBadRequest, contracts.ErrInvalidRequest.Error(), ResultInvalidRequest},
		{"null", "null", http.StatusBadRequest, contracts.ErrInvalidRequest.Error(), ResultInvalidRequest},
		{"missing field", `[{"name":"Bank X","roa":1}]`, http.StatusBadRequest, contracts.ErrInvalidInputData.Error(), ResultInvalidInput},
		{"non numeric", "[" + strings.Replace(valid, `"roa":5`, `"roa":"abc"`, 1) + "]", http.StatusBadRequest, contracts.ErrInvalidInputData.Error(), ResultInvalidInput},
		{"element not object", "[" + valid + ",42]", http.StatusBadRequest, contracts.ErrInvalidInputData.Error(), ResultInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			h := NewRankingHandler(ranking.NewEngine(nil), nil, obs, nil)

			rec := postCalculate(h, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.wantError), rec.Body.String())
			assert.Equal(t, []string{tt.wantResult}, obs.results)
		})
	}
}

func TestCalculate_NumericStringsAccepted(t *testing.T) {
	h := NewRankingHandler(ranking.NewEngine(nil), nil, nil, nil)

	body := "[" + strings.Replace(bankJSON("Bank A", 5, 2, 90), `"roa":5`, `"roa":" 5.0 "`, 1) + "]"
	rec := postCalculate(h, body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ranked []contracts.RankedBank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
	require.Len(t, ranked, 1)
	assert.Equal(t, 11, ranked[0].TotalPoints)
	assert.Equal(t, 1, ranked[0].Rank)
}

func TestCalculate_BodyTooLarge(t *testing.T) {
	h := NewRankingHandler(ranking.NewEngine(nil), nil, nil, nil)

	body := `[{"name":"` + strings.Repeat("x", MaxRequestBody) + `"}]`
	rec := postCalculate(h, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculate_EngineFailure(t *testing.T) {
	obs := &recordingObserver{}
	h := NewRankingHandler(failingEngine{}, nil, obs, nil)

	rec := postCalculate(h, "["+bankJSON("Bank A", 5, 2, 90)+"]")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Equal(t, []string{ResultError}, obs.results)
}

func periodRouter(h *RankingHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/periods", h.ListPeriods).Methods(http.MethodGet)
	r.HandleFunc("/api/rankings/{period}", h.GetPeriodRanking).Methods(http.MethodGet)
	return r
}

func TestPeriodEndpoints(t *testing.T) {
	src := &fakeSource{
		periods: []contracts.Period{{Code: "2024Q4", BankCount: 2}},
		banks: map[string][]contracts.RawBank{
			"2024Q4": {rawBank(t, "Bank B", 1, 9, 80), rawBank(t, "Bank A", 5, 2, 90)},
		},
	}
	h := NewRankingHandler(ranking.NewEngine(nil), src, nil, nil)
	require.True(t, h.HasSource())
	r := periodRouter(h)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/periods", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var periods []contracts.Period
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &periods))
		require.Len(t, periods, 1)
		assert.Equal(t, "2024Q4", periods[0].Code)
	})

	t.Run("ranking", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/2024Q4", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var ranked []contracts.RankedBank
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
		require.Len(t, ranked, 2)
		assert.Equal(t, "Bank A", ranked[0].Name)
		assert.Equal(t, 1, ranked[0].Rank)
	})

	t.Run("unknown period", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/1999Q1", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Reporting period not found."}`, rec.Body.String())
	})
}

func TestPeriodEndpoints_SourceFailure(t *testing.T) {
	h := NewRankingHandler(ranking.NewEngine(nil), &fakeSource{err: errors.New("connection refused")}, nil, nil)
	r := periodRouter(h)

	for _, path := range []string{"/api/periods", "/api/rankings/2024Q4"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}
}

func TestPeriodEndpoints_NoSource(t *testing.T) {
	h := NewRankingHandler(ranking.NewEngine(nil), nil, nil, nil)
	assert.False(t, h.HasSource())

	rec := httptest.NewRecorder()
	periodRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/periods", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		deps []Dependency
		want string
	}{
		{"no dependencies", nil, `{"status":"ok","service":"bankrank-api"}`},
		{"nil pinger skipped", []Dependency{{Name: "database"}}, `{"status":"ok","service":"bankrank-api"}`},
		{"database up", []Dependency{{Name: "database", Pinger: fakePinger{}}}, `{"status":"ok","service":"bankrank-api","database":"ok"}`},
		{
			"redis down",
			[]Dependency{{Name: "database", Pinger: fakePinger{}}, {Name: "redis", Pinger: fakePinger{err: errors.New("down")}}},
			`{"status":"degraded","service":"bankrank-api","database":"ok","redis":"unreachable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.deps...).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}
