package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/app/responses"
	"github.com/KonghaYao/text2location/app/services"
	"github.com/KonghaYao/text2location/internal/normalizer"
	"github.com/KonghaYao/text2location/internal/regions"
	"github.com/KonghaYao/text2location/internal/resolver"
	"github.com/KonghaYao/text2location/internal/search"
)

var wholeWords = normalizer.TokenizerFunc(func(string) []string { return nil })

var fixture = []models.ResolvedAddress{
	{Province: "广东省", City: "梅州市", District: "兴宁市", AddressCode: "441481000000"},
	{Province: "广东省", City: "梅州市", District: "梅江区", AddressCode: "441402000000"},
	{Province: "上海市", City: "上海市", District: "浦东新区", AddressCode: "310115000000"},
}

const areasCSV = `id,pid,deep,name,pinyin_prefix,pinyin,ext_id,ext_name
44,0,0,广东,g,guangdong,440000000000,广东省
4414,44,1,梅州,m,meizhou,441400000000,梅州市
441481,4414,2,兴宁,x,xingning,441481000000,兴宁市
`

type testServer struct {
	router    *gin.Engine
	addresses *services.AddressService
}

func newTestServer(t *testing.T, publish bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	si, err := search.New(search.Options{Tokenizer: wholeWords})
	require.NoError(t, err)
	t.Cleanup(func() { _ = si.Close() })
	if publish {
		require.NoError(t, services.IndexAddresses(si, fixture, 10))
	}

	csvPath := filepath.Join(t.TempDir(), "areas.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(areasCSV), 0o644))

	addresses := services.NewAddressService(si, services.NewCacheService(100, time.Minute), 10, nil)
	admin := services.NewAdminService(addresses, services.AdminOptions{
		OpenSource: func(ctx context.Context) (regions.Source, error) {
			return &regions.CSVSource{Path: csvPath}, nil
		},
		Resolve:   resolver.Options{Workers: 1},
		BatchSize: 10,
		Index:     search.Options{Tokenizer: wholeWords},
	}, nil)

	ac := NewAddressController(addresses, nil)
	adm := NewAdminController(admin, addresses, nil)

	r := gin.New()
	r.GET("/v1/addresses/search", ac.Search)
	r.GET("/v1/addresses/first", ac.First)
	r.GET("/health", ac.HealthCheck)
	r.GET("/ready", ac.Ready)
	r.GET("/v1/admin/weights", adm.GetWeights)
	r.PUT("/v1/admin/weights", adm.UpdateWeights)
	r.POST("/v1/admin/reload", adm.Reload)
	r.POST("/v1/admin/cache/invalidate", adm.InvalidateCache)
	r.GET("/v1/admin/stats", adm.GetStats)
	r.POST("/v1/admin/export/meili", adm.ExportMeili)

	return &testServer{router: r, addresses: addresses}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestAddressController_Search(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodGet, "/v1/addresses/search?q=梅州市&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.SearchResponse
	decode(t, w, &resp)
	assert.Equal(t, "梅州市", resp.NormalizedQuery)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "441402000000", resp.Results[0].AddressCode, "equal scores order by code")
	assert.Equal(t, resp.Results[0].String(), resp.Display[0])
	assert.False(t, resp.CacheHit)

	w = ts.do(t, http.MethodGet, "/v1/addresses/search?q=梅州市&limit=5", "")
	decode(t, w, &resp)
	assert.True(t, resp.CacheHit)
}

func TestAddressController_SearchBadRequests(t *testing.T) {
	ts := newTestServer(t, true)

	testCases := []struct {
		name   string
		target string
		code   string
	}{
		{"missing q", "/v1/addresses/search", "INVALID_REQUEST"},
		{"limit too large", "/v1/addresses/search?q=x&limit=1000", "INVALID_REQUEST"},
		{"no terms", "/v1/addresses/search?q=%EF%BC%8C%EF%BC%8C", "INVALID_QUERY"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, tc.target, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp responses.ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tc.code, resp.Error)
		})
	}
}

func TestAddressController_First(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodGet, "/v1/addresses/first?q=浦东新区", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp responses.FirstResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "310115000000", resp.Result.AddressCode)
	assert.Equal(t, "code: 310115000000 | province: 上海市 | city: 上海市 | district: 浦东新区 | county: ", resp.Display)

	w = ts.do(t, http.MethodGet, "/v1/addresses/first?q=乌鲁木齐", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = responses.FirstResponse{}
	decode(t, w, &resp)
	assert.Nil(t, resp.Result)
	assert.Empty(t, resp.Display)
}

func TestAddressController_NotQueryable(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = ts.do(t, http.MethodGet, "/v1/addresses/search?q=梅州市", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health responses.HealthCheckResponse
	decode(t, w, &health)
	assert.Equal(t, "created", health.Services["index"])
}

func TestAddressController_SearchFailures(t *testing.T) {
	ts := newTestServer(t, true)

	serve := func(ctx context.Context, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		return w
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	w := serve(canceled, "/v1/addresses/search?q=梅州市")
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_CANCELED")

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	w = serve(expired, "/v1/addresses/search?q=兴宁市")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "TIMEOUT")

	w = ts.do(t, http.MethodGet, "/v1/addresses/search?q=，，", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_QUERY")

	require.NoError(t, ts.addresses.Index().Close())
	w = ts.do(t, http.MethodGet, "/v1/addresses/search?q=梅江区", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SEARCH_FAILED")
}

func TestErrorStatus(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"deadline", search.QueryError("search interrupted", context.DeadlineExceeded), http.StatusGatewayTimeout, "TIMEOUT"},
		{"canceled", search.QueryError("search interrupted", context.Canceled), http.StatusRequestTimeout, "REQUEST_CANCELED"},
		{"not queryable", search.QueryError("search rejected", search.ErrNotQueryable), http.StatusServiceUnavailable, "NOT_READY"},
		{"bad weights", search.FieldWeights{}.Validate(), http.StatusBadRequest, "INVALID_WEIGHTS"},
		{"unusable query", search.QueryError("no terms", nil), http.StatusBadRequest, "INVALID_QUERY"},
		{"engine failure", search.QueryError("search failed", errors.New("index closed")), http.StatusInternalServerError, "SEARCH_FAILED"},
		{"index", search.IndexError("commit failed", nil), http.StatusInternalServerError, "INDEX_ERROR"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := errorStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestAdminController_Weights(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodGet, "/v1/admin/weights", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp responses.WeightsResponse
	decode(t, w, &resp)
	assert.Equal(t, search.DefaultWeights(), resp.Weights)

	w = ts.do(t, http.MethodPut, "/v1/admin/weights", `{"province":8,"city":4,"district":2,"county":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, search.FieldWeights{Province: 8, City: 4, District: 2, County: 1}, resp.Weights)
	assert.Empty(t, resp.Note)
	assert.Equal(t, 8.0, ts.addresses.Weights().Province)

	w = ts.do(t, http.MethodPut, "/v1/admin/weights", `{"province":0,"city":0,"district":0,"county":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp responses.ErrorResponse
	decode(t, w, &errResp)
	assert.Equal(t, "INVALID_WEIGHTS", errResp.Error)

	w = ts.do(t, http.MethodPut, "/v1/admin/weights", `{"province":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 8.0, ts.addresses.Weights().Province, "rejected updates keep the old weights")
}

func TestAdminController_ReloadAndStats(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodPost, "/v1/admin/reload", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/v1/addresses/first?q=兴宁市", "")
	var first responses.FirstResponse
	decode(t, w, &first)
	require.NotNil(t, first.Result)
	assert.Equal(t, "441481000000", first.Result.AddressCode)

	w = ts.do(t, http.MethodGet, "/v1/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.SystemStats
	decode(t, w, &stats)
	assert.Equal(t, uint64(3), stats.Documents)
	assert.Equal(t, "queryable", stats.State)
	require.NotNil(t, stats.LastRebuild)
	assert.Equal(t, 3, stats.LastRebuild.Documents)
}

func TestAdminController_InvalidateCache(t *testing.T) {
	ts := newTestServer(t, true)

	ts.do(t, http.MethodGet, "/v1/addresses/search?q=梅州市", "")
	w := ts.do(t, http.MethodPost, "/v1/admin/cache/invalidate", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/v1/addresses/search?q=梅州市", "")
	var resp responses.SearchResponse
	decode(t, w, &resp)
	assert.False(t, resp.CacheHit)
}

func TestAdminController_ExportDisabled(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodPost, "/v1/admin/export/meili", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
