package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonghaYao/text2location/app/controllers"
	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/app/services"
	"github.com/KonghaYao/text2location/internal/normalizer"
	"github.com/KonghaYao/text2location/internal/search"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	si, err := search.New(search.Options{Tokenizer: normalizer.TokenizerFunc(func(string) []string { return nil })})
	require.NoError(t, err)
	t.Cleanup(func() { _ = si.Close() })
	require.NoError(t, services.IndexAddresses(si, []models.ResolvedAddress{
		{Province: "广东省", City: "梅州市", District: "兴宁市", AddressCode: "441481000000"},
	}, 10))

	addresses := services.NewAddressService(si, services.NewCacheService(10, time.Minute), 10, nil)
	admin := services.NewAdminService(addresses, services.AdminOptions{}, nil)

	r := gin.New()
	SetupAllRoutes(r, controllers.NewAddressController(addresses, nil), controllers.NewAdminController(admin, addresses, nil))
	return r
}

func get(r *gin.Engine, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupAllRoutes(t *testing.T) {
	r := newRouter(t)

	testCases := []struct {
		target string
		status int
	}{
		{"/", http.StatusOK},
		{"/docs", http.StatusOK},
		{"/health", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/live", http.StatusOK},
		{"/v1/health", http.StatusOK},
		{"/v1/addresses/search?q=兴宁市", http.StatusOK},
		{"/v1/addresses/first?q=兴宁市", http.StatusOK},
		{"/v1/admin/weights", http.StatusOK},
		{"/v1/admin/stats", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/v1/addresses/parse", http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			assert.Equal(t, tc.status, get(r, tc.target, nil).Code)
		})
	}
}

func TestMetricsExposeSearchCounters(t *testing.T) {
	r := newRouter(t)
	get(r, "/v1/addresses/search?q=兴宁市", nil)

	w := get(r, "/metrics", nil)
	assert.Contains(t, w.Body.String(), "text2location_search_requests_total")
}

func TestRequestID(t *testing.T) {
	r := newRouter(t)

	w := get(r, "/health", nil)
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	w = get(r, "/health", http.Header{requestIDHeader: []string{"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))

	w = get(r, "/v1/addresses/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), w.Header().Get(requestIDHeader))
}
