package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/config"
	"github.com/KonghaYao/text2location/app/requests"
	"github.com/KonghaYao/text2location/app/responses"
	"github.com/KonghaYao/text2location/app/services"
)

// AddressController address lookup endpoints
type AddressController struct {
	addressService *services.AddressService
	logger         *zap.Logger
}

func NewAddressController(addressService *services.AddressService, logger *zap.Logger) *AddressController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressController{addressService: addressService, logger: logger}
}

// Search GET /v1/addresses/search?q=&limit=
func (ac *AddressController) Search(c *gin.Context) {
	var req requests.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	out, err := ac.addressService.Search(ctx, req.Query, req.Limit)
	if err != nil {
		ac.logger.Debug("Search failed", zap.String("q", req.Query), zap.Error(err))
		respondServiceError(c, err)
		return
	}

	display := make([]string, len(out.Results))
	for i, r := range out.Results {
		display[i] = r.String()
	}
	c.JSON(http.StatusOK, responses.SearchResponse{
		Query:            out.Query,
		NormalizedQuery:  out.NormalizedQuery,
		Results:          out.Results,
		Display:          display,
		ProcessingTimeMs: ms(out.ProcessingTime),
		CacheHit:         out.CacheHit,
	})
}

// First GET /v1/addresses/first?q=
func (ac *AddressController) First(c *gin.Context) {
	var req requests.FirstRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	result, out, err := ac.addressService.SearchFirst(ctx, req.Query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := responses.FirstResponse{
		Query:            out.Query,
		NormalizedQuery:  out.NormalizedQuery,
		Result:           result,
		ProcessingTimeMs: ms(out.ProcessingTime),
		CacheHit:         out.CacheHit,
	}
	if result != nil {
		resp.Display = result.String()
	}
	c.JSON(http.StatusOK, resp)
}

// HealthCheck liveness
func (ac *AddressController) HealthCheck(c *gin.Context) {
	uptime := time.Since(ac.addressService.GetStartTime())
	index := ac.addressService.Index()

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.Round(time.Second).String(),
		Version:   Version,
		Services: map[string]string{
			"index":    index.State().String(),
			"strategy": string(index.Strategy()),
		},
	})
}

// Ready 503 until the index has been published once
func (ac *AddressController) Ready(c *gin.Context) {
	index := ac.addressService.Index()
	if !index.Queryable() {
		respondError(c, http.StatusServiceUnavailable, "NOT_READY", "index state is "+index.State().String())
		return
	}
	ac.HealthCheck(c)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
