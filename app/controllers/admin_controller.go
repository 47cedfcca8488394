package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/requests"
	"github.com/KonghaYao/text2location/app/responses"
	"github.com/KonghaYao/text2location/app/services"
	"github.com/KonghaYao/text2location/internal/search"
)

// AdminController index maintenance endpoints
type AdminController struct {
	adminService   *services.AdminService
	addressService *services.AddressService
	logger         *zap.Logger
}

func NewAdminController(adminService *services.AdminService, addressService *services.AddressService, logger *zap.Logger) *AdminController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminController{adminService: adminService, addressService: addressService, logger: logger}
}

// GetWeights GET /v1/admin/weights
func (ac *AdminController) GetWeights(c *gin.Context) {
	c.JSON(http.StatusOK, responses.WeightsResponse{Weights: ac.addressService.Weights()})
}

// UpdateWeights PUT /v1/admin/weights
func (ac *AdminController) UpdateWeights(c *gin.Context) {
	var req requests.UpdateWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request: "+err.Error())
		return
	}

	w := search.FieldWeights{Province: *req.Province, City: *req.City, District: *req.District, County: *req.County}
	if err := ac.addressService.SetWeights(c.Request.Context(), w); err != nil {
		respondServiceError(c, err)
		return
	}

	ac.logger.Info("Weights updated via admin API", zap.String("request_id", c.GetString("request_id")))
	resp := responses.WeightsResponse{Weights: ac.addressService.Weights()}
	if ac.addressService.Index().Strategy() == search.StrategyMerged {
		resp.Note = "merged strategy: existing documents keep their indexed weights until the next reload"
	}
	c.JSON(http.StatusOK, resp)
}

// Reload POST /v1/admin/reload
func (ac *AdminController) Reload(c *gin.Context) {
	result, err := ac.adminService.Rebuild(c.Request.Context())
	if err != nil {
		ac.logger.Error("Reload failed", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "index rebuilt",
		Data:      result,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// InvalidateCache POST /v1/admin/cache/invalidate
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	ac.addressService.InvalidateCache(c.Request.Context())
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "cache cleared",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetStats GET /v1/admin/stats
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportMeili POST /v1/admin/export/meili
func (ac *AdminController) ExportMeili(c *gin.Context) {
	sent, err := ac.adminService.ExportMeili(c.Request.Context())
	if errors.Is(err, services.ErrExportDisabled) {
		respondError(c, http.StatusNotImplemented, "EXPORT_DISABLED", err.Error())
		return
	}
	if err != nil {
		ac.logger.Error("Meilisearch export failed", zap.Error(err))
		respondError(c, http.StatusBadGateway, "EXPORT_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "exported to meilisearch",
		Data:      gin.H{"documents": sent},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
