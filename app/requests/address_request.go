package requests

// SearchRequest GET /v1/addresses/search
type SearchRequest struct {
	Query string `form:"q" binding:"required"`                       // Free-text address
	Limit int    `form:"limit" binding:"omitempty,min=0,max=100"` // 0 = default limit
}

// FirstRequest GET /v1/addresses/first
type FirstRequest struct {
	Query string `form:"q" binding:"required"`
}

// UpdateWeightsRequest PUT /v1/admin/weights. All four weights are replaced together.
type UpdateWeightsRequest struct {
	Province *float64 `json:"province" binding:"required"`
	City     *float64 `json:"city" binding:"required"`
	District *float64 `json:"district" binding:"required"`
	County   *float64 `json:"county" binding:"required"`
}
