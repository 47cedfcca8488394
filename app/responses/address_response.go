package responses

import (
	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/internal/search"
)

// SearchResponse ranked matches for one query
type SearchResponse struct {
	Query            string                 `json:"query"`
	NormalizedQuery  string                 `json:"normalized_query"`
	Results          []models.AddressResult `json:"results"`
	Display          []string               `json:"display"` // AddressResult.String() per result
	ProcessingTimeMs float64                `json:"processing_time_ms"`
	CacheHit         bool                   `json:"cache_hit"`
}

// FirstResponse best match, Result is null when nothing matches
type FirstResponse struct {
	Query            string                `json:"query"`
	NormalizedQuery  string                `json:"normalized_query"`
	Result           *models.AddressResult `json:"result"`
	Display          string                `json:"display,omitempty"`
	ProcessingTimeMs float64               `json:"processing_time_ms"`
	CacheHit         bool                  `json:"cache_hit"`
}

// WeightsResponse current field weights
type WeightsResponse struct {
	Weights search.FieldWeights `json:"weights"`
	Note    string              `json:"note,omitempty"`
}

// ErrorResponse error body
type ErrorResponse struct {
	Error     string      `json:"error"`   // Error code
	Message   string      `json:"message"` // Human readable message
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// SuccessResponse generic success body
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse health check body
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}
