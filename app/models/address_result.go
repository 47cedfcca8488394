package models

import (
	"fmt"
	"strings"
)

// ResolvedAddress four-level address assembled from a leaf region.
type ResolvedAddress struct {
	Province    string `json:"province"`
	City        string `json:"city"`
	District    string `json:"district"`
	County      string `json:"county"`
	AddressCode string `json:"address_code"`
}

// Levels returns the four level values, province first.
func (ra ResolvedAddress) Levels() [4]string {
	return [4]string{ra.Province, ra.City, ra.District, ra.County}
}

// FullAddress joins the non-empty levels with a single space.
func (ra ResolvedAddress) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, v := range ra.Levels() {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// AddressResult a single ranked search hit.
type AddressResult struct {
	AddressCode string  `json:"address_code"` // Exact stored code
	Province    string  `json:"province"`
	City        string  `json:"city"`
	District    string  `json:"district"`
	County      string  `json:"county"`
	Score       float64 `json:"score"`                // Engine relevance score
	Similarity  float64 `json:"similarity,omitempty"` // Query closeness to the most specific level
}

// String renders the display format used by CLIs and compatibility tests.
func (ar AddressResult) String() string {
	return fmt.Sprintf("code: %s | province: %s | city: %s | district: %s | county: %s",
		ar.AddressCode, ar.Province, ar.City, ar.District, ar.County)
}

// MostSpecific returns the deepest non-empty level.
func (ar AddressResult) MostSpecific() string {
	for _, v := range []string{ar.County, ar.District, ar.City, ar.Province} {
		if v != "" {
			return v
		}
	}
	return ""
}
