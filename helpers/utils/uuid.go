package utils

import (
	"github.com/google/uuid"
)

// NewID random v4 UUID, used for engine document ids and request ids
func NewID() string {
	return uuid.NewString()
}
