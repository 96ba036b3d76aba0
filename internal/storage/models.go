package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Consultation is one recorded classification, plus any feedback later
// attached to it. The audit trail only; classification itself never reads
// these rows back.
type Consultation struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	Query          string    `json:"query"`
	Domain         string    `json:"domain"`
	Confidence     float64   `json:"confidence"`
	BaseDomain     string    `json:"base_domain"`
	BaseConfidence float64   `json:"base_confidence"`
	Overrode       bool      `json:"overrode"`
	Feedback       string    `json:"feedback,omitempty"`
	Polarity       string    `json:"polarity,omitempty"`
}
