package domain

import (
	"time"
)

// AuthContext is the resolved caller identity for a single request.
// It is built fresh per request and never persisted.
type AuthContext struct {
	CustomerID      string
	IsAuthenticated bool
	APIKey          string // raw key when the API-key path authenticated the call
}

type APIKey struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Name       string     `json:"name"`       // Human-readable label, e.g. "erp-integration"
	KeyHash    string     `json:"-"`          // SHA-256 hash of the key (never store raw)
	KeyPrefix  string     `json:"key_prefix"` // First 8 chars for identification
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Customer is an API customer account with its pricing policy.
type Customer struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"` // identity-provider principal for JWT auth
	BusinessName string    `json:"business_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	MarkupType   string    `json:"markup_type"` // "percentage" or "fixed"
	MarkupValue  float64   `json:"markup_value"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Markup returns the customer's pricing policy as a MarkupConfig.
func (c *Customer) Markup() MarkupConfig {
	return MarkupConfig{Type: MarkupType(c.MarkupType), Value: c.MarkupValue}
}
