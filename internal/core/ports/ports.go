package ports

import (
	"context"
	"time"

	"github.com/nexship/freightgate/internal/core/domain"
)

type FreightRepository interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error)

	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	ListAPIKeys(ctx context.Context, customerID string) ([]domain.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
	TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error

	CreateQuote(ctx context.Context, quote *domain.Quote, rates []domain.QuoteRate) error
	GetQuote(ctx context.Context, id string, customerID string) (*domain.Quote, error)
	GetQuoteRate(ctx context.Context, quoteID string, serviceType string) (*domain.QuoteRate, error)
	// ClaimQuote atomically marks the quote consumed. It returns false when
	// the quote was already claimed, so a concurrent double-book fails
	// deterministically.
	ClaimQuote(ctx context.Context, id string, customerID string) (bool, error)
	// ReleaseQuote undoes a claim when the carrier rejects the shipment, so
	// the quote stays bookable.
	ReleaseQuote(ctx context.Context, id string) error

	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetBooking(ctx context.Context, id string, customerID string) (*domain.Booking, error)

	SaveRequestLog(ctx context.Context, entry *domain.RequestLog) error
	Ping(ctx context.Context) error
}

// CarrierGateway is the sole integration point with the external carrier.
// Expected failures (rejections, unusable responses, transport errors) come
// back as *domain.CarrierError values.
type CarrierGateway interface {
	GetRates(ctx context.Context, req domain.ShipmentRequest) (*domain.RateQuote, error)
	CreateShipment(ctx context.Context, req domain.ShipmentRequest) (*domain.ShipmentResult, error)
	TrackShipment(ctx context.Context, shipmentID string) (*domain.TrackingResult, error)
}

// RateLimiter bounds request rate per identifier. Implementations may be
// process-local or backed by a shared store; the contract is the same.
type RateLimiter interface {
	// IsRateLimited reports whether the identifier is over its limit. A
	// rejected call does not consume a slot.
	IsRateLimited(ctx context.Context, identifier string) bool
	// Remaining returns how many requests the identifier has left in the
	// current window, without mutating state.
	Remaining(ctx context.Context, identifier string) int
}

// Authenticator resolves a caller identity from a bearer credential. A nil
// result means the request is unauthenticated; no failure detail is exposed.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) *domain.AuthContext
}

type QuoteReply struct {
	QuoteID    string       `json:"quoteId"`
	Rates      []PricedRate `json:"rates"`
	ValidUntil time.Time    `json:"validUntil"`
}

// PricedRate is a carrier rate option with customer markup applied.
type PricedRate struct {
	ServiceType  string  `json:"serviceType"`
	ServiceName  string  `json:"serviceName"`
	BaseAmount   float64 `json:"baseAmount"`
	BaseCost     float64 `json:"baseCost"`
	MarkupAmount float64 `json:"markupAmount"`
	TotalCost    float64 `json:"totalCost"`
	Currency     string  `json:"currency"`
	TransitDays  int     `json:"transitDays"`
}

type BookingParams struct {
	QuoteID     string
	Reference   string
	Shipper     domain.Party
	Consignee   domain.Party
	Items       []domain.Item
	ServiceType string
}

type BookingReply struct {
	BookingID         string `json:"bookingId"`
	ShipmentID        string `json:"shipmentId"`
	ConsignmentNumber string `json:"consignmentNumber"`
	LabelURL          string `json:"labelUrl,omitempty"`
	TrackingURL       string `json:"trackingUrl,omitempty"`
	Status            string `json:"status"`
}

type TrackingReply struct {
	ShipmentID string                 `json:"shipmentId"`
	Status     string                 `json:"status"`
	Events     []domain.TrackingEvent `json:"events"`
}

// FreightService orchestrates quote, booking, and tracking flows.
type FreightService interface {
	Quote(ctx context.Context, customerID string, shipper, consignee domain.Party, items []domain.Item) (*QuoteReply, error)
	Book(ctx context.Context, customerID string, params BookingParams) (*BookingReply, error)
	Track(ctx context.Context, shipmentID string) (*TrackingReply, error)
}
