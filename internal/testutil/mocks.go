package testutil

import (
	"context"

	"github.com/nexship/freightgate/internal/core/domain"
)

// MockCarrier implements ports.CarrierGateway for testing. Each field, when
// set, overrides the canned success response for its operation.
type MockCarrier struct {
	Rates       *domain.RateQuote
	RatesErr    error
	Shipment    *domain.ShipmentResult
	ShipmentErr error
	Tracking    *domain.TrackingResult
	TrackingErr error

	RatesCalls    int
	ShipmentCalls int
	TrackingCalls int
}

func (m *MockCarrier) GetRates(_ context.Context, _ domain.ShipmentRequest) (*domain.RateQuote, error) {
	m.RatesCalls++
	if m.RatesErr != nil {
		return nil, m.RatesErr
	}
	if m.Rates != nil {
		return m.Rates, nil
	}
	return &domain.RateQuote{Rates: []domain.RateOption{{
		ServiceType: "EXP",
		ServiceName: "Express",
		BaseAmount:  100,
		TotalAmount: 100,
		Currency:    "AUD",
		TransitDays: 2,
	}}}, nil
}

func (m *MockCarrier) CreateShipment(_ context.Context, _ domain.ShipmentRequest) (*domain.ShipmentResult, error) {
	m.ShipmentCalls++
	if m.ShipmentErr != nil {
		return nil, m.ShipmentErr
	}
	if m.Shipment != nil {
		return m.Shipment, nil
	}
	return &domain.ShipmentResult{
		ShipmentID:        "SHP-1",
		ConsignmentNumber: "CON-1",
		LabelURL:          "https://labels.example.com/CON-1.pdf",
		TrackingURL:       "https://www.aramex.com/au/track/shipment/CON-1",
	}, nil
}

func (m *MockCarrier) TrackShipment(_ context.Context, shipmentID string) (*domain.TrackingResult, error) {
	m.TrackingCalls++
	if m.TrackingErr != nil {
		return nil, m.TrackingErr
	}
	if m.Tracking != nil {
		return m.Tracking, nil
	}
	return &domain.TrackingResult{ShipmentID: shipmentID, Status: "In Transit"}, nil
}

// MockLimiter implements ports.RateLimiter for testing.
type MockLimiter struct {
	Limited bool
	Left    int
	Calls   int
}

func (m *MockLimiter) IsRateLimited(_ context.Context, _ string) bool {
	m.Calls++
	return m.Limited
}

func (m *MockLimiter) Remaining(_ context.Context, _ string) int {
	return m.Left
}

// MockAuthenticator implements ports.Authenticator for testing. A nil Ctx
// rejects every credential.
type MockAuthenticator struct {
	Ctx *domain.AuthContext
}

func (m *MockAuthenticator) Authenticate(_ context.Context, _ string) *domain.AuthContext {
	return m.Ctx
}
