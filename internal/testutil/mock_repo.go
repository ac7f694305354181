package testutil

import (
	"context"
	"time"

	"github.com/nexship/freightgate/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(id)
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockRepo) GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	args := m.Called(userID)
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockRepo) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	args := m.Called(keyHash)
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockRepo) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockRepo) ListAPIKeys(ctx context.Context, customerID string) ([]domain.APIKey, error) {
	args := m.Called(customerID)
	return args.Get(0).([]domain.APIKey), args.Error(1)
}

func (m *MockRepo) RevokeAPIKey(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRepo) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	args := m.Called(id, usedAt)
	return args.Error(0)
}

func (m *MockRepo) CreateQuote(ctx context.Context, quote *domain.Quote, rates []domain.QuoteRate) error {
	args := m.Called(quote, rates)
	return args.Error(0)
}

func (m *MockRepo) GetQuote(ctx context.Context, id string, customerID string) (*domain.Quote, error) {
	args := m.Called(id, customerID)
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockRepo) GetQuoteRate(ctx context.Context, quoteID string, serviceType string) (*domain.QuoteRate, error) {
	args := m.Called(quoteID, serviceType)
	return args.Get(0).(*domain.QuoteRate), args.Error(1)
}

func (m *MockRepo) ClaimQuote(ctx context.Context, id string, customerID string) (bool, error) {
	args := m.Called(id, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) ReleaseQuote(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRepo) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(booking)
	return args.Error(0)
}

func (m *MockRepo) GetBooking(ctx context.Context, id string, customerID string) (*domain.Booking, error) {
	args := m.Called(id, customerID)
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockRepo) SaveRequestLog(ctx context.Context, entry *domain.RequestLog) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *MockRepo) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
