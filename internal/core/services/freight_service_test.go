package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nexship/freightgate/internal/core/domain"
	"github.com/nexship/freightgate/internal/core/ports"
	"github.com/nexship/freightgate/internal/testutil"
)

func newTestFreightService(repo *testutil.MockRepo, gw *testutil.MockCarrier, now time.Time) *freightService {
	return &freightService{
		repo:     repo,
		carrier:  gw,
		quoteTTL: 7 * 24 * time.Hour,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return now },
	}
}

func testShipper() domain.Party {
	return domain.Party{
		Address: domain.Address{Line1: "1 Pickup Rd", City: "Brisbane", State: "QLD", PostCode: "4000", CountryCode: "AU"},
		Contact: domain.Contact{Name: "Sender", Phone: "07", Email: "sender@example.com"},
	}
}

func testConsignee() domain.Party {
	return domain.Party{
		Address: domain.Address{Line1: "2 Drop St", City: "Perth", State: "WA", PostCode: "6000", CountryCode: "AU"},
		Contact: domain.Contact{Name: "Receiver", Phone: "08", Email: "receiver@example.com"},
	}
}

func testItems() []domain.Item {
	return []domain.Item{{Weight: 5, Length: 30, Width: 20, Height: 10, Quantity: 1, Description: "General Goods"}}
}

func TestQuoteAppliesMarkupPerRate(t *testing.T) {
	repo := &testutil.MockRepo{}
	gw := &testutil.MockCarrier{Rates: &domain.RateQuote{Rates: []domain.RateOption{
		{ServiceType: "EXP", ServiceName: "Express", BaseAmount: 100, Currency: "AUD", TransitDays: 1},
		{ServiceType: "STD", ServiceName: "Standard", BaseAmount: 60, Currency: "AUD", TransitDays: 4},
	}}}
	now := time.Now()
	svc := newTestFreightService(repo, gw, now)

	repo.On("GetCustomer", "cust-1").Return(&domain.Customer{
		ID: "cust-1", Active: true, MarkupType: "percentage", MarkupValue: 10,
	}, nil).Once()

	var savedQuote *domain.Quote
	var savedRates []domain.QuoteRate
	repo.On("CreateQuote", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		savedQuote = args.Get(0).(*domain.Quote)
		savedRates = args.Get(1).([]domain.QuoteRate)
	}).Return(nil).Once()

	reply, err := svc.Quote(context.Background(), "cust-1", testShipper(), testConsignee(), testItems())
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if len(reply.Rates) != 2 {
		t.Fatalf("Expected 2 rates, got %d", len(reply.Rates))
	}
	if reply.Rates[0].MarkupAmount != 10 || reply.Rates[0].TotalCost != 110 {
		t.Errorf("Unexpected express pricing: %+v", reply.Rates[0])
	}
	if reply.Rates[1].MarkupAmount != 6 || reply.Rates[1].TotalCost != 66 {
		t.Errorf("Unexpected standard pricing: %+v", reply.Rates[1])
	}
	if !reply.ValidUntil.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Errorf("Unexpected validity: %v", reply.ValidUntil)
	}

	if savedQuote == nil || len(savedRates) != 2 {
		t.Fatal("Expected quote and both rate rows persisted")
	}
	// The quote summary row carries the first option.
	if savedQuote.ServiceType != "EXP" || savedQuote.TotalCost != 110 {
		t.Errorf("Unexpected quote summary: %+v", savedQuote)
	}
	if savedQuote.OriginSuburb != "Brisbane" || savedQuote.DestinationPostcode != "6000" {
		t.Errorf("Unexpected lane snapshot: %+v", savedQuote)
	}
	for _, rate := range savedRates {
		if rate.QuoteID != savedQuote.ID {
			t.Errorf("Rate row not linked to quote: %+v", rate)
		}
	}
	repo.AssertExpectations(t)
}

func TestQuoteInactiveCustomer(t *testing.T) {
	repo := &testutil.MockRepo{}
	gw := &testutil.MockCarrier{}
	svc := newTestFreightService(repo, gw, time.Now())

	repo.On("GetCustomer", "cust-1").Return(&domain.Customer{ID: "cust-1", Active: false}, nil).Once()

	_, err := svc.Quote(context.Background(), "cust-1", testShipper(), testConsignee(), testItems())
	if !errors.Is(err, domain.ErrCustomerInactive) {
		t.Errorf("Expected ErrCustomerInactive, got %v", err)
	}
	if gw.RatesCalls != 0 {
		t.Error("Carrier must not be called for an inactive customer")
	}
}

func TestQuoteUnknownCustomer(t *testing.T) {
	repo := &testutil.MockRepo{}
	svc := newTestFreightService(repo, &testutil.MockCarrier{}, time.Now())

	repo.On("GetCustomer", "cust-x").Return((*domain.Customer)(nil), nil).Once()

	_, err := svc.Quote(context.Background(), "cust-x", testShipper(), testConsignee(), testItems())
	if !errors.Is(err, domain.ErrCustomerInactive) {
		t.Errorf("Expected ErrCustomerInactive, got %v", err)
	}
}

func TestQuoteCarrierFailure(t *testing.T) {
	repo := &testutil.MockRepo{}
	carrierErr := &domain.CarrierError{Op: "rates", Message: "No rates available"}
	gw := &testutil.MockCarrier{RatesErr: carrierErr}
	svc := newTestFreightService(repo, gw, time.Now())

	repo.On("GetCustomer", "cust-1").Return(&domain.Customer{ID: "cust-1", Active: true, MarkupType: "fixed", MarkupValue: 5}, nil).Once()

	_, err := svc.Quote(context.Background(), "cust-1", testShipper(), testConsignee(), testItems())

	var gotErr *domain.CarrierError
	if !errors.As(err, &gotErr) {
		t.Fatalf("Expected CarrierError, got %v", err)
	}
	// Nothing persisted on carrier failure.
	repo.AssertNotCalled(t, "CreateQuote", mock.Anything, mock.Anything)
}

func validTestQuote(now time.Time) *domain.Quote {
	return &domain.Quote{
		ID:         "quote-1",
		CustomerID: "cust-1",
		ValidUntil: now.Add(time.Hour),
	}
}

func TestBookSuccess(t *testing.T) {
	repo := &testutil.MockRepo{}
	gw := &testutil.MockCarrier{}
	now := time.Now()
	svc := newTestFreightService(repo, gw, now)

	repo.On("GetQuote", "quote-1", "cust-1").Return(validTestQuote(now), nil).Once()
	repo.On("GetQuoteRate", "quote-1", "EXP").Return(&domain.QuoteRate{
		ID: "rate-1", QuoteID: "quote-1", ServiceType: "EXP", TotalCost: 110,
	}, nil).Once()
	repo.On("ClaimQuote", "quote-1", "cust-1").Return(true, nil).Once()

	var savedBooking *domain.Booking
	repo.On("CreateBooking", mock.Anything).Run(func(args mock.Arguments) {
		savedBooking = args.Get(0).(*domain.Booking)
	}).Return(nil).Once()

	reply, err := svc.Book(context.Background(), "cust-1", ports.BookingParams{
		QuoteID:     "quote-1",
		Reference:   "ORDER-77",
		Shipper:     testShipper(),
		Consignee:   testConsignee(),
		Items:       testItems(),
		ServiceType: "EXP",
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if reply.ConsignmentNumber != "CON-1" || reply.Status != "confirmed" {
		t.Errorf("Unexpected reply: %+v", reply)
	}
	if savedBooking == nil {
		t.Fatal("Expected booking persisted")
	}
	// Charged the stored quoted price, not a recomputed one.
	if savedBooking.EstimatedPrice != 110 {
		t.Errorf("Expected estimated price 110, got %v", savedBooking.EstimatedPrice)
	}
	if savedBooking.ReferenceNumber != "ORDER-77" {
		t.Errorf("Expected caller reference kept, got %q", savedBooking.ReferenceNumber)
	}
	if savedBooking.PickupSuburb != "Brisbane" || savedBooking.DeliverySuburb != "Perth" {
		t.Errorf("Unexpected address snapshot: %+v", savedBooking)
	}
	repo.AssertExpectations(t)
}

func TestBookGeneratesReference(t *testing.T) {
	repo := &testutil.MockRepo{}
	gw := &testutil.MockCarrier{}
	now := time.Now()
	svc := newTestFreightService(repo, gw, now)

	repo.On("GetQuote", "quote-1", "cust-1").Return(validTestQuote(now), nil).Once()
	repo.On("GetQuoteRate", "quote-1", "EXP").Return(&domain.QuoteRate{QuoteID: "quote-1", ServiceType: "EXP", TotalCost: 50}, nil).Once()
	repo.On("ClaimQuote", "quote-1", "cust-1").Return(true, nil).Once()

	var savedBooking *domain.Booking
	repo.On("CreateBooking", mock.Anything).Run(func(args mock.Arguments) {
		savedBooking = args.Get(0).(*domain.Booking)
	}).Return(nil).Once()

	_, err := svc.Book(context.Background(), "cust-1", ports.BookingParams{
		QuoteID: "quote-1", Shipper: testShipper(), Consignee: testConsignee(), Items: testItems(), ServiceType: "EXP",
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if savedBooking.ReferenceNumber == "" {
		t.Error("Expected generated reference")
	}
}

func TestBookQuoteNotFound(t *testing.T) {
	repo := &testutil.MockRepo{}
	svc := newTestFreightService(repo, &testutil.MockCarrier{}, time.Now())

	// Missing quote and another customer's quote look identical.
	repo.On("GetQuote", "quote-x", "cust-1").Return((*domain.Quote)(nil), nil).Once()

	_, err := svc.Book(context.Background(), "cust-1", ports.BookingParams{
		QuoteID: "quote-x", Shipper: testShipper(), Consignee: testConsignee(), Items: testItems(), ServiceType: "EXP",
	})
	if !errors.Is(err, domain.ErrQuoteNotFound) {
		t.Errorf("Expected ErrQuoteNotFound, got %v", err)
	}
}

func TestBookQuoteExpired(t *testing.T) {
	repo := &testutil.MockRepo{}
	gw := &testutil.MockCarrier{}
	now := time.Now()
	svc := newTestFreightService(repo, gw, now)

	expired := validTestQuote(now)
	expired.ValidUntil = now.Add(-time.Minute)
	repo.On("GetQuote", "quote-1", "cust-1").Return(expired, nil).Once()

	_, err := svc.Book(context.Background(), "cust-1", ports.BookingParams{
		QuoteID: "quote-1", Shipper: testShipper(), Consignee: testConsignee(), Items: testItems(), ServiceType: "EXP",
	})
	if !errors.Is(err, domain.ErrQuoteExpired) {
		t.Errorf("Expected ErrQuoteExpired, got %v", err)
	}
	if gw.ShipmentCalls != 0 {
		t.Error("Carrier must not be called for an expired quote")
	}
}

func TestBookServiceNotQuoted(t *testing.T) {
	repo := &testutil.MockRepo{}
	now := time.Now()
	svc := newTestFreightService(repo, &testutil.MockCarrier{}, now)

	repo.On("GetQuote", "quote-1", "cust-1").Return(validTestQuote(now), nil).Once()
	repo.On("GetQuoteRate", "quote-1", "PRI").Return((*domain.QuoteRate)(nil), nil).Once()

	_, err := svc.Book(context.Background(), "cust-1", ports.BookingParams{
		QuoteID: "quote-1", Shipper: testShipper(), Consignee: testConsignee(), Items: testItems(), ServiceType: "PRI",
	})
	if !errors.Is(err, domain.ErrServiceNotQuoted) {
		t.Errorf("Expected ErrServiceNotQuoted, got %v", err)
	}
}

func TestBookClaimConflict(t *testing.T) {
	repo := &testutil.MockRepo{}
	gw := &testutil.MockCarrier{}
	now := time.Now()
	svc := newTestFreightService(repo, gw, now)

	repo.On("GetQuote", "quote-1", "cust-1").Return(validTestQuote(now), nil).Once()
	repo.On("GetQuoteRate", "quote-1", "EXP").Return(&domain.QuoteRate{QuoteID: "quote-1", ServiceType: "EXP", TotalCost: 50}, nil).Once()
	repo.On("ClaimQuote", "quote-1", "cust-1").Return(false, nil).Once()

	_, err := svc.Book(context.Background(), "cust-1", ports.BookingParams{
		QuoteID: "quote-1", Shipper: testShipper(), Consignee: testConsignee(), Items: testItems(), ServiceType: "EXP",
	})
	if !errors.Is(err, domain.ErrQuoteAlreadyBooked) {
		t.Errorf("Expected ErrQuoteAlreadyBooked, got %v", err)
	}
	if gw.ShipmentCalls != 0 {
		t.Error("Carrier must not be called when the claim loses")
	}
}

func TestBookCarrierFailureReleasesClaim(t *testing.T) {
	repo := &testutil.MockRepo{}
	carrierErr := &domain.CarrierError{Op: "shipments", Message: "Invalid destination"}
	gw := &testutil.MockCarrier{ShipmentErr: carrierErr}
	now := time.Now()
	svc := newTestFreightService(repo, gw, now)

	repo.On("GetQuote", "quote-1", "cust-1").Return(validTestQuote(now), nil).Once()
	repo.On("GetQuoteRate", "quote-1", "EXP").Return(&domain.QuoteRate{QuoteID: "quote-1", ServiceType: "EXP", TotalCost: 50}, nil).Once()
	repo.On("ClaimQuote", "quote-1", "cust-1").Return(true, nil).Once()
	repo.On("ReleaseQuote", "quote-1").Return(nil).Once()

	_, err := svc.Book(context.Background(), "cust-1", ports.BookingParams{
		QuoteID: "quote-1", Shipper: testShipper(), Consignee: testConsignee(), Items: testItems(), ServiceType: "EXP",
	})

	var gotErr *domain.CarrierError
	if !errors.As(err, &gotErr) {
		t.Fatalf("Expected CarrierError, got %v", err)
	}
	// The quote stays bookable after a carrier rejection.
	repo.AssertCalled(t, "ReleaseQuote", "quote-1")
	repo.AssertNotCalled(t, "CreateBooking", mock.Anything)
}

func TestTrack(t *testing.T) {
	gw := &testutil.MockCarrier{Tracking: &domain.TrackingResult{
		ShipmentID: "SHP-9",
		Status:     "Delivered",
		Events: []domain.TrackingEvent{
			{Timestamp: "2025-01-02T10:00:00Z", Status: "Delivered", Location: "Perth"},
		},
	}}
	svc := newTestFreightService(&testutil.MockRepo{}, gw, time.Now())

	reply, err := svc.Track(context.Background(), "SHP-9")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if reply.Status != "Delivered" || len(reply.Events) != 1 {
		t.Errorf("Unexpected reply: %+v", reply)
	}
}

func TestTrackNilEvents(t *testing.T) {
	gw := &testutil.MockCarrier{Tracking: &domain.TrackingResult{ShipmentID: "SHP-9", Status: "In Transit"}}
	svc := newTestFreightService(&testutil.MockRepo{}, gw, time.Now())

	reply, err := svc.Track(context.Background(), "SHP-9")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if reply.Events == nil || len(reply.Events) != 0 {
		t.Errorf("Expected empty events slice, got %#v", reply.Events)
	}
}
