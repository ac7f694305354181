package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nexship/freightgate/internal/core/domain"
	"github.com/nexship/freightgate/internal/core/ports"
)

type freightService struct {
	repo     ports.FreightRepository
	carrier  ports.CarrierGateway
	quoteTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewFreightService(repo ports.FreightRepository, carrier ports.CarrierGateway, quoteTTL time.Duration, logger *slog.Logger) ports.FreightService {
	return &freightService{
		repo:     repo,
		carrier:  carrier,
		quoteTTL: quoteTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Quote obtains carrier rates, applies the customer's markup to every option,
// and persists one quote record with all priced options keyed by service type.
func (s *freightService) Quote(ctx context.Context, customerID string, shipper, consignee domain.Party, items []domain.Item) (*ports.QuoteReply, error) {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil || !customer.Active {
		return nil, domain.ErrCustomerInactive
	}

	rateQuote, err := s.carrier.GetRates(ctx, domain.ShipmentRequest{
		Shipper:   shipper,
		Consignee: consignee,
		Items:     items,
	})
	if err != nil {
		return nil, err
	}

	markup := customer.Markup()
	now := s.now()
	quoteID := uuid.New().String()

	priced := make([]ports.PricedRate, 0, len(rateQuote.Rates))
	rateRows := make([]domain.QuoteRate, 0, len(rateQuote.Rates))
	for _, rate := range rateQuote.Rates {
		pricing := domain.ApplyMarkup(rate.BaseAmount, markup)
		priced = append(priced, ports.PricedRate{
			ServiceType:  rate.ServiceType,
			ServiceName:  rate.ServiceName,
			BaseAmount:   rate.BaseAmount,
			BaseCost:     pricing.BaseCost,
			MarkupAmount: pricing.MarkupAmount,
			TotalCost:    pricing.TotalCost,
			Currency:     rate.Currency,
			TransitDays:  rate.TransitDays,
		})
		rateRows = append(rateRows, domain.QuoteRate{
			ID:           uuid.New().String(),
			QuoteID:      quoteID,
			ServiceType:  rate.ServiceType,
			ServiceName:  rate.ServiceName,
			BaseCost:     pricing.BaseCost,
			MarkupAmount: pricing.MarkupAmount,
			TotalCost:    pricing.TotalCost,
			Currency:     rate.Currency,
			TransitDays:  rate.TransitDays,
		})
	}

	first := priced[0]
	dimensions, err := json.Marshal(map[string]float64{
		"length": items[0].Length,
		"width":  items[0].Width,
		"height": items[0].Height,
	})
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		ID:                  quoteID,
		CustomerID:          customerID,
		ServiceType:         first.ServiceType,
		BaseCost:            first.BaseCost,
		MarkupAmount:        first.MarkupAmount,
		TotalCost:           first.TotalCost,
		OriginSuburb:        shipper.Address.City,
		OriginPostcode:      shipper.Address.PostCode,
		DestinationSuburb:   consignee.Address.City,
		DestinationPostcode: consignee.Address.PostCode,
		Weight:              items[0].Weight,
		Dimensions:          dimensions,
		CarrierResponse:     rateQuote.Raw,
		ValidUntil:          now.Add(s.quoteTTL),
		CreatedAt:           now,
	}

	if err := s.repo.CreateQuote(ctx, quote, rateRows); err != nil {
		return nil, err
	}

	return &ports.QuoteReply{
		QuoteID:    quote.ID,
		Rates:      priced,
		ValidUntil: quote.ValidUntil,
	}, nil
}

// Book claims a previously issued quote and creates the carrier shipment. The
// booking is charged the stored quoted price for the requested service type,
// never a recomputed one.
func (s *freightService) Book(ctx context.Context, customerID string, params ports.BookingParams) (*ports.BookingReply, error) {
	quote, err := s.repo.GetQuote(ctx, params.QuoteID, customerID)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, domain.ErrQuoteNotFound
	}
	if s.now().After(quote.ValidUntil) {
		return nil, domain.ErrQuoteExpired
	}

	rate, err := s.repo.GetQuoteRate(ctx, quote.ID, params.ServiceType)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, domain.ErrServiceNotQuoted
	}

	claimed, err := s.repo.ClaimQuote(ctx, quote.ID, customerID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrQuoteAlreadyBooked
	}

	reference := params.Reference
	if reference == "" {
		reference = fmt.Sprintf("BK-%d", s.now().UnixMilli())
	}

	shipment, err := s.carrier.CreateShipment(ctx, domain.ShipmentRequest{
		Reference:   reference,
		Shipper:     params.Shipper,
		Consignee:   params.Consignee,
		Items:       params.Items,
		ServiceType: params.ServiceType,
	})
	if err != nil {
		// The claim must not burn the quote when the carrier rejects the
		// shipment; the customer may retry against the same quote.
		if releaseErr := s.repo.ReleaseQuote(ctx, quote.ID); releaseErr != nil {
			s.logger.Error("failed to release claimed quote", "quote_id", quote.ID, "error", releaseErr)
		}
		return nil, err
	}

	firstItem := params.Items[0]
	booking := &domain.Booking{
		ID:                 uuid.New().String(),
		CustomerID:         customerID,
		QuoteID:            quote.ID,
		ConsignmentNumber:  shipment.ConsignmentNumber,
		LabelURL:           shipment.LabelURL,
		TrackingURL:        shipment.TrackingURL,
		EstimatedPrice:     rate.TotalCost,
		ReferenceNumber:    reference,
		PickupName:         params.Shipper.Contact.Name,
		PickupAddress:      params.Shipper.Address.Line1,
		PickupSuburb:       params.Shipper.Address.City,
		PickupPostcode:     params.Shipper.Address.PostCode,
		PickupPhone:        params.Shipper.Contact.Phone,
		PickupEmail:        params.Shipper.Contact.Email,
		DeliveryName:       params.Consignee.Contact.Name,
		DeliveryAddress:    params.Consignee.Address.Line1,
		DeliverySuburb:     params.Consignee.Address.City,
		DeliveryPostcode:   params.Consignee.Address.PostCode,
		DeliveryPhone:      params.Consignee.Contact.Phone,
		DeliveryEmail:      params.Consignee.Contact.Email,
		PackageWeight:      firstItem.Weight,
		PackageLength:      firstItem.Length,
		PackageWidth:       firstItem.Width,
		PackageHeight:      firstItem.Height,
		PackageDescription: firstItem.Description,
		Status:             "confirmed",
		CreatedAt:          s.now(),
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	return &ports.BookingReply{
		BookingID:         booking.ID,
		ShipmentID:        shipment.ShipmentID,
		ConsignmentNumber: shipment.ConsignmentNumber,
		LabelURL:          shipment.LabelURL,
		TrackingURL:       shipment.TrackingURL,
		Status:            booking.Status,
	}, nil
}

// Track looks up shipment status from the carrier. No persistence beyond the
// caller's audit log.
func (s *freightService) Track(ctx context.Context, shipmentID string) (*ports.TrackingReply, error) {
	result, err := s.carrier.TrackShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	events := result.Events
	if events == nil {
		events = []domain.TrackingEvent{}
	}
	return &ports.TrackingReply{
		ShipmentID: result.ShipmentID,
		Status:     result.Status,
		Events:     events,
	}, nil
}
