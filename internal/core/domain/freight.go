package domain

import (
	"encoding/json"
	"time"
)

// Address is the canonical nested address shape used throughout the pipeline.
type Address struct {
	Line1       string `json:"line1"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostCode    string `json:"postCode"`
	CountryCode string `json:"countryCode"`
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Party is a shipper or consignee in canonical form.
type Party struct {
	Address Address `json:"address"`
	Contact Contact `json:"contact"`
}

// Item is a package with weight in kilograms and dimensions in centimetres.
type Item struct {
	Weight      float64 `json:"weight"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description"`
}

// ShipmentRequest is the canonical input to the carrier gateway.
type ShipmentRequest struct {
	Reference   string
	Shipper     Party
	Consignee   Party
	Items       []Item
	ServiceType string
}

// RateOption is one priced carrier service as returned by the rates endpoint.
type RateOption struct {
	ServiceType string  `json:"serviceType"`
	ServiceName string  `json:"serviceName"`
	BaseAmount  float64 `json:"baseAmount"`
	TotalAmount float64 `json:"totalAmount"`
	Currency    string  `json:"currency"`
	TransitDays int     `json:"transitDays"`
}

// RateQuote is the carrier gateway's rates result.
type RateQuote struct {
	Rates []RateOption
	Raw   json.RawMessage
}

// ShipmentResult is the carrier gateway's shipment-creation result.
type ShipmentResult struct {
	ShipmentID        string
	ConsignmentNumber string
	LabelURL          string
	TrackingURL       string
	Raw               json.RawMessage
}

type TrackingEvent struct {
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// TrackingResult is the carrier gateway's tracking result.
type TrackingResult struct {
	ShipmentID string
	Status     string
	Events     []TrackingEvent
	Raw        json.RawMessage
}

// Quote is a persisted freight quote. The priced fields hold the first rate
// option as the canonical summary; all options live in QuoteRate rows.
// Immutable once created, except for the consumed flag set when a booking
// claims it.
type Quote struct {
	ID                  string          `json:"id"`
	CustomerID          string          `json:"customer_id"`
	ServiceType         string          `json:"service_type"`
	BaseCost            float64         `json:"base_cost"`
	MarkupAmount        float64         `json:"markup_amount"`
	TotalCost           float64         `json:"total_cost"`
	OriginSuburb        string          `json:"origin_suburb"`
	OriginPostcode      string          `json:"origin_postcode"`
	DestinationSuburb   string          `json:"destination_suburb"`
	DestinationPostcode string          `json:"destination_postcode"`
	Weight              float64         `json:"weight"`
	Dimensions          json.RawMessage `json:"dimensions"`
	CarrierResponse     json.RawMessage `json:"carrier_response,omitempty"`
	ValidUntil          time.Time       `json:"valid_until"`
	Consumed            bool            `json:"consumed"`
	CreatedAt           time.Time       `json:"created_at"`
}

// QuoteRate is one bookable priced option stored under a quote, keyed by
// service type. Booking a quote charges the matched option's price.
type QuoteRate struct {
	ID           string  `json:"id"`
	QuoteID      string  `json:"quote_id"`
	ServiceType  string  `json:"serviceType"`
	ServiceName  string  `json:"serviceName"`
	BaseCost     float64 `json:"baseCost"`
	MarkupAmount float64 `json:"markupAmount"`
	TotalCost    float64 `json:"totalCost"`
	Currency     string  `json:"currency"`
	TransitDays  int     `json:"transitDays"`
}

// Booking is a persisted shipment booking with full shipper/consignee and
// package snapshots.
type Booking struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customer_id"`
	QuoteID            string    `json:"quote_id"`
	ConsignmentNumber  string    `json:"consignment_number"`
	LabelURL           string    `json:"label_url,omitempty"`
	TrackingURL        string    `json:"tracking_url,omitempty"`
	EstimatedPrice     float64   `json:"estimated_price"`
	ReferenceNumber    string    `json:"reference_number"`
	PickupName         string    `json:"pickup_name"`
	PickupAddress      string    `json:"pickup_address"`
	PickupSuburb       string    `json:"pickup_suburb"`
	PickupPostcode     string    `json:"pickup_postcode"`
	PickupPhone        string    `json:"pickup_phone"`
	PickupEmail        string    `json:"pickup_email"`
	DeliveryName       string    `json:"delivery_name"`
	DeliveryAddress    string    `json:"delivery_address"`
	DeliverySuburb     string    `json:"delivery_suburb"`
	DeliveryPostcode   string    `json:"delivery_postcode"`
	DeliveryPhone      string    `json:"delivery_phone"`
	DeliveryEmail      string    `json:"delivery_email"`
	PackageWeight      float64   `json:"package_weight"`
	PackageLength      float64   `json:"package_length"`
	PackageWidth       float64   `json:"package_width"`
	PackageHeight      float64   `json:"package_height"`
	PackageDescription string    `json:"package_description"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// RequestLog is one append-only audit row per handler invocation.
type RequestLog struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id,omitempty"`
	LogType      string          `json:"log_type"`
	Endpoint     string          `json:"endpoint"`
	RequestData  json.RawMessage `json:"request_data,omitempty"`
	ResponseData json.RawMessage `json:"response_data,omitempty"`
	StatusCode   int             `json:"status_code"`
	ErrorMessage string          `json:"error_message,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	IPAddress    string          `json:"ip_address,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
