package carrier

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/nexship/freightgate/internal/core/domain"
)

// carrierMessage tolerates the carrier's error field being either a bare
// string or an object with a message.
type carrierMessage struct {
	Message string
}

func (m *carrierMessage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &m.Message)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	m.Message = obj.Message
	return nil
}

// amount tolerates a monetary field being a bare number or a {value, currency}
// object.
type amount struct {
	Value    float64
	Currency string
}

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Value    float64 `json:"value"`
			Currency string  `json:"currency"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		a.Value = obj.Value
		a.Currency = obj.Currency
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		a.Value = v
		return nil
	}
	return json.Unmarshal(data, &a.Value)
}

// looseInt tolerates an integer arriving as a number or a numeric string.
type looseInt int

func (l *looseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*l = looseInt(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = looseInt(v)
	return nil
}

// carrierRate holds every field name the rates endpoint has been seen to use.
// mapRate resolves the aliases; nothing outside this file re-implements the
// tolerance logic.
type carrierRate struct {
	ServiceType  string    `json:"serviceType"`
	ProductCode  string    `json:"productCode"`
	ServiceName  string    `json:"serviceName"`
	ProductName  string    `json:"productName"`
	BaseAmount   *amount   `json:"baseAmount"`
	BaseCharge   *amount   `json:"baseCharge"`
	Amount       *amount   `json:"amount"`
	TotalAmount  *amount   `json:"totalAmount"`
	TotalCost    *amount   `json:"totalCost"`
	Total        *amount   `json:"total"`
	Currency     string    `json:"currency"`
	TransitDays  *looseInt `json:"transitDays"`
	DeliveryTime *looseInt `json:"deliveryTime"`
}

func mapRate(r carrierRate) domain.RateOption {
	opt := domain.RateOption{
		ServiceType: firstNonEmpty(r.ServiceType, r.ProductCode),
		ServiceName: firstNonEmpty(r.ServiceName, r.ProductName, "Standard Service"),
		Currency:    "AUD",
		TransitDays: 3,
	}

	if base := firstAmount(r.BaseAmount, r.BaseCharge, r.Amount); base != nil {
		opt.BaseAmount = base.Value
	}
	if total := firstAmount(r.TotalAmount, r.TotalCost, r.Total); total != nil {
		opt.TotalAmount = total.Value
	}
	if r.TotalAmount != nil && r.TotalAmount.Currency != "" {
		opt.Currency = r.TotalAmount.Currency
	} else if r.Currency != "" {
		opt.Currency = r.Currency
	}
	if days := firstInt(r.TransitDays, r.DeliveryTime); days != nil {
		opt.TransitDays = int(*days)
	}

	return opt
}

type carrierShipment struct {
	ShipmentID        string `json:"shipmentId"`
	ID                string `json:"id"`
	ConsignmentNumber string `json:"consignmentNumber"`
	TrackingNumber    string `json:"trackingNumber"`
	LabelURL          string `json:"labelUrl"`
	Label             *struct {
		URL string `json:"url"`
	} `json:"label"`
}

type trackingBody struct {
	Status        string         `json:"status"`
	CurrentStatus string         `json:"currentStatus"`
	Events        []carrierEvent `json:"events"`
}

// carrierEvent holds every field name the tracking endpoint has been seen to
// use per event; mapEvent resolves the aliases.
type carrierEvent struct {
	Timestamp    string `json:"timestamp"`
	DateTime     string `json:"dateTime"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	Code         string `json:"code"`
	StatusCode   string `json:"statusCode"`
	Location     string `json:"location"`
	LocationName string `json:"locationName"`
	Description  string `json:"description"`
	Comments     string `json:"comments"`
	Message      string `json:"message"`
}

func mapEvent(ev carrierEvent) domain.TrackingEvent {
	return domain.TrackingEvent{
		Timestamp:   firstNonEmpty(ev.Timestamp, ev.DateTime, ev.Date),
		Status:      firstNonEmpty(ev.Status, ev.Code, ev.StatusCode),
		Location:    firstNonEmpty(ev.Location, ev.LocationName),
		Description: firstNonEmpty(ev.Description, ev.Comments, ev.Message),
	}
}

func firstAmount(amounts ...*amount) *amount {
	for _, a := range amounts {
		if a != nil {
			return a
		}
	}
	return nil
}

func firstInt(values ...*looseInt) *looseInt {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
