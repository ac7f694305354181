// Package carrier integrates with the AramexConnect AU shipping API.
//
// Identity server: POST /connect/token (scope: ac-api-au)
// Shipping endpoints:
//   - POST /shipping/v1/rates
//   - POST /shipping/v1/shipments
//   - GET  /shipping/v1/shipments/{shipmentId}/tracking
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nexship/freightgate/internal/core/domain"
	"github.com/nexship/freightgate/internal/infrastructure/metrics"
)

const (
	defaultIdentityURL = "https://identity.aramexconnect.com.au"
	defaultBaseURL     = "https://api.aramexconnect.com.au"
	tokenScope         = "ac-api-au"
	trackingURLBase    = "https://www.aramex.com/au/track/shipment/"

	// Refresh the cached token a minute before it actually expires to cover
	// clock skew and in-flight request latency.
	tokenSafetyMargin = time.Minute
)

type Config struct {
	IdentityURL   string
	BaseURL       string
	ClientID      string
	ClientSecret  string
	AccountNumber string
	CountryCode   string
}

// Client is the sole integration point with the carrier. It owns the OAuth2
// session lifecycle and all request/response shape translation. The token
// cache is instance-local; concurrent instances each hold their own token.
type Client struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("aramexconnect credentials not configured")
	}
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = defaultIdentityURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "AU"
	}
	cfg.IdentityURL = strings.TrimRight(cfg.IdentityURL, "/")
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// token returns a valid cached access token, fetching a fresh one when the
// cache is empty or past its safety margin.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"scope":         {tokenScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.IdentityURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var oauthErr struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if jsonErr := json.Unmarshal(body, &oauthErr); jsonErr != nil || oauthErr.Error == "" {
			oauthErr.Error = "unknown_error"
			oauthErr.ErrorDescription = string(body)
		}
		if oauthErr.ErrorDescription == "" {
			oauthErr.ErrorDescription = "No description"
		}
		return "", fmt.Errorf("OAuth2 token request failed: %s - %s", oauthErr.Error, oauthErr.ErrorDescription)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("OAuth2 token response malformed: %w", err)
	}
	if token.ExpiresIn <= 0 {
		token.ExpiresIn = 3600
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenSafetyMargin)
	metrics.CarrierTokenRefreshes.Inc()

	return c.accessToken, nil
}

// do executes an authenticated carrier call and returns the raw response body
// alongside the decoded result. Non-2xx responses become descriptive errors.
func (c *Client) do(ctx context.Context, method, endpoint string, payload, out interface{}) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil && method != http.MethodGet {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error   *carrierMessage `json:"error"`
			Message string          `json:"message"`
		}
		if jsonErr := json.Unmarshal(raw, &errBody); jsonErr == nil {
			msg := errBody.Message
			if errBody.Error != nil && errBody.Error.Message != "" {
				msg = errBody.Error.Message
			}
			if msg == "" {
				msg = resp.Status
			}
			return raw, fmt.Errorf("API error: %s (%d)", msg, resp.StatusCode)
		}
		return raw, fmt.Errorf("API error: %d - %s", resp.StatusCode, string(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("malformed carrier response: %w", err)
		}
	}
	return raw, nil
}

// GetRates posts the shipment to the rates endpoint and maps every returned
// rate into a normalized option. Zero rates is a failure; the carrier's error
// message is preserved.
func (c *Client) GetRates(ctx context.Context, req domain.ShipmentRequest) (*domain.RateQuote, error) {
	payload := map[string]interface{}{
		"shipper":       buildParty(req.Shipper, c.cfg.CountryCode),
		"consignee":     buildParty(req.Consignee, c.cfg.CountryCode),
		"items":         buildItems(req.Items),
		"isDocument":    false,
		"declaredValue": 0,
	}

	var out struct {
		Rates   []carrierRate   `json:"rates"`
		Error   *carrierMessage `json:"error"`
		Message string          `json:"message"`
	}
	raw, err := c.do(ctx, http.MethodPost, "/shipping/v1/rates", payload, &out)
	if err != nil {
		metrics.CarrierRequestsTotal.WithLabelValues("rates", "error").Inc()
		return nil, &domain.CarrierError{Op: "rates", Message: err.Error(), Raw: raw}
	}

	if len(out.Rates) == 0 {
		metrics.CarrierRequestsTotal.WithLabelValues("rates", "error").Inc()
		return nil, &domain.CarrierError{
			Op:      "rates",
			Message: carrierErrorMessage(out.Error, out.Message, "No rates available"),
			Raw:     raw,
		}
	}

	rates := make([]domain.RateOption, 0, len(out.Rates))
	for _, r := range out.Rates {
		rates = append(rates, mapRate(r))
	}

	metrics.CarrierRequestsTotal.WithLabelValues("rates", "ok").Inc()
	return &domain.RateQuote{Rates: rates, Raw: raw}, nil
}

// CreateShipment posts a single-shipment creation payload. Payment type is
// fixed to prepaid by payer account and labels are requested as PDF via URL.
// A 2xx response without a shipment id is still a failure.
func (c *Client) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (*domain.ShipmentResult, error) {
	payerAccount := c.cfg.AccountNumber
	if payerAccount == "" {
		payerAccount = c.cfg.ClientID
	}

	payload := map[string]interface{}{
		"shipments": []map[string]interface{}{{
			"reference":          req.Reference,
			"shipper":            buildParty(req.Shipper, c.cfg.CountryCode),
			"consignee":          buildParty(req.Consignee, c.cfg.CountryCode),
			"items":              buildItems(req.Items),
			"serviceType":        req.ServiceType,
			"paymentType":        "P",
			"payerAccountNumber": payerAccount,
			"labelFormat":        map[string]string{"format": "PDF", "type": "URL"},
		}},
	}

	var out struct {
		Shipments []carrierShipment `json:"shipments"`
		Error     *carrierMessage   `json:"error"`
		Message   string            `json:"message"`
	}
	raw, err := c.do(ctx, http.MethodPost, "/shipping/v1/shipments", payload, &out)
	if err != nil {
		metrics.CarrierRequestsTotal.WithLabelValues("shipments", "error").Inc()
		return nil, &domain.CarrierError{Op: "shipments", Message: err.Error(), Raw: raw}
	}

	if len(out.Shipments) == 0 {
		metrics.CarrierRequestsTotal.WithLabelValues("shipments", "error").Inc()
		return nil, &domain.CarrierError{
			Op:      "shipments",
			Message: carrierErrorMessage(out.Error, out.Message, "Shipment creation failed"),
			Raw:     raw,
		}
	}

	shipment := out.Shipments[0]
	shipmentID := firstNonEmpty(shipment.ShipmentID, shipment.ID)
	if shipmentID == "" {
		metrics.CarrierRequestsTotal.WithLabelValues("shipments", "error").Inc()
		return nil, &domain.CarrierError{Op: "shipments", Message: "No shipment ID returned", Raw: raw}
	}

	consignment := firstNonEmpty(shipment.ConsignmentNumber, shipment.TrackingNumber, shipmentID)
	labelURL := shipment.LabelURL
	if labelURL == "" && shipment.Label != nil {
		labelURL = shipment.Label.URL
	}

	metrics.CarrierRequestsTotal.WithLabelValues("shipments", "ok").Inc()
	return &domain.ShipmentResult{
		ShipmentID:        shipmentID,
		ConsignmentNumber: consignment,
		LabelURL:          labelURL,
		TrackingURL:       trackingURLBase + consignment,
		Raw:               raw,
	}, nil
}

// TrackShipment fetches the tracking sub-resource and maps carrier events
// into the normalized event list.
func (c *Client) TrackShipment(ctx context.Context, shipmentID string) (*domain.TrackingResult, error) {
	var out struct {
		trackingBody
		Error    *carrierMessage `json:"error"`
		Message  string          `json:"message"`
		Tracking *trackingBody   `json:"tracking"`
	}
	raw, err := c.do(ctx, http.MethodGet, "/shipping/v1/shipments/"+url.PathEscape(shipmentID)+"/tracking", nil, &out)
	if err != nil {
		metrics.CarrierRequestsTotal.WithLabelValues("tracking", "error").Inc()
		return nil, &domain.CarrierError{Op: "tracking", Message: err.Error(), Raw: raw}
	}

	if out.Error != nil {
		metrics.CarrierRequestsTotal.WithLabelValues("tracking", "error").Inc()
		return nil, &domain.CarrierError{
			Op:      "tracking",
			Message: carrierErrorMessage(out.Error, out.Message, "Tracking failed"),
			Raw:     raw,
		}
	}

	tracking := out.trackingBody
	if out.Tracking != nil {
		tracking = *out.Tracking
	}

	events := make([]domain.TrackingEvent, 0, len(tracking.Events))
	for _, ev := range tracking.Events {
		events = append(events, mapEvent(ev))
	}

	status := firstNonEmpty(tracking.Status, tracking.CurrentStatus, "Unknown")

	metrics.CarrierRequestsTotal.WithLabelValues("tracking", "ok").Inc()
	return &domain.TrackingResult{
		ShipmentID: shipmentID,
		Status:     status,
		Events:     events,
		Raw:        raw,
	}, nil
}

func buildParty(p domain.Party, defaultCountry string) map[string]interface{} {
	country := p.Address.CountryCode
	if country == "" {
		country = defaultCountry
	}
	return map[string]interface{}{
		"address": map[string]string{
			"line1":       p.Address.Line1,
			"city":        p.Address.City,
			"state":       p.Address.State,
			"postCode":    p.Address.PostCode,
			"countryCode": country,
		},
		"contact": map[string]string{
			"name":  p.Contact.Name,
			"phone": p.Contact.Phone,
			"email": p.Contact.Email,
		},
	}
}

func buildItems(items []domain.Item) []map[string]interface{} {
	built := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		description := item.Description
		if description == "" {
			description = "General Goods"
		}
		built = append(built, map[string]interface{}{
			"weight": map[string]interface{}{"value": item.Weight, "unit": "Kg"},
			"dimensions": map[string]interface{}{
				"length": item.Length,
				"width":  item.Width,
				"height": item.Height,
				"unit":   "Cm",
			},
			"quantity":    quantity,
			"description": description,
		})
	}
	return built
}

func carrierErrorMessage(errMsg *carrierMessage, message, fallback string) string {
	if errMsg != nil && errMsg.Message != "" {
		return errMsg.Message
	}
	if message != "" {
		return message
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
