package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nexship/freightgate/internal/core/domain"
	"github.com/nexship/freightgate/internal/core/ports"
	"github.com/nexship/freightgate/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler handles HTTP requests for the quote/book/track pipeline.
type APIHandler struct {
	svc         ports.FreightService
	auth        ports.Authenticator
	limiter     ports.RateLimiter
	repo        ports.FreightRepository
	maxRequests int
	logger      *slog.Logger
}

func NewAPIHandler(svc ports.FreightService, auth ports.Authenticator, limiter ports.RateLimiter, repo ports.FreightRepository, maxRequests int, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		svc:         svc,
		auth:        auth,
		limiter:     limiter,
		repo:        repo,
		maxRequests: maxRequests,
		logger:      logger,
	}
}

// RegisterRoutes registers the API routes with the provided ServeMux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public routes
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	authed := AuthMiddleware(h.auth, h.limiter, h.maxRequests)

	mux.Handle("POST /api-quote", authed(h.instrument("/api-quote", "quote", h.Quote)))
	mux.Handle("POST /api-book", authed(h.instrument("/api-book", "book", h.Book)))
	mux.Handle("GET /api-track/{shipmentId}", authed(h.instrument("/api-track", "track", h.Track)))
	mux.Handle("GET /api-track", authed(h.instrument("/api-track", "track", h.Track)))
	mux.Handle("GET /api-bookings/{bookingId}", authed(h.instrument("/api-bookings", "booking", h.GetBooking)))
}

// HealthCheck reports service health including database reachability.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := map[string]string{"database": "OK"}

	if err := h.repo.Ping(r.Context()); err != nil {
		status = "DEGRADED"
		details["database"] = err.Error()
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{"status": status, "details": details})
}

// instrument wraps a handler with status capture, request metrics, and
// top-level panic recovery. A panic becomes a logged 500 with a generic body.
func (h *APIHandler) instrument(endpoint, logType string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				h.logger.Error("handler panic", "endpoint", endpoint, "panic", p)
				customerID, _ := r.Context().Value(CtxCustomerID).(string)
				h.audit(r, logType, customerID, endpoint, nil, nil, http.StatusInternalServerError, "internal error", started)
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error":   "Internal server error",
					"message": "An unexpected error occurred",
				})
				rec.status = http.StatusInternalServerError
			}
			metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
			metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
		}()

		fn(rec, r)
	})
}

type quotePayload struct {
	Shipper   *domain.PartyPayload `json:"shipper"`
	Consignee *domain.PartyPayload `json:"consignee"`
	Items     []domain.ItemPayload `json:"items"`
}

var partyRequiredShape = map[string]interface{}{
	"address": map[string]string{"line1": "string", "city": "string", "state": "string", "postCode": "string", "countryCode": "string"},
	"contact": map[string]string{"name": "string", "phone": "string", "email": "string"},
}

var itemRequiredShape = []map[string]string{{
	"weight":      "number or {value, unit}",
	"length":      "number",
	"width":       "number",
	"height":      "number",
	"quantity":    "number (optional)",
	"description": "string (optional)",
}}

// Quote handles POST /api-quote.
func (h *APIHandler) Quote(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	customerID, _ := r.Context().Value(CtxCustomerID).(string)

	var payload quotePayload
	body, ok := decodeBody(w, r, &payload)
	if !ok {
		return
	}

	if payload.Shipper == nil || payload.Consignee == nil || len(payload.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Missing required fields",
			"required": map[string]interface{}{
				"shipper":   partyRequiredShape,
				"consignee": partyRequiredShape,
				"items":     itemRequiredShape,
			},
		})
		return
	}

	shipper, err := payload.Shipper.Normalize()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed shipper", "message": err.Error()})
		return
	}
	consignee, err := payload.Consignee.Normalize()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed consignee", "message": err.Error()})
		return
	}

	if err := domain.ValidateParty(shipper, "shipper"); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := domain.ValidateParty(consignee, "consignee"); err != nil {
		writeValidationError(w, err)
		return
	}

	items := make([]domain.Item, 0, len(payload.Items))
	for i := range payload.Items {
		items = append(items, payload.Items[i].Normalize())
	}
	if err := domain.ValidateItems(items); err != nil {
		writeValidationError(w, err)
		return
	}

	reply, err := h.svc.Quote(r.Context(), customerID, shipper, consignee, items)
	if err != nil {
		h.quoteError(w, r, customerID, body, err, started)
		return
	}

	h.audit(r, "quote", customerID, "/api-quote", body, reply, http.StatusOK, "", started)
	writeJSON(w, http.StatusOK, reply)
}

func (h *APIHandler) quoteError(w http.ResponseWriter, r *http.Request, customerID string, body []byte, err error, started time.Time) {
	var carrierErr *domain.CarrierError
	switch {
	case errors.Is(err, domain.ErrCustomerInactive):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Customer account not found or inactive"})
	case errors.As(err, &carrierErr):
		h.audit(r, "quote", customerID, "/api-quote", body, nil, http.StatusBadRequest, carrierErr.Message, started)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Failed to get quote from AramexConnect",
			"details": carrierErr.Message,
		})
	default:
		h.internalError(w, r, "quote", customerID, "/api-quote", err, started)
	}
}

type bookPayload struct {
	QuoteID     string               `json:"quoteId"`
	Reference   string               `json:"reference"`
	Shipper     *domain.PartyPayload `json:"shipper"`
	Consignee   *domain.PartyPayload `json:"consignee"`
	Items       []domain.ItemPayload `json:"items"`
	ServiceType string               `json:"serviceType"`
}

// Book handles POST /api-book.
func (h *APIHandler) Book(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	customerID, _ := r.Context().Value(CtxCustomerID).(string)

	var payload bookPayload
	body, ok := decodeBody(w, r, &payload)
	if !ok {
		return
	}

	if payload.QuoteID == "" || payload.Shipper == nil || payload.Consignee == nil || len(payload.Items) == 0 || payload.ServiceType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Missing required fields",
			"required": map[string]interface{}{
				"quoteId":     "string",
				"reference":   "string (optional)",
				"shipper":     partyRequiredShape,
				"consignee":   partyRequiredShape,
				"items":       itemRequiredShape,
				"serviceType": "string",
			},
		})
		return
	}

	shipper, err := payload.Shipper.Normalize()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed shipper", "message": err.Error()})
		return
	}
	consignee, err := payload.Consignee.Normalize()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed consignee", "message": err.Error()})
		return
	}

	items := make([]domain.Item, 0, len(payload.Items))
	for i := range payload.Items {
		items = append(items, payload.Items[i].Normalize())
	}
	if err := domain.ValidateItems(items); err != nil {
		writeValidationError(w, err)
		return
	}

	reply, err := h.svc.Book(r.Context(), customerID, ports.BookingParams{
		QuoteID:     payload.QuoteID,
		Reference:   payload.Reference,
		Shipper:     shipper,
		Consignee:   consignee,
		Items:       items,
		ServiceType: payload.ServiceType,
	})
	if err != nil {
		h.bookError(w, r, customerID, body, err, started)
		return
	}

	h.audit(r, "book", customerID, "/api-book", body, reply, http.StatusOK, "", started)
	writeJSON(w, http.StatusOK, reply)
}

func (h *APIHandler) bookError(w http.ResponseWriter, r *http.Request, customerID string, body []byte, err error, started time.Time) {
	var carrierErr *domain.CarrierError
	switch {
	case errors.Is(err, domain.ErrQuoteNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   "Quote not found or expired",
			"message": "Please ensure the quote ID is correct and belongs to your account",
		})
	case errors.Is(err, domain.ErrQuoteExpired):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Quote has expired",
			"message": "Please request a new quote",
		})
	case errors.Is(err, domain.ErrServiceNotQuoted):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Service type was not quoted",
			"message": "Please book one of the service types returned with the quote",
		})
	case errors.Is(err, domain.ErrQuoteAlreadyBooked):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "Quote has already been booked",
			"message": "Please request a new quote",
		})
	case errors.As(err, &carrierErr):
		h.audit(r, "book", customerID, "/api-book", body, nil, http.StatusBadRequest, carrierErr.Message, started)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Failed to create booking",
			"details": carrierErr.Message,
		})
	default:
		h.internalError(w, r, "book", customerID, "/api-book", err, started)
	}
}

// Track handles GET /api-track/{shipmentId}.
func (h *APIHandler) Track(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	customerID, _ := r.Context().Value(CtxCustomerID).(string)

	shipmentID := r.PathValue("shipmentId")
	if shipmentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Missing shipment ID",
			"message": "Please provide a shipment ID or consignment number in the URL path",
			"example": "/api-track/{shipmentId}",
		})
		return
	}

	reqData, _ := json.Marshal(map[string]string{"shipmentId": shipmentID})

	reply, err := h.svc.Track(r.Context(), shipmentID)
	if err != nil {
		var carrierErr *domain.CarrierError
		if errors.As(err, &carrierErr) {
			h.audit(r, "track", customerID, "/api-track", reqData, nil, http.StatusBadRequest, carrierErr.Message, started)
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "Failed to track shipment",
				"details": carrierErr.Message,
			})
			return
		}
		h.internalError(w, r, "track", customerID, "/api-track", err, started)
		return
	}

	h.audit(r, "track", customerID, "/api-track", reqData, reply, http.StatusOK, "", started)
	writeJSON(w, http.StatusOK, reply)
}

// GetBooking handles GET /api-bookings/{bookingId}. Bookings are only visible
// to the customer that created them.
func (h *APIHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	customerID, _ := r.Context().Value(CtxCustomerID).(string)
	bookingID := r.PathValue("bookingId")

	booking, err := h.repo.GetBooking(r.Context(), bookingID, customerID)
	if err != nil {
		h.logger.Error("booking lookup failed", "booking_id", bookingID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"message": err.Error(),
		})
		return
	}
	if booking == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "Booking not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (h *APIHandler) internalError(w http.ResponseWriter, r *http.Request, logType, customerID, endpoint string, err error, started time.Time) {
	h.logger.Error("request failed", "endpoint", endpoint, "error", err)
	h.audit(r, logType, customerID, endpoint, nil, nil, http.StatusInternalServerError, err.Error(), started)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

// audit appends one request-log row. Logging failure never fails the request.
func (h *APIHandler) audit(r *http.Request, logType, customerID, endpoint string, reqData []byte, respData interface{}, status int, errMsg string, started time.Time) {
	entry := &domain.RequestLog{
		ID:           uuid.New().String(),
		CustomerID:   customerID,
		LogType:      logType,
		Endpoint:     endpoint,
		RequestData:  reqData,
		StatusCode:   status,
		ErrorMessage: errMsg,
		DurationMs:   time.Since(started).Milliseconds(),
		IPAddress:    r.RemoteAddr,
		CreatedAt:    time.Now(),
	}
	if respData != nil {
		if data, err := json.Marshal(respData); err == nil {
			entry.ResponseData = data
		}
	}

	if err := h.repo.SaveRequestLog(r.Context(), entry); err != nil {
		h.logger.Error("failed to save request log", "endpoint", endpoint, "error", err)
	}
}

// decodeBody reads and decodes the JSON request body, responding 400 itself
// when the body is unreadable or not valid JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) ([]byte, bool) {
	body, err := readBody(r)
	if err != nil || len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return nil, false
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body", "message": err.Error()})
		return nil, false
	}
	return body, true
}

func writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   validationErr.Message,
			"missing": validationErr.Missing,
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
