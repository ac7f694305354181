package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/nexship/freightgate/internal/core/domain"
)

// PostgresRepository implements ports.FreightRepository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT id, user_id, business_name, email, phone, markup_type, markup_value, active, created_at
	          FROM api_customers WHERE id = $1`
	return r.scanCustomer(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	query := `SELECT id, user_id, business_name, email, phone, markup_type, markup_value, active, created_at
	          FROM api_customers WHERE user_id = $1`
	return r.scanCustomer(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) scanCustomer(row *sql.Row) (*domain.Customer, error) {
	var c domain.Customer
	var userID, phone sql.NullString
	errRow := row.Scan(&c.ID, &userID, &c.BusinessName, &c.Email, &phone, &c.MarkupType, &c.MarkupValue, &c.Active, &c.CreatedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	c.UserID = userID.String
	c.Phone = phone.String
	return &c, nil
}

func (r *PostgresRepository) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	query := `SELECT id, customer_id, name, key_hash, key_prefix, active, created_at, expires_at, last_used_at
	          FROM customer_api_keys WHERE key_hash = $1`
	var k domain.APIKey
	var expiresAt, lastUsedAt sql.NullTime
	errRow := r.db.QueryRowContext(ctx, query, keyHash).Scan(&k.ID, &k.CustomerID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Active, &k.CreatedAt, &expiresAt, &lastUsedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		k.ExpiresAt = &t
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		k.LastUsedAt = &t
	}
	return &k, nil
}

func (r *PostgresRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO customer_api_keys (id, customer_id, name, key_hash, key_prefix, active, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.CustomerID, key.Name, key.KeyHash, key.KeyPrefix, key.Active, key.CreatedAt, key.ExpiresAt)
	return err
}

func (r *PostgresRepository) ListAPIKeys(ctx context.Context, customerID string) ([]domain.APIKey, error) {
	query := `SELECT id, customer_id, name, key_prefix, active, created_at, expires_at, last_used_at
	          FROM customer_api_keys WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, errQuery := r.db.QueryContext(ctx, query, customerID)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var keys []domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		var expiresAt, lastUsedAt sql.NullTime
		if errScan := rows.Scan(&k.ID, &k.CustomerID, &k.Name, &k.KeyPrefix, &k.Active, &k.CreatedAt, &expiresAt, &lastUsedAt); errScan != nil {
			return nil, errScan
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			k.ExpiresAt = &t
		}
		if lastUsedAt.Valid {
			t := lastUsedAt.Time
			k.LastUsedAt = &t
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (r *PostgresRepository) RevokeAPIKey(ctx context.Context, id string) error {
	query := `UPDATE customer_api_keys SET active = FALSE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepository) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE customer_api_keys SET last_used_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, usedAt)
	return err
}

func (r *PostgresRepository) CreateQuote(ctx context.Context, quote *domain.Quote, rates []domain.QuoteRate) error {
	tx, errTx := r.db.BeginTx(ctx, nil)
	if errTx != nil {
		return errTx
	}
	defer func() {
		if errRollback := tx.Rollback(); errRollback != nil && !errors.Is(errRollback, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction: %v", errRollback)
		}
	}()

	quoteQuery := `INSERT INTO freight_quotes (id, customer_id, service_type, base_cost, markup_amount, total_cost,
	               origin_suburb, origin_postcode, destination_suburb, destination_postcode, weight, dimensions,
	               carrier_response, valid_until, consumed, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, errExec := tx.ExecContext(ctx, quoteQuery, quote.ID, quote.CustomerID, quote.ServiceType, quote.BaseCost,
		quote.MarkupAmount, quote.TotalCost, quote.OriginSuburb, quote.OriginPostcode, quote.DestinationSuburb,
		quote.DestinationPostcode, quote.Weight, []byte(quote.Dimensions), []byte(quote.CarrierResponse),
		quote.ValidUntil, quote.Consumed, quote.CreatedAt)
	if errExec != nil {
		return errExec
	}

	rateQuery := `INSERT INTO freight_quote_rates (id, quote_id, service_type, service_name, base_cost, markup_amount,
	              total_cost, currency, transit_days)
	              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, rate := range rates {
		_, errExecRate := tx.ExecContext(ctx, rateQuery, rate.ID, rate.QuoteID, rate.ServiceType, rate.ServiceName,
			rate.BaseCost, rate.MarkupAmount, rate.TotalCost, rate.Currency, rate.TransitDays)
		if errExecRate != nil {
			return errExecRate
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetQuote(ctx context.Context, id string, customerID string) (*domain.Quote, error) {
	query := `SELECT id, customer_id, service_type, base_cost, markup_amount, total_cost, origin_suburb, origin_postcode,
	          destination_suburb, destination_postcode, weight, dimensions, valid_until, consumed, created_at
	          FROM freight_quotes WHERE id = $1 AND customer_id = $2`
	var q domain.Quote
	var dimensions []byte
	errRow := r.db.QueryRowContext(ctx, query, id, customerID).Scan(&q.ID, &q.CustomerID, &q.ServiceType, &q.BaseCost,
		&q.MarkupAmount, &q.TotalCost, &q.OriginSuburb, &q.OriginPostcode, &q.DestinationSuburb, &q.DestinationPostcode,
		&q.Weight, &dimensions, &q.ValidUntil, &q.Consumed, &q.CreatedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	q.Dimensions = dimensions
	return &q, nil
}

func (r *PostgresRepository) GetQuoteRate(ctx context.Context, quoteID string, serviceType string) (*domain.QuoteRate, error) {
	query := `SELECT id, quote_id, service_type, service_name, base_cost, markup_amount, total_cost, currency, transit_days
	          FROM freight_quote_rates WHERE quote_id = $1 AND service_type = $2`
	var rate domain.QuoteRate
	errRow := r.db.QueryRowContext(ctx, query, quoteID, serviceType).Scan(&rate.ID, &rate.QuoteID, &rate.ServiceType,
		&rate.ServiceName, &rate.BaseCost, &rate.MarkupAmount, &rate.TotalCost, &rate.Currency, &rate.TransitDays)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &rate, nil
}

// ClaimQuote flips the consumed flag with a conditional update so only one of
// two concurrent bookings can win.
func (r *PostgresRepository) ClaimQuote(ctx context.Context, id string, customerID string) (bool, error) {
	query := `UPDATE freight_quotes SET consumed = TRUE WHERE id = $1 AND customer_id = $2 AND consumed = FALSE`
	res, errExec := r.db.ExecContext(ctx, query, id, customerID)
	if errExec != nil {
		return false, errExec
	}
	affected, errRows := res.RowsAffected()
	if errRows != nil {
		return false, errRows
	}
	return affected == 1, nil
}

func (r *PostgresRepository) ReleaseQuote(ctx context.Context, id string) error {
	query := `UPDATE freight_quotes SET consumed = FALSE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepository) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	query := `INSERT INTO bookings (id, customer_id, quote_id, consignment_number, label_url, tracking_url,
	          estimated_price, reference_number, pickup_name, pickup_address, pickup_suburb, pickup_postcode,
	          pickup_phone, pickup_email, delivery_name, delivery_address, delivery_suburb, delivery_postcode,
	          delivery_phone, delivery_email, package_weight, package_length, package_width, package_height,
	          package_description, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	          $21, $22, $23, $24, $25, $26, $27)`
	_, err := r.db.ExecContext(ctx, query, booking.ID, booking.CustomerID, booking.QuoteID, booking.ConsignmentNumber,
		booking.LabelURL, booking.TrackingURL, booking.EstimatedPrice, booking.ReferenceNumber, booking.PickupName,
		booking.PickupAddress, booking.PickupSuburb, booking.PickupPostcode, booking.PickupPhone, booking.PickupEmail,
		booking.DeliveryName, booking.DeliveryAddress, booking.DeliverySuburb, booking.DeliveryPostcode,
		booking.DeliveryPhone, booking.DeliveryEmail, booking.PackageWeight, booking.PackageLength, booking.PackageWidth,
		booking.PackageHeight, booking.PackageDescription, booking.Status, booking.CreatedAt)
	return err
}

func (r *PostgresRepository) GetBooking(ctx context.Context, id string, customerID string) (*domain.Booking, error) {
	query := `SELECT id, customer_id, quote_id, consignment_number, label_url, tracking_url, estimated_price,
	          reference_number, pickup_name, pickup_address, pickup_suburb, pickup_postcode, pickup_phone, pickup_email,
	          delivery_name, delivery_address, delivery_suburb, delivery_postcode, delivery_phone, delivery_email,
	          package_weight, package_length, package_width, package_height, package_description, status, created_at
	          FROM bookings WHERE id = $1 AND customer_id = $2`
	var b domain.Booking
	errRow := r.db.QueryRowContext(ctx, query, id, customerID).Scan(&b.ID, &b.CustomerID, &b.QuoteID,
		&b.ConsignmentNumber, &b.LabelURL, &b.TrackingURL, &b.EstimatedPrice, &b.ReferenceNumber, &b.PickupName,
		&b.PickupAddress, &b.PickupSuburb, &b.PickupPostcode, &b.PickupPhone, &b.PickupEmail, &b.DeliveryName,
		&b.DeliveryAddress, &b.DeliverySuburb, &b.DeliveryPostcode, &b.DeliveryPhone, &b.DeliveryEmail,
		&b.PackageWeight, &b.PackageLength, &b.PackageWidth, &b.PackageHeight, &b.PackageDescription, &b.Status,
		&b.CreatedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &b, nil
}

func (r *PostgresRepository) SaveRequestLog(ctx context.Context, entry *domain.RequestLog) error {
	query := `INSERT INTO api_request_logs (id, customer_id, log_type, endpoint, request_data, response_data,
	          status_code, error_message, duration_ms, ip_address, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	var customerID interface{}
	if entry.CustomerID != "" {
		customerID = entry.CustomerID
	}
	_, err := r.db.ExecContext(ctx, query, entry.ID, customerID, entry.LogType, entry.Endpoint,
		[]byte(entry.RequestData), []byte(entry.ResponseData), entry.StatusCode, entry.ErrorMessage,
		entry.DurationMs, entry.IPAddress, entry.CreatedAt)
	return err
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
