package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Store is a tenant credential: one connected marketplace account.
// The sync engine only ever reads it.
type Store struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	StoreName  string    `db:"store_name" json:"store_name"`
	APIKey     string    `db:"api_key" json:"-"`
	BaseDomain string    `db:"base_domain" json:"base_domain,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// JSONMap holds a semi-structured upstream payload (delivery metadata,
// commission details and the like) as an opaque JSONB value.
type JSONMap map[string]interface{}

// Value implements driver.Valuer for JSONB columns.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB columns.
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// GetString looks up a top-level string value. A missing, null or
// non-string key yields ok=false, never an error.
func (m JSONMap) GetString(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// GetUnifiedStatus returns the carrier's unified delivery status.
func (m JSONMap) GetUnifiedStatus() (string, bool) {
	return m.GetString("unified_status")
}

// GetDeclarationNumber returns the carrier tracking (TTN) number.
func (m JSONMap) GetDeclarationNumber() (string, bool) {
	return m.GetString("declaration_number")
}

// Order is one marketplace order. The remote id is globally unique
// upstream and serves as the local primary key; re-importing the same
// id under another store reassigns ownership instead of duplicating.
type Order struct {
	ID                   int64           `db:"id" json:"id"`
	StoreID              int64           `db:"store_id" json:"store_id"`
	DateCreated          time.Time       `db:"date_created" json:"date_created"`
	ClientFirstName      string          `db:"client_first_name" json:"client_first_name"`
	ClientSecondName     string          `db:"client_second_name" json:"client_second_name"`
	ClientLastName       string          `db:"client_last_name" json:"client_last_name"`
	ClientID             int64           `db:"client_id" json:"client_id"`
	ClientNotes          string          `db:"client_notes" json:"client_notes"`
	Phone                string          `db:"phone" json:"phone"`
	Email                string          `db:"email" json:"email"`
	Price                decimal.Decimal `db:"price" json:"price"`
	FullPrice            decimal.Decimal `db:"full_price" json:"full_price"`
	DeliveryAddress      string          `db:"delivery_address" json:"delivery_address"`
	DeliveryCost         decimal.Decimal `db:"delivery_cost" json:"delivery_cost"`
	Status               string          `db:"status" json:"status"`
	StatusName           string          `db:"status_name" json:"status_name"`
	Source               string          `db:"source" json:"source"`
	HasPromoFreeDelivery bool            `db:"has_promo_free_delivery" json:"has_promo_free_delivery"`
	DontCallCustomerBack bool            `db:"dont_call_customer_back" json:"dont_call_customer_back"`
	DeliveryOption       JSONMap         `db:"delivery_option" json:"delivery_option"`
	DeliveryProviderData JSONMap         `db:"delivery_provider_data" json:"delivery_provider_data"`
	PaymentOption        JSONMap         `db:"payment_option" json:"payment_option"`
	PaymentData          JSONMap         `db:"payment_data" json:"payment_data"`
	UTM                  JSONMap         `db:"utm" json:"utm"`
	CpaCommission        JSONMap         `db:"cpa_commission" json:"cpa_commission"`
	PsPromotion          JSONMap         `db:"ps_promotion" json:"ps_promotion"`
	Cancellation         JSONMap         `db:"cancellation" json:"cancellation"`
	DeliveryStatus       string          `db:"delivery_status" json:"delivery_status"`
	TrackingNumber       string          `db:"tracking_number" json:"tracking_number"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// Product is one line item of an order, keyed by (order, external_id).
// A line item removed upstream stays in place; the engine never
// deletes rows.
type Product struct {
	ID            int64           `db:"id" json:"id"`
	OrderID       int64           `db:"order_id" json:"order_id"`
	ExternalID    string          `db:"external_id" json:"external_id"`
	Image         string          `db:"image" json:"image"`
	Quantity      float64         `db:"quantity" json:"quantity"`
	Price         decimal.Decimal `db:"price" json:"price"`
	URL           string          `db:"url" json:"url"`
	Name          string          `db:"name" json:"name"`
	NameMultilang JSONMap         `db:"name_multilang" json:"name_multilang"`
	TotalPrice    decimal.Decimal `db:"total_price" json:"total_price"`
	MeasureUnit   string          `db:"measure_unit" json:"measure_unit"`
	SKU           string          `db:"sku" json:"sku"`
	CpaCommission JSONMap         `db:"cpa_commission" json:"cpa_commission"`
}

// StatusNameFulfilled is the marketplace's human-readable label for a
// completed order ("Виконано" on the Ukrainian portal).
const StatusNameFulfilled = "Виконано"

// DeliveryStatusNoTracking marks fulfilled orders that carry no TTN.
const DeliveryStatusNoTracking = "no_ttn"

// StatusCancelled is the machine status code of a cancelled order.
const StatusCancelled = "canceled"

// StatusCount is one row of the per-status aggregation.
type StatusCount struct {
	StatusName string `db:"status_name" json:"status_name"`
	Count      int64  `db:"count" json:"count"`
}

// SyncSummary reports the outcome of one sync pass.
type SyncSummary struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

func (s SyncSummary) String() string {
	return fmt.Sprintf("imported %d orders: %d new, %d updated", s.Fetched, s.Created, s.Updated)
}
