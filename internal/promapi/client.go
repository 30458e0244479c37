package promapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/models"
)

const (
	// DateLayout is the timestamp format the orders API expects in
	// date_from/date_to and returns in date_created.
	DateLayout = "2006-01-02T15:04:05"

	ordersListPath = "/api/v1/orders/list"
)

// TransportError wraps a network-level failure reaching the
// marketplace. Not retried here; the pass aborts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("marketplace request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a non-200 response from the marketplace, carrying
// status and body for diagnosis.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("marketplace returned %d: %s", e.StatusCode, e.Body)
}

// ListParams are the query parameters of one page fetch.
type ListParams struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// OrderRecord mirrors one order in the API response. Monetary fields
// arrive in inconsistent shapes (strings with grouping punctuation,
// numbers, nulls), so they stay untyped until normalization.
type OrderRecord struct {
	ID                   int64           `json:"id"`
	DateCreated          string          `json:"date_created"`
	ClientFirstName      string          `json:"client_first_name"`
	ClientSecondName     string          `json:"client_second_name"`
	ClientLastName       string          `json:"client_last_name"`
	ClientID             int64           `json:"client_id"`
	ClientNotes          string          `json:"client_notes"`
	Phone                string          `json:"phone"`
	Email                string          `json:"email"`
	Price                interface{}     `json:"price"`
	FullPrice            interface{}     `json:"full_price"`
	DeliveryAddress      string          `json:"delivery_address"`
	DeliveryCost         interface{}     `json:"delivery_cost"`
	Status               string          `json:"status"`
	StatusName           string          `json:"status_name"`
	Source               string          `json:"source"`
	HasPromoFreeDelivery bool            `json:"has_order_promo_free_delivery"`
	DontCallCustomerBack bool            `json:"dont_call_customer_back"`
	DeliveryOption       models.JSONMap  `json:"delivery_option"`
	DeliveryProviderData models.JSONMap  `json:"delivery_provider_data"`
	PaymentOption        models.JSONMap  `json:"payment_option"`
	PaymentData          models.JSONMap  `json:"payment_data"`
	UTM                  models.JSONMap  `json:"utm"`
	CpaCommission        models.JSONMap  `json:"cpa_commission"`
	PsPromotion          models.JSONMap  `json:"ps_promotion"`
	Cancellation         models.JSONMap  `json:"cancellation"`
	Products             []ProductRecord `json:"products"`
}

// ProductRecord mirrors one line item in the API response.
type ProductRecord struct {
	ID            int64          `json:"id"`
	ExternalID    string         `json:"external_id"`
	Image         string         `json:"image"`
	Quantity      float64        `json:"quantity"`
	Price         interface{}    `json:"price"`
	URL           string         `json:"url"`
	Name          string         `json:"name"`
	NameMultilang models.JSONMap `json:"name_multilang"`
	TotalPrice    interface{}    `json:"total_price"`
	MeasureUnit   string         `json:"measure_unit"`
	SKU           string         `json:"sku"`
	CpaCommission models.JSONMap `json:"cpa_commission"`
}

type listResponse struct {
	Orders []OrderRecord `json:"orders"`
}

// Client fetches order pages from the marketplace API with bearer
// authorization. One instance serves all stores; the per-store base
// domain override is applied per call.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a marketplace API client. baseURL is the default
// endpoint (e.g. https://my.prom.ua); timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchPage fetches one page of orders for the given store. It returns
// a TransportError on network failure and a RemoteError on a non-200
// status; both abort the caller's pass.
func (c *Client) FetchPage(ctx context.Context, store *models.Store, p ListParams) ([]OrderRecord, error) {
	base := c.baseURL
	if store.BaseDomain != "" {
		base = strings.TrimRight(store.BaseDomain, "/")
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset))
	if p.DateFrom != nil {
		q.Set("date_from", p.DateFrom.Format(DateLayout))
	}
	if p.DateTo != nil {
		q.Set("date_to", p.DateTo.Format(DateLayout))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+ordersListPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+store.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded listResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w", err)
	}

	return decoded.Orders, nil
}
