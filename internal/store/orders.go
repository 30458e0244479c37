package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/models"

	"github.com/lib/pq"
)

// UpsertOrder inserts the order or fully overwrites the existing row
// with the same remote id. The store_id is overwritten too, so an
// order re-imported under another credential changes owner instead of
// duplicating. Returns true when the row was newly inserted.
func (s *Store) UpsertOrder(ctx context.Context, order *models.Order) (bool, error) {
	query := `
		INSERT INTO orders (
			id, store_id, date_created,
			client_first_name, client_second_name, client_last_name,
			client_id, client_notes, phone, email,
			price, full_price, delivery_address, delivery_cost,
			status, status_name, source,
			has_promo_free_delivery, dont_call_customer_back,
			delivery_option, delivery_provider_data,
			payment_option, payment_data, utm,
			cpa_commission, ps_promotion, cancellation,
			delivery_status, tracking_number
		) VALUES (
			:id, :store_id, :date_created,
			:client_first_name, :client_second_name, :client_last_name,
			:client_id, :client_notes, :phone, :email,
			:price, :full_price, :delivery_address, :delivery_cost,
			:status, :status_name, :source,
			:has_promo_free_delivery, :dont_call_customer_back,
			:delivery_option, :delivery_provider_data,
			:payment_option, :payment_data, :utm,
			:cpa_commission, :ps_promotion, :cancellation,
			:delivery_status, :tracking_number
		)
		ON CONFLICT (id) DO UPDATE SET
			store_id = EXCLUDED.store_id,
			date_created = EXCLUDED.date_created,
			client_first_name = EXCLUDED.client_first_name,
			client_second_name = EXCLUDED.client_second_name,
			client_last_name = EXCLUDED.client_last_name,
			client_id = EXCLUDED.client_id,
			client_notes = EXCLUDED.client_notes,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			price = EXCLUDED.price,
			full_price = EXCLUDED.full_price,
			delivery_address = EXCLUDED.delivery_address,
			delivery_cost = EXCLUDED.delivery_cost,
			status = EXCLUDED.status,
			status_name = EXCLUDED.status_name,
			source = EXCLUDED.source,
			has_promo_free_delivery = EXCLUDED.has_promo_free_delivery,
			dont_call_customer_back = EXCLUDED.dont_call_customer_back,
			delivery_option = EXCLUDED.delivery_option,
			delivery_provider_data = EXCLUDED.delivery_provider_data,
			payment_option = EXCLUDED.payment_option,
			payment_data = EXCLUDED.payment_data,
			utm = EXCLUDED.utm,
			cpa_commission = EXCLUDED.cpa_commission,
			ps_promotion = EXCLUDED.ps_promotion,
			cancellation = EXCLUDED.cancellation,
			delivery_status = EXCLUDED.delivery_status,
			tracking_number = EXCLUDED.tracking_number,
			updated_at = NOW()
		RETURNING (xmax = 0) AS created`

	rows, err := s.db.NamedQueryContext(ctx, query, order)
	if err != nil {
		return false, fmt.Errorf("failed to upsert order %d: %w", order.ID, err)
	}
	defer rows.Close()

	var created bool
	if rows.Next() {
		if err := rows.Scan(&created); err != nil {
			return false, err
		}
	}
	return created, rows.Err()
}

// UpsertProduct inserts the line item or fully overwrites the row with
// the same (order_id, external_id) key. Returns true on insert.
func (s *Store) UpsertProduct(ctx context.Context, product *models.Product) (bool, error) {
	query := `
		INSERT INTO products (
			order_id, external_id, image, quantity, price, url,
			name, name_multilang, total_price, measure_unit, sku, cpa_commission
		) VALUES (
			:order_id, :external_id, :image, :quantity, :price, :url,
			:name, :name_multilang, :total_price, :measure_unit, :sku, :cpa_commission
		)
		ON CONFLICT (order_id, external_id) DO UPDATE SET
			image = EXCLUDED.image,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			url = EXCLUDED.url,
			name = EXCLUDED.name,
			name_multilang = EXCLUDED.name_multilang,
			total_price = EXCLUDED.total_price,
			measure_unit = EXCLUDED.measure_unit,
			sku = EXCLUDED.sku,
			cpa_commission = EXCLUDED.cpa_commission
		RETURNING (xmax = 0) AS created`

	rows, err := s.db.NamedQueryContext(ctx, query, product)
	if err != nil {
		return false, fmt.Errorf("failed to upsert product %s of order %d: %w",
			product.ExternalID, product.OrderID, err)
	}
	defer rows.Close()

	var created bool
	if rows.Next() {
		if err := rows.Scan(&created); err != nil {
			return false, err
		}
	}
	return created, rows.Err()
}

// SetDeliveryStatus persists the single-field delivery status
// correction applied after an upsert.
func (s *Store) SetDeliveryStatus(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET delivery_status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// OrderFilter narrows the order listing. Zero values mean "no filter".
type OrderFilter struct {
	StoreIDs        []int64
	OrderID         int64
	DateFrom        *time.Time
	DateTo          *time.Time
	ClientFirstName string
	ClientLastName  string
	Phone           string
	Email           string
	StatusName      string
	Source          string
	Limit           int
	Offset          int
}

// ListOrders retrieves orders newest-first with the given filters.
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	var conditions []string
	var args []interface{}

	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if len(filter.StoreIDs) > 0 {
		args = append(args, pq.Array(filter.StoreIDs))
		conditions = append(conditions, fmt.Sprintf("store_id = ANY($%d)", len(args)))
	}
	if filter.OrderID != 0 {
		add("id = $%d", filter.OrderID)
	}
	if filter.DateFrom != nil {
		add("date_created >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("date_created <= $%d", *filter.DateTo)
	}
	if filter.ClientFirstName != "" {
		add("client_first_name ILIKE '%%' || $%d || '%%'", filter.ClientFirstName)
	}
	if filter.ClientLastName != "" {
		add("client_last_name ILIKE '%%' || $%d || '%%'", filter.ClientLastName)
	}
	if filter.Phone != "" {
		add("phone ILIKE '%%' || $%d || '%%'", filter.Phone)
	}
	if filter.Email != "" {
		add("email ILIKE '%%' || $%d || '%%'", filter.Email)
	}
	if filter.StatusName != "" {
		add("status_name = $%d", filter.StatusName)
	}
	if filter.Source != "" {
		add("source = $%d", filter.Source)
	}

	query := "SELECT * FROM orders"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date_created DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, query, args...)
	return orders, err
}

// GetOrderByID retrieves an order by its remote id
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetProductsByOrderID retrieves all line items of an order
func (s *Store) GetProductsByOrderID(ctx context.Context, orderID int64) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE order_id = $1 ORDER BY id", orderID)
	return products, err
}

// CountOrdersByStatus groups orders by status label
func (s *Store) CountOrdersByStatus(ctx context.Context, storeIDs []int64) ([]models.StatusCount, error) {
	var counts []models.StatusCount
	if len(storeIDs) > 0 {
		err := s.db.SelectContext(ctx, &counts,
			"SELECT status_name, COUNT(*) AS count FROM orders WHERE store_id = ANY($1) GROUP BY status_name ORDER BY count DESC",
			pq.Array(storeIDs))
		return counts, err
	}
	err := s.db.SelectContext(ctx, &counts,
		"SELECT status_name, COUNT(*) AS count FROM orders GROUP BY status_name ORDER BY count DESC")
	return counts, err
}

// ListOrdersInRange retrieves orders created inside [from, to]
func (s *Store) ListOrdersInRange(ctx context.Context, storeIDs []int64, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	if len(storeIDs) > 0 {
		err := s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE store_id = ANY($1) AND date_created BETWEEN $2 AND $3 ORDER BY date_created",
			pq.Array(storeIDs), from, to)
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE date_created BETWEEN $1 AND $2 ORDER BY date_created",
		from, to)
	return orders, err
}
