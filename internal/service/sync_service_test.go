package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AntonBabychP1T/krol-project/internal/models"
	"github.com/AntonBabychP1T/krol-project/internal/promapi"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves prepared pages in order and records every request.
type fakeSource struct {
	pages [][]promapi.OrderRecord
	calls []promapi.ListParams
	err   error
	// errAtCall makes the call with this index (0-based) fail.
	errAtCall int
}

func (f *fakeSource) FetchPage(_ context.Context, _ *models.Store, p promapi.ListParams) ([]promapi.OrderRecord, error) {
	call := len(f.calls)
	f.calls = append(f.calls, p)
	if f.err != nil && call == f.errAtCall {
		return nil, f.err
	}
	if call < len(f.pages) {
		return f.pages[call], nil
	}
	return nil, nil
}

// fakeRepo is an in-memory upsert repository.
type fakeRepo struct {
	orders   map[int64]*models.Order
	products map[string]*models.Product
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   make(map[int64]*models.Order),
		products: make(map[string]*models.Product),
	}
}

func (r *fakeRepo) UpsertOrder(_ context.Context, order *models.Order) (bool, error) {
	_, exists := r.orders[order.ID]
	copied := *order
	r.orders[order.ID] = &copied
	return !exists, nil
}

func (r *fakeRepo) UpsertProduct(_ context.Context, product *models.Product) (bool, error) {
	key := fmt.Sprintf("%d/%s", product.OrderID, product.ExternalID)
	_, exists := r.products[key]
	copied := *product
	r.products[key] = &copied
	return !exists, nil
}

func (r *fakeRepo) SetDeliveryStatus(_ context.Context, orderID int64, status string) error {
	order, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("order not found: %d", orderID)
	}
	order.DeliveryStatus = status
	return nil
}

func orderRecord(id int64) promapi.OrderRecord {
	return promapi.OrderRecord{
		ID:              id,
		DateCreated:     "2025-01-01T12:00:00",
		ClientFirstName: "Іван",
		ClientLastName:  "Петренко",
		ClientID:        999,
		Phone:           "380001112233",
		Email:           "a@example.com",
		Price:           "100.00",
		FullPrice:       "110.00",
		DeliveryAddress: "Kyiv",
		DeliveryCost:    10,
		Status:          "new",
		StatusName:      "Новий",
		Source:          "portal",
		CpaCommission:   models.JSONMap{"amount": "5.00"},
	}
}

func recordsPage(startID int64, n int) []promapi.OrderRecord {
	page := make([]promapi.OrderRecord, 0, n)
	for i := 0; i < n; i++ {
		page = append(page, orderRecord(startID+int64(i)))
	}
	return page
}

func TestSyncEndToEnd(t *testing.T) {
	record := orderRecord(123)
	record.Products = []promapi.ProductRecord{
		{
			ID:            1,
			ExternalID:    "SKU1",
			Name:          "Товар-1",
			Quantity:      2,
			Price:         "50.00",
			TotalPrice:    "100.00",
			MeasureUnit:   "шт.",
			SKU:           "SKU1",
			CpaCommission: models.JSONMap{"amount": "2.50"},
		},
	}

	source := &fakeSource{pages: [][]promapi.OrderRecord{{record}}}
	repo := newFakeRepo()
	svc := NewSyncService(source, repo)

	merchantStore := &models.Store{ID: 1, APIKey: "fake-token"}
	summary, err := svc.Sync(context.Background(), merchantStore, PeriodTest, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Updated)

	require.Len(t, source.calls, 1, "test period fetches exactly one page")
	assert.Equal(t, 10, source.calls[0].Limit)
	assert.Equal(t, 0, source.calls[0].Offset)
	assert.Nil(t, source.calls[0].DateFrom)

	order := repo.orders[123]
	require.NotNil(t, order)
	assert.Equal(t, int64(1), order.StoreID)
	assert.True(t, order.Price.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, order.FullPrice.Equal(decimal.RequireFromString("110.00")))
	assert.Equal(t, "Іван", order.ClientFirstName)

	product := repo.products["123/SKU1"]
	require.NotNil(t, product)
	assert.Equal(t, float64(2), product.Quantity)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("50.00")))
}

func TestSyncIdempotence(t *testing.T) {
	repo := newFakeRepo()
	merchantStore := &models.Store{ID: 1, APIKey: "t"}

	first := &fakeSource{pages: [][]promapi.OrderRecord{recordsPage(100, 5)}}
	summary, err := NewSyncService(first, repo).Sync(context.Background(), merchantStore, PeriodTest, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Created)

	// Same feed again, nothing changed upstream.
	second := &fakeSource{pages: [][]promapi.OrderRecord{recordsPage(100, 5)}}
	summary, err = NewSyncService(second, repo).Sync(context.Background(), merchantStore, PeriodTest, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Fetched)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, summary.Fetched, summary.Updated)
	assert.Len(t, repo.orders, 5)
}

func TestSyncReassignsOwnership(t *testing.T) {
	repo := newFakeRepo()

	source := &fakeSource{pages: [][]promapi.OrderRecord{{orderRecord(123)}}}
	_, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "a"}, PeriodTest, nil, nil)
	require.NoError(t, err)

	source = &fakeSource{pages: [][]promapi.OrderRecord{{orderRecord(123)}}}
	summary, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 2, APIKey: "b"}, PeriodTest, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Created, "same remote id must not create a second row")
	assert.Equal(t, 1, summary.Updated)
	require.Len(t, repo.orders, 1)
	assert.Equal(t, int64(2), repo.orders[123].StoreID)
}

func TestSyncPaginatesUntilShortPage(t *testing.T) {
	source := &fakeSource{pages: [][]promapi.OrderRecord{
		recordsPage(0, 100),
		recordsPage(100, 100),
		recordsPage(200, 50),
	}}
	repo := newFakeRepo()

	summary, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodAll, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 250, summary.Fetched)
	require.Len(t, source.calls, 3, "a short page ends the pass")
	assert.Equal(t, 0, source.calls[0].Offset)
	assert.Equal(t, 100, source.calls[1].Offset)
	assert.Equal(t, 200, source.calls[2].Offset)
	assert.Len(t, repo.orders, 250)
}

func TestSyncStopEarlyFetchesOnePage(t *testing.T) {
	// A completely full page would normally mean "more to fetch".
	source := &fakeSource{pages: [][]promapi.OrderRecord{
		recordsPage(0, 100),
		recordsPage(100, 100),
	}}
	repo := newFakeRepo()

	summary, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodSevenDays, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, summary.Fetched)
	assert.Len(t, source.calls, 1)
	require.NotNil(t, source.calls[0].DateFrom)
}

func TestSyncDerivesDeliveryFields(t *testing.T) {
	tracked := orderRecord(1)
	tracked.DeliveryProviderData = models.JSONMap{
		"unified_status":     "delivered",
		"declaration_number": "20450000000000",
	}

	source := &fakeSource{pages: [][]promapi.OrderRecord{{tracked}}}
	repo := newFakeRepo()
	_, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodTest, nil, nil)
	require.NoError(t, err)

	order := repo.orders[1]
	require.NotNil(t, order)
	assert.Equal(t, "delivered", order.DeliveryStatus)
	assert.Equal(t, "20450000000000", order.TrackingNumber)
}

func TestSyncFulfilledWithoutTrackingGetsSentinel(t *testing.T) {
	fulfilled := orderRecord(1)
	fulfilled.StatusName = models.StatusNameFulfilled
	// Carrier metadata reports a status but no TTN.
	fulfilled.DeliveryProviderData = models.JSONMap{"unified_status": "pending"}

	source := &fakeSource{pages: [][]promapi.OrderRecord{{fulfilled}}}
	repo := newFakeRepo()
	_, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodTest, nil, nil)
	require.NoError(t, err)

	order := repo.orders[1]
	require.NotNil(t, order)
	assert.Equal(t, models.DeliveryStatusNoTracking, order.DeliveryStatus)
}

func TestSyncFulfilledWithTrackingKeepsStatus(t *testing.T) {
	fulfilled := orderRecord(1)
	fulfilled.StatusName = models.StatusNameFulfilled
	fulfilled.DeliveryProviderData = models.JSONMap{
		"unified_status":     "delivered",
		"declaration_number": "20450000000000",
	}

	source := &fakeSource{pages: [][]promapi.OrderRecord{{fulfilled}}}
	repo := newFakeRepo()
	_, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodTest, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "delivered", repo.orders[1].DeliveryStatus)
}

func TestSyncLineItemKeyFallback(t *testing.T) {
	record := orderRecord(55)
	record.Products = []promapi.ProductRecord{
		{ID: 11, Name: "A", Quantity: 1},
		{ID: 12, Name: "B", Quantity: 1},
	}

	source := &fakeSource{pages: [][]promapi.OrderRecord{{record}}}
	repo := newFakeRepo()
	_, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodTest, nil, nil)
	require.NoError(t, err)

	require.Len(t, repo.products, 2)
	assert.NotNil(t, repo.products["55/11"])
	assert.NotNil(t, repo.products["55/12"])
}

func TestSyncMalformedFieldsDegradeToDefaults(t *testing.T) {
	record := orderRecord(7)
	record.Price = "12.3.4"
	record.DeliveryCost = "free!!"
	record.DateCreated = "not-a-date"

	source := &fakeSource{pages: [][]promapi.OrderRecord{{record}}}
	repo := newFakeRepo()
	summary, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodTest, nil, nil)
	require.NoError(t, err, "a malformed record must not abort the pass")

	assert.Equal(t, 1, summary.Created)
	order := repo.orders[7]
	require.NotNil(t, order)
	assert.True(t, order.Price.IsZero())
	assert.True(t, order.DeliveryCost.IsZero())
	assert.True(t, order.DateCreated.IsZero())
}

func TestSyncAbortsOnFetchError(t *testing.T) {
	remoteErr := &promapi.RemoteError{StatusCode: 500, Body: "oops"}
	source := &fakeSource{
		pages:     [][]promapi.OrderRecord{recordsPage(0, 100)},
		err:       remoteErr,
		errAtCall: 1,
	}
	repo := newFakeRepo()

	_, err := NewSyncService(source, repo).Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodAll, nil, nil)
	require.Error(t, err)

	var re *promapi.RemoteError
	assert.True(t, errors.As(err, &re))

	// The first page stays committed; there is no cross-page rollback.
	assert.Len(t, repo.orders, 100)
}

func TestSyncCustomRequiresBothBounds(t *testing.T) {
	source := &fakeSource{}
	repo := newFakeRepo()
	svc := NewSyncService(source, repo)

	_, err := svc.Sync(context.Background(), &models.Store{ID: 1, APIKey: "t"}, PeriodCustom, nil, nil)
	assert.ErrorIs(t, err, ErrMissingCustomBounds)
	assert.Empty(t, source.calls, "validation happens before any network call")
}
