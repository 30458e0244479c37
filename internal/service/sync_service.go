package service

import (
	"context"
	"strconv"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/models"
	"github.com/AntonBabychP1T/krol-project/internal/promapi"
	"github.com/AntonBabychP1T/krol-project/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderSource produces one page of order records per call.
type OrderSource interface {
	FetchPage(ctx context.Context, store *models.Store, p promapi.ListParams) ([]promapi.OrderRecord, error)
}

// OrderRepository persists orders and line items with insert-or-update
// semantics keyed by their natural identifiers.
type OrderRepository interface {
	UpsertOrder(ctx context.Context, order *models.Order) (created bool, err error)
	UpsertProduct(ctx context.Context, product *models.Product) (created bool, err error)
	SetDeliveryStatus(ctx context.Context, orderID int64, status string) error
}

// SyncService reconciles the remote order feed of one store with the
// local database. Passes are idempotent: every sighting of an order
// fully overwrites the stored row, so re-running a window is safe.
type SyncService struct {
	source OrderSource
	repo   OrderRepository
	logger *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(source OrderSource, repo OrderRepository) *SyncService {
	return &SyncService{
		source: source,
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// Sync runs one pass for one store over the window resolved from the
// period keyword. A transport or remote error aborts the pass; records
// committed by earlier pages stay committed. A malformed record never
// aborts the pass, its bad fields degrade to normalized defaults.
func (s *SyncService) Sync(ctx context.Context, store *models.Store, period string, start, end *time.Time) (*models.SyncSummary, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.Sync")
	defer span.End()

	if period == PeriodCustom && (start == nil || end == nil) {
		return nil, ErrMissingCustomBounds
	}

	window := ResolveWindow(period, start, end)
	summary := &models.SyncSummary{}
	began := time.Now()

	s.logger.Info("Starting sync pass",
		zap.Int64("store_id", store.ID),
		zap.String("period", period),
		zap.Bool("stop_early", window.StopEarly))

	offset := 0
	for {
		records, err := s.source.FetchPage(ctx, store, promapi.ListParams{
			DateFrom: window.DateFrom,
			DateTo:   window.DateTo,
			Limit:    window.PageSize,
			Offset:   offset,
		})
		if err != nil {
			util.SyncPassesTotal.WithLabelValues("error").Inc()
			s.logger.Error("Sync pass aborted",
				zap.Int64("store_id", store.ID),
				zap.Int("offset", offset),
				zap.Error(err))
			return nil, err
		}

		if len(records) == 0 {
			break
		}

		for _, record := range records {
			s.importRecord(ctx, store, record, summary)
		}
		summary.Fetched += len(records)

		if window.StopEarly || len(records) < window.PageSize {
			break
		}
		offset += window.PageSize
	}

	util.SyncPassesTotal.WithLabelValues("success").Inc()
	util.SyncOrdersFetchedTotal.Add(float64(summary.Fetched))
	util.SyncOrdersCreatedTotal.Add(float64(summary.Created))
	util.SyncOrdersUpdatedTotal.Add(float64(summary.Updated))
	util.SyncPassDuration.Observe(time.Since(began).Seconds())

	s.logger.Info("Sync pass finished",
		zap.Int64("store_id", store.ID),
		zap.Int("fetched", summary.Fetched),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated))

	return summary, nil
}

// importRecord commits one order and its line items. Each upsert is
// its own atomic unit; there is no transaction around a page.
func (s *SyncService) importRecord(ctx context.Context, store *models.Store, record promapi.OrderRecord, summary *models.SyncSummary) {
	order := s.buildOrder(store, record)

	created, err := s.repo.UpsertOrder(ctx, order)
	if err != nil {
		s.logger.Error("Failed to upsert order",
			zap.Int64("order_id", record.ID),
			zap.Error(err))
		return
	}
	if created {
		summary.Created++
	} else {
		summary.Updated++
	}

	// A fulfilled order with no TTN gets the no-tracking sentinel.
	// Separate write: the inference depends on the just-written
	// tracking field.
	if order.StatusName == models.StatusNameFulfilled && order.TrackingNumber == "" {
		if err := s.repo.SetDeliveryStatus(ctx, order.ID, models.DeliveryStatusNoTracking); err != nil {
			s.logger.Error("Failed to set delivery status",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
	}

	for _, productRecord := range record.Products {
		product := s.buildProduct(order.ID, productRecord)
		if _, err := s.repo.UpsertProduct(ctx, product); err != nil {
			s.logger.Error("Failed to upsert product",
				zap.Int64("order_id", order.ID),
				zap.String("external_id", product.ExternalID),
				zap.Error(err))
		}
	}
}

func (s *SyncService) buildOrder(store *models.Store, record promapi.OrderRecord) *models.Order {
	deliveryStatus, _ := record.DeliveryProviderData.GetUnifiedStatus()
	trackingNumber, _ := record.DeliveryProviderData.GetDeclarationNumber()

	return &models.Order{
		ID:                   record.ID,
		StoreID:              store.ID,
		DateCreated:          s.parseOrderDate(record.ID, record.DateCreated),
		ClientFirstName:      record.ClientFirstName,
		ClientSecondName:     record.ClientSecondName,
		ClientLastName:       record.ClientLastName,
		ClientID:             record.ClientID,
		ClientNotes:          record.ClientNotes,
		Phone:                record.Phone,
		Email:                record.Email,
		Price:                s.normalizeMoney(record.ID, "price", record.Price),
		FullPrice:            s.normalizeMoney(record.ID, "full_price", record.FullPrice),
		DeliveryAddress:      record.DeliveryAddress,
		DeliveryCost:         s.normalizeMoney(record.ID, "delivery_cost", record.DeliveryCost),
		Status:               record.Status,
		StatusName:           record.StatusName,
		Source:               record.Source,
		HasPromoFreeDelivery: record.HasPromoFreeDelivery,
		DontCallCustomerBack: record.DontCallCustomerBack,
		DeliveryOption:       record.DeliveryOption,
		DeliveryProviderData: record.DeliveryProviderData,
		PaymentOption:        record.PaymentOption,
		PaymentData:          record.PaymentData,
		UTM:                  record.UTM,
		CpaCommission:        record.CpaCommission,
		PsPromotion:          record.PsPromotion,
		Cancellation:         record.Cancellation,
		DeliveryStatus:       deliveryStatus,
		TrackingNumber:       trackingNumber,
	}
}

func (s *SyncService) buildProduct(orderID int64, record promapi.ProductRecord) *models.Product {
	// Merchants may leave external_id unset; the remote numeric id
	// then keys the row so sibling items stay distinct.
	externalID := record.ExternalID
	if externalID == "" {
		externalID = strconv.FormatInt(record.ID, 10)
	}

	return &models.Product{
		OrderID:       orderID,
		ExternalID:    externalID,
		Image:         record.Image,
		Quantity:      record.Quantity,
		Price:         s.normalizeMoney(orderID, "product_price", record.Price),
		URL:           record.URL,
		Name:          record.Name,
		NameMultilang: record.NameMultilang,
		TotalPrice:    s.normalizeMoney(orderID, "product_total_price", record.TotalPrice),
		MeasureUnit:   record.MeasureUnit,
		SKU:           record.SKU,
		CpaCommission: record.CpaCommission,
	}
}

func (s *SyncService) normalizeMoney(orderID int64, field string, raw interface{}) decimal.Decimal {
	value, ok := NormalizeDecimal(raw)
	if !ok {
		util.NormalizeAnomaliesTotal.WithLabelValues(field).Inc()
		s.logger.Warn("Unparsable monetary value, substituting zero",
			zap.Int64("order_id", orderID),
			zap.String("field", field),
			zap.Any("raw", raw))
	}
	return value
}

func (s *SyncService) parseOrderDate(orderID int64, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{promapi.DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	s.logger.Warn("Unparsable order date",
		zap.Int64("order_id", orderID),
		zap.String("raw", raw))
	return time.Time{}
}
