package worker

import (
	"context"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/broker"
	"github.com/AntonBabychP1T/krol-project/internal/models"
	"github.com/AntonBabychP1T/krol-project/internal/redisclient"
	"github.com/AntonBabychP1T/krol-project/internal/service"
	"github.com/AntonBabychP1T/krol-project/internal/store"
	"github.com/AntonBabychP1T/krol-project/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// syncLockTTL caps how long a pass may hold its per-store lock. There
// is no cancellation once a pass starts, so the TTL is the only thing
// that frees the lock after a crash.
const syncLockTTL = 30 * time.Minute

// SyncWorker consumes sync jobs from the queue and runs one pass per
// job. The pass outcome is observable only through the published
// events, the cached status and the logs.
type SyncWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	syncService  *service.SyncService
	store        *store.Store
	redis        *redisclient.Client
	publisher    *broker.EventPublisher
	logger       *zap.Logger
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	consumer *broker.Consumer,
	syncService *service.SyncService,
	store *store.Store,
	redis *redisclient.Client,
	publisher *broker.EventPublisher,
) *SyncWorker {
	w := &SyncWorker{
		consumer:    consumer,
		syncService: syncService,
		store:       store,
		redis:       redis,
		publisher:   publisher,
		logger:      util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSyncRequested(w.handleSyncRequested)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *SyncWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sync worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SyncWorker) Stop() error {
	w.logger.Info("Stopping sync worker")
	return w.consumer.Close()
}

// handleSyncRequested runs one sync pass. It always returns nil: a
// failed pass is terminal and must not be redelivered.
func (w *SyncWorker) handleSyncRequested(ctx context.Context, event *models.SyncRequestedEvent) error {
	merchantStore, err := w.store.GetMerchantStoreByID(ctx, event.StoreID)
	if err != nil {
		w.logger.Error("Unknown store in sync job",
			zap.Int64("store_id", event.StoreID),
			zap.Error(err))
		return nil
	}

	start, err := parseJobDate(event.StartDate)
	if err != nil {
		w.logger.Error("Invalid start date in sync job",
			zap.Int64("store_id", event.StoreID),
			zap.String("start_date", event.StartDate))
		return nil
	}
	end, err := parseJobDate(event.EndDate)
	if err != nil {
		w.logger.Error("Invalid end date in sync job",
			zap.Int64("store_id", event.StoreID),
			zap.String("end_date", event.EndDate))
		return nil
	}

	locked, err := w.redis.AcquireSyncLock(ctx, merchantStore.ID, syncLockTTL)
	if err != nil {
		w.logger.Error("Failed to acquire sync lock",
			zap.Int64("store_id", merchantStore.ID),
			zap.Error(err))
		return nil
	}
	if !locked {
		w.logger.Warn("Sync already running for store, skipping job",
			zap.Int64("store_id", merchantStore.ID))
		return nil
	}
	defer func() {
		if err := w.redis.ReleaseSyncLock(ctx, merchantStore.ID); err != nil {
			w.logger.Error("Failed to release sync lock",
				zap.Int64("store_id", merchantStore.ID),
				zap.Error(err))
		}
	}()

	summary, err := w.syncService.Sync(ctx, merchantStore, event.Period, start, end)
	if err != nil {
		w.recordFailure(ctx, merchantStore.ID, err)
		return nil
	}

	status := redisclient.SyncStatus{
		Succeeded:  true,
		Message:    summary.String(),
		Summary:    summary,
		FinishedAt: time.Now(),
	}
	if err := w.redis.SetSyncStatus(ctx, merchantStore.ID, status); err != nil {
		w.logger.Error("Failed to cache sync status", zap.Error(err))
	}

	completed := &models.SyncCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSyncCompleted,
			Timestamp: time.Now(),
		},
		StoreID: merchantStore.ID,
		Summary: *summary,
	}
	if err := w.publisher.PublishSyncCompleted(ctx, completed); err != nil {
		w.logger.Error("Failed to publish SyncCompleted event", zap.Error(err))
	}

	return nil
}

func (w *SyncWorker) recordFailure(ctx context.Context, storeID int64, passErr error) {
	status := redisclient.SyncStatus{
		Succeeded:  false,
		Message:    passErr.Error(),
		FinishedAt: time.Now(),
	}
	if err := w.redis.SetSyncStatus(ctx, storeID, status); err != nil {
		w.logger.Error("Failed to cache sync status", zap.Error(err))
	}

	failed := &models.SyncFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSyncFailed,
			Timestamp: time.Now(),
		},
		StoreID: storeID,
		Reason:  passErr.Error(),
	}
	if err := w.publisher.PublishSyncFailed(ctx, failed); err != nil {
		w.logger.Error("Failed to publish SyncFailed event", zap.Error(err))
	}
}

func parseJobDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Scheduler enqueues the daily import: one custom-window job per store
// covering yesterday, mirroring what a merchant would do by hand every
// morning.
type Scheduler struct {
	store     *store.Store
	publisher *broker.EventPublisher
	hour      int
	logger    *zap.Logger
}

// NewScheduler creates a new daily scheduler firing at the given hour
func NewScheduler(store *store.Store, publisher *broker.EventPublisher, hour int) *Scheduler {
	return &Scheduler{
		store:     store,
		publisher: publisher,
		hour:      hour,
		logger:    util.GetLogger(),
	}
}

// Start runs the scheduler loop until the context is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting daily sync scheduler", zap.Int("hour", s.hour))

	for {
		timer := time.NewTimer(time.Until(s.nextRun(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Stopping daily sync scheduler")
			return
		case <-timer.C:
			s.enqueueDailyJobs(ctx)
		}
	}
}

func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// enqueueDailyJobs requests yesterday's orders for every store
func (s *Scheduler) enqueueDailyJobs(ctx context.Context) {
	stores, err := s.store.GetAllMerchantStores(ctx)
	if err != nil {
		s.logger.Error("Failed to list stores for daily sync", zap.Error(err))
		return
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	for _, merchantStore := range stores {
		event := &models.SyncRequestedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeSyncRequested,
				Timestamp: time.Now(),
			},
			StoreID:   merchantStore.ID,
			Period:    service.PeriodCustom,
			StartDate: yesterday,
			EndDate:   yesterday,
		}
		if err := s.publisher.PublishSyncRequested(ctx, event); err != nil {
			s.logger.Error("Failed to enqueue daily sync job",
				zap.Int64("store_id", merchantStore.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Daily sync jobs enqueued",
		zap.Int("stores", len(stores)),
		zap.String("date", yesterday))
}
