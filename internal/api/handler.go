package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/broker"
	"github.com/AntonBabychP1T/krol-project/internal/models"
	"github.com/AntonBabychP1T/krol-project/internal/redisclient"
	"github.com/AntonBabychP1T/krol-project/internal/service"
	"github.com/AntonBabychP1T/krol-project/internal/store"
	"github.com/AntonBabychP1T/krol-project/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const dateLayout = "2006-01-02"

// Handler contains HTTP handlers
type Handler struct {
	store     *store.Store
	publisher *broker.EventPublisher
	redis     *redisclient.Client
	analytics *service.AnalyticsService
	insights  *service.InsightService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	store *store.Store,
	publisher *broker.EventPublisher,
	redis *redisclient.Client,
	analytics *service.AnalyticsService,
	insights *service.InsightService,
) *Handler {
	return &Handler{
		store:     store,
		publisher: publisher,
		redis:     redis,
		analytics: analytics,
		insights:  insights,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/stores", h.createStore)
		v1.GET("/stores", h.listStores)
		v1.POST("/stores/:id/sync", h.triggerSync)
		v1.GET("/stores/:id/sync/status", h.syncStatus)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/analytics/status", h.statusAnalytics)
		v1.GET("/analytics/commission", h.commissionAnalytics)
		v1.POST("/insights", h.buildInsight)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// CreateStoreRequest registers a new marketplace credential
type CreateStoreRequest struct {
	UserID     int64  `json:"user_id" binding:"required"`
	StoreName  string `json:"store_name" binding:"required"`
	APIKey     string `json:"api_key" binding:"required"`
	BaseDomain string `json:"base_domain"`
}

// createStore handles credential registration
func (h *Handler) createStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	merchantStore := &models.Store{
		UserID:     req.UserID,
		StoreName:  req.StoreName,
		APIKey:     req.APIKey,
		BaseDomain: req.BaseDomain,
	}
	if err := h.store.CreateMerchantStore(c.Request.Context(), merchantStore); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create store",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, merchantStore)
}

// listStores handles listing a user's credentials
func (h *Handler) listStores(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return
	}

	stores, err := h.store.GetMerchantStoresByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list stores",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// TriggerSyncRequest starts an import pass for one store
type TriggerSyncRequest struct {
	Period    string `json:"period" binding:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// triggerSync enqueues a sync job and returns immediately. The pass
// runs in the background; its outcome is visible via the sync status
// endpoint only.
func (h *Handler) triggerSync(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid store ID"})
		return
	}

	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.Period == service.PeriodCustom {
		if _, err := time.Parse(dateLayout, req.StartDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingCustomBounds.Error()})
			return
		}
		if _, err := time.Parse(dateLayout, req.EndDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingCustomBounds.Error()})
			return
		}
	}

	if _, err := h.store.GetMerchantStoreByID(c.Request.Context(), storeID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	event := &models.SyncRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSyncRequested,
			Timestamp: time.Now(),
		},
		StoreID:   storeID,
		Period:    req.Period,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := h.publisher.PublishSyncRequested(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync job",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  event.EventID,
		"message": "sync enqueued",
	})
}

// syncStatus returns the outcome of the latest pass for a store
func (h *Handler) syncStatus(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid store ID"})
		return
	}

	status, err := h.redis.GetSyncStatus(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read sync status",
			"details": err.Error(),
		})
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No sync has run for this store"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// listOrders handles the filtered order listing
func (h *Handler) listOrders(c *gin.Context) {
	filter := store.OrderFilter{
		ClientFirstName: c.Query("client_first_name"),
		ClientLastName:  c.Query("client_last_name"),
		Phone:           c.Query("phone"),
		Email:           c.Query("email"),
		StatusName:      c.Query("status_name"),
		Source:          c.Query("source"),
	}

	if raw := c.Query("store_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid store_id"})
			return
		}
		filter.StoreIDs = []int64{id}
	}
	if raw := c.Query("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order_id"})
			return
		}
		filter.OrderID = id
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date"})
			return
		}
		filter.DateFrom = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date"})
			return
		}
		to := t.Add(24*time.Hour - time.Second)
		filter.DateTo = &to
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	filter.Limit = 10
	filter.Offset = (page - 1) * filter.Limit

	orders, err := h.store.ListOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"page":   page,
	})
}

// getOrder handles get order by ID with its line items
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.store.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	products, err := h.store.GetProductsByOrderID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":    order,
		"products": products,
	})
}

// statusAnalytics returns the per-status breakdown
func (h *Handler) statusAnalytics(c *gin.Context) {
	storeIDs, ok := parseStoreIDs(c)
	if !ok {
		return
	}

	shares, err := h.analytics.StatusBreakdown(c.Request.Context(), storeIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute status breakdown",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": shares})
}

// commissionAnalytics returns the commission totals for a date range
func (h *Handler) commissionAnalytics(c *gin.Context) {
	storeIDs, ok := parseStoreIDs(c)
	if !ok {
		return
	}

	from, err := time.Parse(dateLayout, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date"})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date"})
		return
	}
	to := end.Add(24*time.Hour - time.Second)

	excludeCancelled := c.Query("exclude_cancelled") == "true"

	report, err := h.analytics.CommissionSum(c.Request.Context(), storeIDs, from, to, excludeCancelled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute commission report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// InsightRequest asks for an AI summary of a period
type InsightRequest struct {
	Period    string  `json:"period" binding:"required"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	StoreIDs  []int64 `json:"store_ids"`
}

// buildInsight computes the period summary and returns the generated
// narrative
func (h *Handler) buildInsight(c *gin.Context) {
	var req InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	var start, end *time.Time
	if req.StartDate != "" {
		t, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date"})
			return
		}
		start = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date"})
			return
		}
		end = &t
	}

	insight, err := h.insights.BuildInsight(c.Request.Context(), req.StoreIDs, req.Period, start, end)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCustomBounds):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrGeneratorUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to build insight",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, insight)
}

func parseStoreIDs(c *gin.Context) ([]int64, bool) {
	var storeIDs []int64
	for _, raw := range c.QueryArray("store_id") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid store_id"})
			return nil, false
		}
		storeIDs = append(storeIDs, id)
	}
	return storeIDs, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
