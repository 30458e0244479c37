package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateMerchantStore registers a new tenant credential
func (s *Store) CreateMerchantStore(ctx context.Context, ms *models.Store) error {
	query := `
		INSERT INTO stores (user_id, store_name, api_key, base_domain)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, ms, query,
		ms.UserID, ms.StoreName, ms.APIKey, ms.BaseDomain)
}

// GetMerchantStoreByID retrieves a tenant credential by ID
func (s *Store) GetMerchantStoreByID(ctx context.Context, id int64) (*models.Store, error) {
	var ms models.Store
	err := s.db.GetContext(ctx, &ms, "SELECT * FROM stores WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &ms, nil
}

// GetMerchantStoresByUserID retrieves all credentials owned by a user
func (s *Store) GetMerchantStoresByUserID(ctx context.Context, userID int64) ([]models.Store, error) {
	var stores []models.Store
	err := s.db.SelectContext(ctx, &stores,
		"SELECT * FROM stores WHERE user_id = $1 ORDER BY id", userID)
	return stores, err
}

// GetAllMerchantStores retrieves every registered credential, used by
// the daily scheduler to enqueue one pass per store
func (s *Store) GetAllMerchantStores(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	err := s.db.SelectContext(ctx, &stores, "SELECT * FROM stores ORDER BY id")
	return stores, err
}
