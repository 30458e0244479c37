package promapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPageSendsAuthAndParams(t *testing.T) {
	var gotAuth string
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{
			"limit":     r.URL.Query().Get("limit"),
			"offset":    r.URL.Query().Get("offset"),
			"date_from": r.URL.Query().Get("date_from"),
			"date_to":   r.URL.Query().Get("date_to"),
		}
		assert.Equal(t, "/api/v1/orders/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orders": [{"id": 123, "status_name": "Новий", "price": "100.00",
			"products": [{"id": 1, "external_id": "SKU1", "quantity": 2}]}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	store := &models.Store{ID: 1, APIKey: "secret-token"}

	from := time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 28, 23, 59, 59, 0, time.UTC)

	records, err := client.FetchPage(context.Background(), store, ListParams{
		DateFrom: &from,
		DateTo:   &to,
		Limit:    100,
		Offset:   200,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "100", gotQuery["limit"])
	assert.Equal(t, "200", gotQuery["offset"])
	assert.Equal(t, "2024-04-28T00:00:00", gotQuery["date_from"])
	assert.Equal(t, "2024-04-28T23:59:59", gotQuery["date_to"])

	require.Len(t, records, 1)
	assert.Equal(t, int64(123), records[0].ID)
	assert.Equal(t, "100.00", records[0].Price)
	require.Len(t, records[0].Products, 1)
	assert.Equal(t, "SKU1", records[0].Products[0].ExternalID)
}

func TestFetchPageOmitsUnsetDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("date_from"))
		assert.False(t, r.URL.Query().Has("date_to"))
		_, _ = w.Write([]byte(`{"orders": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	records, err := client.FetchPage(context.Background(), &models.Store{APIKey: "t"}, ListParams{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchPageRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid token"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.FetchPage(context.Background(), &models.Store{APIKey: "bad"}, ListParams{Limit: 10})
	require.Error(t, err)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
	assert.Contains(t, remoteErr.Body, "invalid token")
}

func TestFetchPageTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, time.Second)
	_, err := client.FetchPage(context.Background(), &models.Store{APIKey: "t"}, ListParams{Limit: 10})
	require.Error(t, err)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestFetchPagePerStoreDomainOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders": []}`))
	}))
	defer srv.Close()

	// Default base points nowhere; the store override must win.
	client := NewClient("http://127.0.0.1:1", 2*time.Second)
	store := &models.Store{APIKey: "t", BaseDomain: srv.URL}

	_, err := client.FetchPage(context.Background(), store, ListParams{Limit: 10})
	assert.NoError(t, err)
}
