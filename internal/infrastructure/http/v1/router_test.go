package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/accounts"
	v1 "erpcore/internal/infrastructure/http/v1"
)

type server struct {
	env    *apptest.Env
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := apptest.New(t)
	return &server{env: env, router: v1.NewRouter(v1.RouterConfig{Services: env.Svc, Version: "test"})}
}

// do sends a JSON request as user "clerk" and decodes the JSON response.
func (s *server) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "clerk")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func today() string {
	return time.Now().UTC().Format(time.DateOnly)
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	code, body := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)
	cash := s.env.Account(t, accounts.CodeCash)
	sales := s.env.Account(t, accounts.CodeSalesRevenue)
	product := id.New()

	stockIn := map[string]any{
		"productId":   product,
		"warehouseId": s.env.Warehouse.ID,
		"batchNumber": "LOT-1",
		"quantity":    5,
		"expiryDate":  time.Now().UTC().AddDate(1, 0, 0).Format(time.DateOnly),
	}
	code, _ := s.do(t, http.MethodPost, "/api/v1/stock/in", stockIn)
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name:   "imbalanced voucher",
			method: http.MethodPost,
			path:   "/api/v1/vouchers",
			body: map[string]any{
				"type": "JRN",
				"date": today(),
				"entries": []map[string]any{
					{"accountId": cash.ID, "debit": "100"},
					{"accountId": sales.ID, "credit": "90"},
				},
			},
			status: http.StatusUnprocessableEntity,
			code:   "IMBALANCED_ENTRIES",
		},
		{
			name:   "unknown voucher",
			method: http.MethodGet,
			path:   "/api/v1/vouchers/" + id.New().String(),
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "malformed id",
			method: http.MethodGet,
			path:   "/api/v1/vouchers/not-a-uuid",
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "insufficient stock",
			method: http.MethodPost,
			path:   "/api/v1/stock/out",
			body:   map[string]any{"productId": product, "quantity": 6},
			status: http.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_STOCK",
		},
		{
			name:   "duplicate batch",
			method: http.MethodPost,
			path:   "/api/v1/stock/in",
			body:   stockIn,
			status: http.StatusConflict,
			code:   "DUPLICATE_BATCH",
		},
		{
			name:   "unknown return batch",
			method: http.MethodPost,
			path:   "/api/v1/stock/return",
			body:   map[string]any{"productId": product, "batchNumber": "LOT-9", "quantity": 1},
			status: http.StatusNotFound,
			code:   "BATCH_NOT_FOUND",
		},
		{
			name:   "failed field rule",
			method: http.MethodPost,
			path:   "/api/v1/stock/out",
			body:   map[string]any{"productId": product, "quantity": 0},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestVoucherLifecycle(t *testing.T) {
	s := newServer(t)
	cash := s.env.Account(t, accounts.CodeCash)
	capital := s.env.Account(t, accounts.CodeOwnersCapital)

	code, created := s.do(t, http.MethodPost, "/api/v1/vouchers", map[string]any{
		"type":      "JRN",
		"date":      today(),
		"narration": "Owner investment",
		"entries": []map[string]any{
			{"accountId": cash.ID, "debit": "1000"},
			{"accountId": capital.ID, "credit": "1000"},
		},
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "PENDING", created["status"])
	assert.Equal(t, "clerk", created["createdBy"])
	voucherPath := "/api/v1/vouchers/" + created["id"].(string)

	code, approved := s.do(t, http.MethodPost, voucherPath+"/approve", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "APPROVED", approved["status"])

	code, body := s.do(t, http.MethodPut, voucherPath+"/entries", map[string]any{
		"entries": []map[string]any{
			{"accountId": cash.ID, "debit": "10"},
			{"accountId": capital.ID, "credit": "10"},
		},
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "VOUCHER_LOCKED", body["code"])

	code, body = s.do(t, http.MethodPost, voucherPath+"/reject", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}

func TestSaleInvoice_ConfirmIsIdempotent(t *testing.T) {
	s := newServer(t)
	product := id.New()

	code, _ := s.do(t, http.MethodPost, "/api/v1/stock/in", map[string]any{
		"productId":   product,
		"warehouseId": s.env.Warehouse.ID,
		"batchNumber": "LOT-7",
		"quantity":    10,
		"expiryDate":  time.Now().UTC().AddDate(1, 0, 0).Format(time.DateOnly),
	})
	require.Equal(t, http.StatusCreated, code)

	code, doc := s.do(t, http.MethodPost, "/api/v1/documents/sale-invoices", map[string]any{
		"date":          today(),
		"partyId":       s.env.Customer.ID,
		"warehouseId":   s.env.Warehouse.ID,
		"paymentMethod": "CREDIT",
		"lines": []map[string]any{
			{"productId": product, "quantity": 2, "unitPrice": "50"},
		},
	})
	require.Equal(t, http.StatusCreated, code, doc)
	confirmPath := "/api/v1/documents/sale-invoices/" + doc["id"].(string) + "/confirm"

	code, first := s.do(t, http.MethodPost, confirmPath, nil)
	require.Equal(t, http.StatusOK, code, first)
	require.NotEmpty(t, first["voucherId"])

	code, second := s.do(t, http.MethodPost, confirmPath, nil)
	require.Equal(t, http.StatusOK, code, second)
	assert.Equal(t, first["voucherId"], second["voucherId"])

	assert.True(t, s.env.Balance(t, s.env.Customer.ID).Equal(apptest.Money("100")))

	code, _ = s.do(t, http.MethodGet, "/api/v1/documents/purchase-invoices/"+doc["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, code)
}
