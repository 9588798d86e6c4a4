package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/lifecycle"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrdersHandler_Create(t *testing.T) {
	// Arrange
	orders := new(MockOrderService)
	router := testRouter(orders, new(MockPipeline), new(MockCatalog))
	created := &models.Order{ID: 42, OrderCode: "SO-1", Status: models.PendingReviewStatus}

	orders.On("Create", mock.Anything, mock.MatchedBy(func(order models.Order) bool {
		return order.UserID == 1 && order.OrderCode == "SO-1" && order.Amount.Equal(decimal.NewFromInt(250000))
	})).Return(&service.ActionResult{Order: created, Applied: true, Message: "order SO-1 created"}, nil).Once()

	body := `{"order_code":" SO-1 ","customer_name":"An","phone":"0901","address":"Hanoi",` +
		`"product_name":"Widget","amount":"250000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, LevelSuccess, env.Notice.Level)
	assert.Equal(t, "order SO-1 created", env.Notice.Message)
	orders.AssertExpectations(t)
}

func TestOrdersHandler_Create_ValidationErrors(t *testing.T) {
	// Arrange
	orders := new(MockOrderService)
	router := testRouter(orders, new(MockPipeline), new(MockCatalog))
	body := `{"customer_name":"An","phone":"0901","address":"Hanoi","product_name":"Widget",` +
		`"amount":"10","payment_method":"CHEQUE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, LevelError, env.Notice.Level)
	assert.Contains(t, env.Notice.Message, "order_code: required")
	assert.Contains(t, env.Notice.Message, "payment_method: oneof=COD BANK_TRANSFER CARD E_WALLET")
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrdersHandler_Create_BrokenBody(t *testing.T) {
	router := testRouter(new(MockOrderService), new(MockPipeline), new(MockCatalog))
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersHandler_Action(t *testing.T) {
	order := &models.Order{ID: 42, OrderCode: "SO-1", Status: models.OrderRejectedStatus}

	tests := []struct {
		name       string
		path       string
		body       string
		setup      func(m *MockOrderService)
		wantStatus int
		wantLevel  NoticeLevel
		persistent bool
	}{
		{
			name: "applied",
			path: "/api/orders/42/actions/reject",
			body: `{"reason":"fake address"}`,
			setup: func(m *MockOrderService) {
				m.On("Apply", mock.Anything, 1, int64(42), lifecycle.Reject, "fake address").
					Return(&service.ActionResult{Order: order, Applied: true, Message: "moved"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLevel:  LevelSuccess,
		},
		{
			name: "skipped without body",
			path: "/api/orders/42/actions/approve",
			setup: func(m *MockOrderService) {
				m.On("Apply", mock.Anything, 1, int64(42), lifecycle.Approve, "").
					Return(&service.ActionResult{Order: order, Applied: false, Message: "already closed"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLevel:  LevelInfo,
		},
		{
			name: "follow-up failed",
			path: "/api/orders/42/actions/mark_paid",
			setup: func(m *MockOrderService) {
				m.On("Apply", mock.Anything, 1, int64(42), lifecycle.MarkPaid, "").
					Return(
						&service.ActionResult{Order: order, Applied: true},
						customerror.NewFollowUpError(42, errors.New("invoice store down")),
					).Once()
			},
			wantStatus: http.StatusAccepted,
			wantLevel:  LevelWarning,
			persistent: true,
		},
		{
			name:       "unknown action",
			path:       "/api/orders/42/actions/teleport",
			setup:      func(m *MockOrderService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantLevel:  LevelError,
		},
		{
			name:       "bad id",
			path:       "/api/orders/abc/actions/approve",
			setup:      func(m *MockOrderService) {},
			wantStatus: http.StatusBadRequest,
			wantLevel:  LevelError,
		},
		{
			name: "not found",
			path: "/api/orders/42/actions/approve",
			setup: func(m *MockOrderService) {
				m.On("Apply", mock.Anything, 1, int64(42), lifecycle.Approve, "").
					Return(nil, customerror.NewNotFoundError("order 42 not found")).Once()
			},
			wantStatus: http.StatusNotFound,
			wantLevel:  LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			orders := new(MockOrderService)
			tt.setup(orders)
			router := testRouter(orders, new(MockPipeline), new(MockCatalog))
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			// Act
			router.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantLevel, env.Notice.Level)
			assert.Equal(t, tt.persistent, env.Notice.Persistent)
			orders.AssertExpectations(t)
		})
	}
}

func TestOrdersHandler_FollowUpKeepsOrder(t *testing.T) {
	// Arrange
	orders := new(MockOrderService)
	router := testRouter(orders, new(MockPipeline), new(MockCatalog))
	order := &models.Order{ID: 42, OrderCode: "SO-1", Status: models.OrderPaidStatus}
	orders.On("Resync", mock.Anything, 1, int64(42)).
		Return(&service.ActionResult{Order: order}, customerror.NewFollowUpError(42, errors.New("kafka down"))).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/orders/42/resync", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	require.Equal(t, http.StatusAccepted, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Notice.Message, "follow-up steps failed: kafka down")

	var result service.ActionResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, models.OrderPaidStatus, result.Order.Status)
}

func TestOrdersHandler_Update(t *testing.T) {
	// Arrange
	orders := new(MockOrderService)
	router := testRouter(orders, new(MockPipeline), new(MockCatalog))
	order := &models.Order{ID: 42, OrderCode: "SO-1"}
	orders.On("UpdateCommercial", mock.Anything, 1, int64(42), mock.MatchedBy(func(patch models.OrderPatch) bool {
		return patch.Amount != nil && patch.Amount.Equal(decimal.NewFromInt(300)) && patch.Phone == nil
	})).Return(&service.ActionResult{Order: order, Applied: true, Message: "order SO-1 updated"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/42", strings.NewReader(`{"amount":300}`))
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order SO-1 updated", decodeEnvelope(t, rec).Notice.Message)
	orders.AssertExpectations(t)
}

func TestOrdersHandler_BulkDelete(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		orders := new(MockOrderService)
		router := testRouter(orders, new(MockPipeline), new(MockCatalog))
		orders.On("BulkDelete", mock.Anything, 1, []int64{1, 2}).Return(int64(2), nil).Once()
		req := httptest.NewRequest(http.MethodPost, "/api/orders/delete", strings.NewReader(`{"ids":[1,2]}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"deleted":2}`, string(decodeEnvelope(t, rec).Data))
	})

	t.Run("empty ids", func(t *testing.T) {
		orders := new(MockOrderService)
		router := testRouter(orders, new(MockPipeline), new(MockCatalog))
		req := httptest.NewRequest(http.MethodPost, "/api/orders/delete", strings.NewReader(`{"ids":[]}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeEnvelope(t, rec).Notice.Message, "ids: min=1")
		orders.AssertNotCalled(t, "BulkDelete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrdersHandler_ListAndGet(t *testing.T) {
	// Arrange
	orders := new(MockOrderService)
	router := testRouter(orders, new(MockPipeline), new(MockCatalog))
	orders.On("List", mock.Anything, 1).Return([]models.Order{{ID: 1}, {ID: 2}}, nil).Once()
	orders.On("Get", mock.Anything, 1, int64(7)).Return(nil, customerror.NewNotFoundError("order 7 not found")).Once()

	// Act
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/api/orders/7", nil))

	// Assert
	assert.Equal(t, http.StatusOK, listRec.Code)
	assert.Equal(t, "2 orders", decodeEnvelope(t, listRec).Notice.Message)
	assert.Equal(t, http.StatusNotFound, getRec.Code)
	assert.Equal(t, "order 7 not found", decodeEnvelope(t, getRec).Notice.Message)
}

func TestOrdersHandler_InvoiceDocument(t *testing.T) {
	// Arrange
	orders := new(MockOrderService)
	router := testRouter(orders, new(MockPipeline), new(MockCatalog))
	orders.On("InvoiceDocument", mock.Anything, 1, int64(42)).
		Return([]byte("INVOICE INV-SO-1\n"), &models.Invoice{InvoiceCode: "INV-SO-1"}, nil).Once()
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/42/invoice/document", nil))

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "INVOICE INV-SO-1\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"INV-SO-1.txt"`)
}

func TestOrdersHandler_Unauthenticated(t *testing.T) {
	handler := NewOrdersHandler(new(MockOrderService))
	rec := httptest.NewRecorder()

	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
