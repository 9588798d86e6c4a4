package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Bessima/orderflow/internal/importer"
	"github.com/Bessima/orderflow/internal/lifecycle"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, order models.Order) (*service.ActionResult, error) {
	args := m.Called(ctx, order)
	return actionResult(args)
}

func (m *MockOrderService) Get(ctx context.Context, userID int, id int64) (*models.Order, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, userID int) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderService) Apply(
	ctx context.Context,
	userID int,
	id int64,
	action lifecycle.Action,
	reason string,
) (*service.ActionResult, error) {
	args := m.Called(ctx, userID, id, action, reason)
	return actionResult(args)
}

func (m *MockOrderService) UpdateCommercial(
	ctx context.Context,
	userID int,
	id int64,
	patch models.OrderPatch,
) (*service.ActionResult, error) {
	args := m.Called(ctx, userID, id, patch)
	return actionResult(args)
}

func (m *MockOrderService) Resync(ctx context.Context, userID int, id int64) (*service.ActionResult, error) {
	args := m.Called(ctx, userID, id)
	return actionResult(args)
}

func (m *MockOrderService) BulkDelete(ctx context.Context, userID int, ids []int64) (int64, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderService) Timeline(ctx context.Context, userID int, id int64) ([]models.OrderEvent, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).([]models.OrderEvent), args.Error(1)
}

func (m *MockOrderService) Invoice(ctx context.Context, userID int, id int64) (*models.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockOrderService) InvoiceDocument(ctx context.Context, userID int, id int64) ([]byte, *models.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*models.Invoice), args.Error(2)
}

func actionResult(args mock.Arguments) (*service.ActionResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ActionResult), args.Error(1)
}

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Start(ctx context.Context, userID int, fileName string, reader io.Reader) (*importer.Outcome, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	args := m.Called(userID, fileName, string(content))
	return outcome(args)
}

func (m *MockPipeline) Resume(ctx context.Context, userID int, sessionID string) (*importer.Outcome, error) {
	args := m.Called(userID, sessionID)
	return outcome(args)
}

func (m *MockPipeline) Correct(
	ctx context.Context,
	userID int,
	sessionID string,
	correction importer.Correction,
) (*importer.Outcome, error) {
	args := m.Called(userID, sessionID, correction)
	return outcome(args)
}

func (m *MockPipeline) Session(ctx context.Context, userID int, sessionID string) (*importer.Session, error) {
	args := m.Called(userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.Session), args.Error(1)
}

func outcome(args mock.Arguments) (*importer.Outcome, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.Outcome), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListActive(ctx context.Context, userID int) ([]models.Product, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalog) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type testEnvelope struct {
	Notice Notice          `json:"notice"`
	Data   json.RawMessage `json:"data"`
}

var testUser = &models.User{ID: 1, Username: "operator"}

// testRouter повторяет маршруты сервера, пользователь подставляется без токена.
func testRouter(orders OrderService, imports ImportPipeline, catalog ProductCatalog) http.Handler {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), testUser)))
		})
	})

	ordersHandler := NewOrdersHandler(orders)
	router.Post("/api/orders", ordersHandler.Create)
	router.Get("/api/orders", ordersHandler.List)
	router.Post("/api/orders/delete", ordersHandler.BulkDelete)
	router.Get("/api/orders/{id}", ordersHandler.Get)
	router.Patch("/api/orders/{id}", ordersHandler.Update)
	router.Post("/api/orders/{id}/actions/{action}", ordersHandler.Action)
	router.Post("/api/orders/{id}/resync", ordersHandler.Resync)
	router.Get("/api/orders/{id}/events", ordersHandler.Events)
	router.Get("/api/orders/{id}/invoice", ordersHandler.Invoice)
	router.Get("/api/orders/{id}/invoice/document", ordersHandler.InvoiceDocument)

	importsHandler := NewImportsHandler(imports)
	router.Post("/api/imports", importsHandler.Upload)
	router.Get("/api/imports/{id}", importsHandler.Session)
	router.Post("/api/imports/{id}/resume", importsHandler.Resume)
	router.Post("/api/imports/{id}/corrections", importsHandler.Correct)

	productsHandler := NewProductsHandler(catalog)
	router.Get("/api/products", productsHandler.List)
	router.Post("/api/products", productsHandler.Create)
	return router
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}
