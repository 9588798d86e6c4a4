package service

import (
	"context"

	"github.com/Bessima/orderflow/internal/lifecycle"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/notify"
	"github.com/Bessima/orderflow/internal/repository"
	"github.com/Bessima/orderflow/internal/risk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository - мок для OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order models.Order) (*models.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(context.Context, models.Order) *models.Order); ok {
		return fn(ctx, order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, userID int, id int64) (*models.Order, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID int) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) Transition(
	ctx context.Context,
	userID int,
	id int64,
	rule lifecycle.Rule,
	reason string,
) (*models.Order, error) {
	args := m.Called(ctx, userID, id, rule.Action, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateCommercial(ctx context.Context, order models.Order) (*models.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(context.Context, models.Order) *models.Order); ok {
		return fn(ctx, order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) DeleteMany(ctx context.Context, userID int, ids []int64) ([]int64, error) {
	args := m.Called(ctx, userID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockOrderRepository) ExistingCodes(ctx context.Context, userID int, codes []string) ([]string, error) {
	args := m.Called(ctx, userID, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOrderRepository) StatusHistoryByPhone(
	ctx context.Context,
	userID int,
	phone string,
) ([]models.OrderStatus, error) {
	args := m.Called(ctx, userID, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderStatus), args.Error(1)
}

// MockInvoiceRepository - мок для InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) EnsurePending(ctx context.Context, invoice models.Invoice) (*models.Invoice, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) EnsurePaid(ctx context.Context, invoice models.Invoice) (*repository.InvoiceWrite, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.InvoiceWrite), args.Error(1)
}

func (m *MockInvoiceRepository) GetByOrderID(ctx context.Context, userID int, orderID int64) (*models.Invoice, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) InvalidateDocument(
	ctx context.Context,
	userID int,
	orderID int64,
	amount decimal.Decimal,
) error {
	args := m.Called(ctx, userID, orderID, amount.String())
	return args.Error(0)
}

func (m *MockInvoiceRepository) SetDocumentRef(ctx context.Context, userID int, invoiceID int64, ref string) error {
	args := m.Called(ctx, userID, invoiceID, ref)
	return args.Error(0)
}

// MockEventRepository - мок для EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Append(ctx context.Context, event models.OrderEvent) (*models.OrderEvent, error) {
	args := m.Called(ctx, event.OrderID, event.Type)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderEvent), args.Error(1)
}

func (m *MockEventRepository) ListByOrder(ctx context.Context, userID int, orderID int64) ([]models.OrderEvent, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderEvent), args.Error(1)
}

// appendedEvents возвращает типы записанных событий в порядке вызовов.
func appendedEvents(m *MockEventRepository) []models.EventType {
	types := []models.EventType{}
	for _, call := range m.Calls {
		if call.Method == "Append" {
			types = append(types, call.Arguments.Get(2).(models.EventType))
		}
	}
	return types
}

// MockPublisher - мок для ChangePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, change notify.Change) error {
	args := m.Called(ctx, change.Kind, change.OrderID)
	return args.Error(0)
}

// MockEvaluator - мок для risk.Evaluator
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(input risk.Input) risk.Assessment {
	args := m.Called(input.Phone)
	return args.Get(0).(risk.Assessment)
}

type fixture struct {
	orders    *MockOrderRepository
	invoices  *MockInvoiceRepository
	events    *MockEventRepository
	evaluator *MockEvaluator
	service   *OrderService
	rules     *InvoiceRules
}

func newFixture() *fixture {
	f := &fixture{
		orders:    new(MockOrderRepository),
		invoices:  new(MockInvoiceRepository),
		events:    new(MockEventRepository),
		evaluator: new(MockEvaluator),
	}
	eventLog := NewEventLog(f.events, nil)
	f.rules = NewInvoiceRules(f.invoices, eventLog, nil, nil, nil)
	f.service = NewOrderService(f.orders, f.rules, eventLog, f.evaluator, nil)
	return f
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.orders.AssertExpectations(t)
	f.invoices.AssertExpectations(t)
	f.events.AssertExpectations(t)
	f.evaluator.AssertExpectations(t)
}

func codOrder(score int, status models.OrderStatus) *models.Order {
	s := score
	level := risk.LevelForScore(score)
	return &models.Order{
		ID:            42,
		UserID:        1,
		OrderCode:     "SO-1001",
		CustomerName:  "Nguyen Van A",
		Phone:         "0901234567",
		Address:       "12 Le Loi, District 1",
		ProductName:   "Widget Deluxe",
		Amount:        decimal.NewFromInt(250000),
		ShippingFee:   decimal.NewFromInt(30000),
		PaymentMethod: models.CashOnDelivery,
		RiskScore:     &s,
		RiskLevel:     level,
		Status:        status,
	}
}

func withStatus(order *models.Order, status models.OrderStatus) *models.Order {
	next := *order
	next.Status = status
	return &next
}
