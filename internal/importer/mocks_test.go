package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/service"
	"github.com/Bessima/orderflow/internal/sessions"
	"github.com/stretchr/testify/mock"
)

// MockCatalog - мок для ProductCatalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListActive(ctx context.Context, userID int) ([]models.Product, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalog) GetByIDs(ctx context.Context, userID int, ids []int64) ([]models.Product, error) {
	args := m.Called(ctx, userID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalog) FindMissingNames(ctx context.Context, userID int, names []string) ([]string, error) {
	args := m.Called(ctx, userID, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockCodes - мок для OrderCodes
type MockCodes struct {
	mock.Mock
}

func (m *MockCodes) ExistingCodes(ctx context.Context, userID int, codes []string) ([]string, error) {
	args := m.Called(ctx, userID, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockInserter - мок для OrderInserter
type MockInserter struct {
	mock.Mock
}

func (m *MockInserter) Insert(
	ctx context.Context,
	order models.Order,
	eventType models.EventType,
	extra map[string]any,
) (*service.ActionResult, error) {
	args := m.Called(order.OrderCode, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ActionResult), args.Error(1)
}

type pipelineFixture struct {
	catalog  *MockCatalog
	codes    *MockCodes
	orders   *MockInserter
	store    *sessions.MemoryStore
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		catalog: new(MockCatalog),
		codes:   new(MockCodes),
		orders:  new(MockInserter),
		store:   sessions.NewMemoryStore(time.Hour),
	}
	t.Cleanup(f.store.Close)

	f.pipeline = NewPipeline(f.catalog, f.codes, f.orders, f.store, nil, 100)
	f.pipeline.newID = func() string { return "session-1" }
	return f
}

func (f *pipelineFixture) assertExpectations(t mock.TestingT) {
	f.catalog.AssertExpectations(t)
	f.codes.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

const csvHeader = "Order Code,Customer Name,Phone,Address,Product,Amount,Payment Method"

// csvRow строит строку с кодом SO-n.
func csvRow(n int, product, payment string) string {
	return fmt.Sprintf(`SO-%d,Customer %d,09012345%02d,%d Le Loi District 1,%s,"250,000",%s`, n, n, n, n, product, payment)
}

func csvFile(rows ...string) *strings.Reader {
	return strings.NewReader(strings.Join(append([]string{csvHeader}, rows...), "\n"))
}

var widgetDeluxe = models.Product{ID: 7, Name: "Widget Deluxe", NormalizedName: "widget deluxe", IsActive: true}
