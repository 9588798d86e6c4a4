package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bessima/orderflow/internal/billing"
	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/documents"
	"github.com/Bessima/orderflow/internal/metrics"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/repository"
	"go.uber.org/zap"
)

type DocumentRenderer interface {
	Render(order models.Order, invoice models.Invoice) ([]byte, error)
}

// InvoiceRules приводит счёт заказа к состоянию, которого требует billing.Decide.
// Повторный вызов на том же снимке заказа ничего не пишет.
type InvoiceRules struct {
	invoices  repository.InvoiceStorageRepositoryI
	events    EventAppender
	documents documents.Store
	renderer  DocumentRenderer
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewInvoiceRules(
	invoices repository.InvoiceStorageRepositoryI,
	events EventAppender,
	store documents.Store,
	renderer DocumentRenderer,
	m *metrics.Metrics,
) *InvoiceRules {
	return &InvoiceRules{
		invoices:  invoices,
		events:    events,
		documents: store,
		renderer:  renderer,
		metrics:   m,
		now:       time.Now,
	}
}

// Apply возвращает счёт, только если он был создан или изменён.
func (rules *InvoiceRules) Apply(ctx context.Context, order models.Order) (*models.Invoice, error) {
	switch billing.Decide(order) {
	case billing.EnsurePending:
		created, err := rules.invoices.EnsurePending(ctx, newInvoice(order))
		if err != nil {
			return nil, fmt.Errorf("ensure pending invoice: %w", err)
		}
		if created == nil {
			return nil, nil
		}
		rules.metrics.ObserveInvoiceWrite(string(created.Status))
		logger.Log.Info("Invoice issued",
			zap.Int64("order_id", order.ID),
			zap.String("invoice_code", created.InvoiceCode),
		)
		return created, rules.events.Append(ctx, order, models.InvoiceIssuedEvent, invoicePayload(created, true))

	case billing.EnsurePaid:
		write, err := rules.invoices.EnsurePaid(ctx, newInvoice(order))
		if err != nil {
			return nil, fmt.Errorf("ensure paid invoice: %w", err)
		}
		if write == nil {
			return nil, nil
		}
		rules.metrics.ObserveInvoiceWrite(string(write.Invoice.Status))
		logger.Log.Info("Invoice paid",
			zap.Int64("order_id", order.ID),
			zap.String("invoice_code", write.Invoice.InvoiceCode),
			zap.Bool("created", write.Inserted),
		)
		return write.Invoice, rules.events.Append(ctx, order, models.InvoicePaidEvent, invoicePayload(write.Invoice, write.Inserted))
	}
	return nil, nil
}

// RepairEvent дописывает событие счёта, если счёт сохранён, а последнее событие
// счёта в журнале ему не соответствует. Возвращает счёт, только если событие записано.
func (rules *InvoiceRules) RepairEvent(
	ctx context.Context,
	order models.Order,
	timeline []models.OrderEvent,
) (*models.Invoice, error) {
	invoice, err := rules.invoices.GetByOrderID(ctx, order.UserID, order.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}

	var expected models.EventType
	switch invoice.Status {
	case models.InvoicePending:
		expected = models.InvoiceIssuedEvent
	case models.InvoicePaid:
		expected = models.InvoicePaidEvent
	default:
		return nil, nil
	}
	if lastInvoiceEvent(timeline) == expected {
		return nil, nil
	}

	payload := invoicePayload(invoice, false)
	payload["resynced"] = true
	if err = rules.events.Append(ctx, order, expected, payload); err != nil {
		return nil, err
	}
	logger.Log.Info("Invoice event restored",
		zap.Int64("order_id", order.ID),
		zap.String("event", string(expected)),
	)
	return invoice, nil
}

// Invalidate сбрасывает кэш документа после изменения сумм заказа.
func (rules *InvoiceRules) Invalidate(ctx context.Context, order models.Order) error {
	err := rules.invoices.InvalidateDocument(ctx, order.UserID, order.ID, billing.InvoiceTotal(order))
	if err != nil {
		return fmt.Errorf("invalidate invoice document: %w", err)
	}
	return nil
}

func (rules *InvoiceRules) Invoice(ctx context.Context, order models.Order) (*models.Invoice, error) {
	invoice, err := rules.invoices.GetByOrderID(ctx, order.UserID, order.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerror.NewNotFoundError(fmt.Sprintf("order %d has no invoice", order.ID))
	}
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}
	return invoice, nil
}

// Document отдаёт документ счёта. Сохранённая ссылка проверяется в хранилище,
// при промахе документ строится заново по текущему снимку заказа.
func (rules *InvoiceRules) Document(ctx context.Context, order models.Order) ([]byte, *models.Invoice, error) {
	invoice, err := rules.invoices.GetByOrderID(ctx, order.UserID, order.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, customerror.NewNotFoundError(fmt.Sprintf("order %d has no invoice", order.ID))
	}
	if err != nil {
		return nil, nil, err
	}

	if invoice.DocumentRef != nil {
		content, ok := rules.cached(ctx, *invoice.DocumentRef)
		if ok {
			return content, invoice, nil
		}
		logger.Log.Info("Invoice document is missing in storage, regenerating",
			zap.Int64("order_id", order.ID),
			zap.String("ref", *invoice.DocumentRef),
		)
	}

	content, err := rules.renderer.Render(order, *invoice)
	if err != nil {
		return nil, nil, fmt.Errorf("render invoice: %w", err)
	}
	key := documents.Key(order.UserID, order.ID, invoice.InvoiceCode, rules.now().UnixNano())
	ref, err := rules.documents.Put(ctx, key, content)
	if err != nil {
		return nil, nil, fmt.Errorf("store invoice document: %w", err)
	}
	if err = rules.invoices.SetDocumentRef(ctx, order.UserID, invoice.ID, ref); err != nil {
		logger.Log.Warn("Invoice document reference was not saved", zap.Int64("invoice_id", invoice.ID), zap.Error(err))
	} else {
		invoice.DocumentRef = &ref
	}
	return content, invoice, nil
}

func (rules *InvoiceRules) cached(ctx context.Context, ref string) ([]byte, bool) {
	exists, err := rules.documents.Exists(ctx, ref)
	if err != nil || !exists {
		return nil, false
	}
	content, err := rules.documents.Get(ctx, ref)
	if err != nil {
		return nil, false
	}
	return content, true
}

func newInvoice(order models.Order) models.Invoice {
	return models.Invoice{
		UserID:      order.UserID,
		OrderID:     order.ID,
		InvoiceCode: billing.InvoiceCode(order),
		Amount:      billing.InvoiceTotal(order),
	}
}

func invoicePayload(invoice *models.Invoice, created bool) map[string]any {
	return map[string]any{
		"invoice_id":   invoice.ID,
		"invoice_code": invoice.InvoiceCode,
		"amount":       invoice.Amount.String(),
		"invoice":      string(invoice.Status),
		"created":      created,
	}
}
