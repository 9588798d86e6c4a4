package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bessima/orderflow/internal/billing"
	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/lifecycle"
	"github.com/Bessima/orderflow/internal/metrics"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/repository"
	"github.com/Bessima/orderflow/internal/risk"
	"go.uber.org/zap"
)

const statusKey = "status"

type InvoiceRuleEngine interface {
	Apply(ctx context.Context, order models.Order) (*models.Invoice, error)
	Invalidate(ctx context.Context, order models.Order) error
	Invoice(ctx context.Context, order models.Order) (*models.Invoice, error)
	Document(ctx context.Context, order models.Order) ([]byte, *models.Invoice, error)
	RepairEvent(ctx context.Context, order models.Order, timeline []models.OrderEvent) (*models.Invoice, error)
}

type Timeline interface {
	EventAppender
	Deleted(ctx context.Context, userID int, orderID int64)
	Timeline(ctx context.Context, userID int, orderID int64) ([]models.OrderEvent, error)
}

// ActionResult — итог действия над заказом. Applied=false означает безопасный
// пропуск: заказ не изменился, Message объясняет почему.
type ActionResult struct {
	Order    *models.Order      `json:"order"`
	Applied  bool               `json:"applied"`
	Message  string             `json:"message"`
	FollowUp lifecycle.FollowUp `json:"follow_up,omitempty"`
	Invoice  *models.Invoice    `json:"invoice,omitempty"`
}

type OrderService struct {
	orders  repository.OrderStorageRepositoryI
	rules   InvoiceRuleEngine
	events  Timeline
	risk    risk.Evaluator
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOrderService(
	orders repository.OrderStorageRepositoryI,
	rules InvoiceRuleEngine,
	events Timeline,
	evaluator risk.Evaluator,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orders:  orders,
		rules:   rules,
		events:  events,
		risk:    evaluator,
		metrics: m,
		now:     time.Now,
	}
}

// Create заводит заказ вручную.
func (service *OrderService) Create(ctx context.Context, order models.Order) (*ActionResult, error) {
	return service.Insert(ctx, order, models.OrderCreatedEvent, nil)
}

// Insert оценивает риск (только для оплаты при получении), сохраняет заказ
// и прогоняет правила счёта. Заказы с предоплатой сразу считаются оплаченными.
func (service *OrderService) Insert(
	ctx context.Context,
	order models.Order,
	eventType models.EventType,
	extra map[string]any,
) (*ActionResult, error) {
	if err := validateCommercial(order); err != nil {
		return nil, err
	}

	order.PaymentMethod = order.PaymentMethod.OrDefault()
	order.Status = lifecycle.InitialStatus(order.PaymentMethod)
	if order.PaymentMethod.IsCOD() {
		history, err := service.orders.StatusHistoryByPhone(ctx, order.UserID, order.Phone)
		if err != nil {
			return nil, customerror.NewCommonPGError(err)
		}
		assessment := service.risk.Evaluate(risk.Input{
			PaymentMethod: order.PaymentMethod,
			Amount:        order.Amount,
			Phone:         order.Phone,
			Address:       fullAddress(order),
			PastStatuses:  history,
			ProductName:   order.ProductName,
		})
		order.RiskScore = &assessment.Score
		order.RiskLevel = assessment.Level
		order.PaidAt = nil
	} else {
		paidAt := service.now()
		order.RiskScore = nil
		order.RiskLevel = models.RiskNone
		order.PaidAt = &paidAt
	}

	created, err := service.orders.Create(ctx, order)
	if err != nil {
		var uniqueErr *customerror.UniqueViolationError
		if errors.As(err, &uniqueErr) {
			return nil, err
		}
		return nil, customerror.NewCommonPGError(err)
	}

	payload := map[string]any{statusKey: string(created.Status), "order_code": created.OrderCode}
	for k, v := range extra {
		payload[k] = v
	}

	result := &ActionResult{
		Order:   created,
		Applied: true,
		Message: fmt.Sprintf("order %s created with status %s", created.OrderCode, created.Status),
	}
	result.Invoice, err = service.afterMutation(ctx, *created, eventType, payload)
	return result, err
}

func (service *OrderService) Get(ctx context.Context, userID int, id int64) (*models.Order, error) {
	order, err := service.orders.GetByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerror.NewNotFoundError(fmt.Sprintf("order %d not found", id))
	}
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}
	return order, nil
}

func (service *OrderService) List(ctx context.Context, userID int) ([]models.Order, error) {
	orders, err := service.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}
	return orders, nil
}

// Apply выполняет действие над заказом. Если текущий статус не допускает
// действия, заказ не меняется и возвращается информационное сообщение.
func (service *OrderService) Apply(
	ctx context.Context,
	userID int,
	id int64,
	action lifecycle.Action,
	reason string,
) (*ActionResult, error) {
	rule, ok := lifecycle.RuleFor(action)
	if !ok {
		return nil, customerror.NewValidationError(fmt.Sprintf("unknown action %q", action))
	}

	current, err := service.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !rule.Allows(current.Status) {
		return service.skipped(current, action), nil
	}

	updated, err := service.orders.Transition(ctx, userID, id, rule, strings.TrimSpace(reason))
	if errors.Is(err, repository.ErrStaleStatus) {
		// Параллельный запрос успел раньше
		fresh, getErr := service.Get(ctx, userID, id)
		if getErr != nil {
			return nil, getErr
		}
		return service.skipped(fresh, action), nil
	}
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}

	service.metrics.ObserveTransition(string(action), true)
	logger.Log.Info("Order status changed",
		zap.Int64("order_id", id),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)

	result := &ActionResult{
		Order:   updated,
		Applied: true,
		Message: fmt.Sprintf("order %s moved from %s to %s", updated.OrderCode, current.Status, updated.Status),
	}
	payload := map[string]any{
		"action":  string(action),
		"from":    string(current.Status),
		statusKey: string(updated.Status),
	}
	if reason != "" {
		payload["reason"] = strings.TrimSpace(reason)
	}
	if action == lifecycle.Approve {
		result.FollowUp = lifecycle.FollowUpFor(updated.RiskLevel)
		payload["follow_up"] = string(result.FollowUp)
	}

	result.Invoice, err = service.afterMutation(ctx, *updated, models.StatusChangedEvent, payload)
	return result, err
}

func (service *OrderService) Approve(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.Approve, "")
}

func (service *OrderService) Reject(ctx context.Context, userID int, id int64, reason string) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.Reject, reason)
}

func (service *OrderService) RequireVerification(
	ctx context.Context,
	userID int,
	id int64,
	reason string,
) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.RequireVerification, reason)
}

func (service *OrderService) SendConfirmation(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.SendConfirmation, "")
}

func (service *OrderService) ConfirmByCustomer(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.CustomerConfirm, "")
}

func (service *OrderService) CancelByCustomer(
	ctx context.Context,
	userID int,
	id int64,
	reason string,
) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.CustomerCancel, reason)
}

func (service *OrderService) MarkPaid(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.MarkPaid, "")
}

func (service *OrderService) Ship(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.Ship, "")
}

func (service *OrderService) Complete(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.Complete, "")
}

func (service *OrderService) MarkUnreachable(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	return service.Apply(ctx, userID, id, lifecycle.MarkUnreachable, "")
}

// UpdateCommercial меняет коммерческие поля. Изменение сумм сбрасывает кэш документа счёта.
func (service *OrderService) UpdateCommercial(
	ctx context.Context,
	userID int,
	id int64,
	patch models.OrderPatch,
) (*ActionResult, error) {
	current, err := service.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	patch.Status = nil
	next := patch.ApplyTo(*current)
	if err = validateCommercial(next); err != nil {
		return nil, err
	}

	updated, err := service.orders.UpdateCommercial(ctx, next)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerror.NewNotFoundError(fmt.Sprintf("order %d not found", id))
	}
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}

	result := &ActionResult{
		Order:   updated,
		Applied: true,
		Message: fmt.Sprintf("order %s updated", updated.OrderCode),
	}

	affects := billing.AffectsInvoice(*current, *updated)
	var invalidateErr error
	if affects {
		invalidateErr = service.rules.Invalidate(ctx, *updated)
	}
	payload := map[string]any{
		statusKey:             string(updated.Status),
		"invoice_invalidated": affects,
		"total":               billing.InvoiceTotal(*updated).String(),
	}

	result.Invoice, err = service.afterMutation(ctx, *updated, models.OrderUpdatedEvent, payload)
	if invalidateErr != nil {
		err = service.followUpFailed(updated.ID, errors.Join(invalidateErr, unwrapFollowUp(err)))
	}
	return result, err
}

// Resync дописывает потерянное событие статуса, повторяет правила счёта и
// восстанавливает событие счёта, если счёт записан, а событие нет.
// Повторные вызовы ничего не меняют.
func (service *OrderService) Resync(ctx context.Context, userID int, id int64) (*ActionResult, error) {
	order, err := service.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	result := &ActionResult{Order: order}
	timeline, timelineErr := service.events.Timeline(ctx, userID, id)
	eventErr := timelineErr
	eventWritten := false
	if recorded := recordedStatus(timeline); timelineErr == nil && recorded != order.Status {
		eventErr = service.events.Append(ctx, *order, models.StatusChangedEvent, map[string]any{
			"from":     string(recorded),
			statusKey:  string(order.Status),
			"resynced": true,
		})
		eventWritten = eventErr == nil
	}

	invoice, rulesErr := service.rules.Apply(ctx, *order)
	result.Invoice = invoice

	// Журнал прочитан до Apply, сверять его можно, только если Apply ничего не записал
	repaired := false
	if invoice == nil && rulesErr == nil && timelineErr == nil {
		var repairedInvoice *models.Invoice
		repairedInvoice, rulesErr = service.rules.RepairEvent(ctx, *order, timeline)
		if repairedInvoice != nil {
			result.Invoice = repairedInvoice
			repaired = rulesErr == nil
		}
	}

	result.Applied = invoice != nil || eventWritten || repaired
	if result.Applied {
		result.Message = fmt.Sprintf("order %s follow-up steps were re-applied", order.OrderCode)
	} else {
		result.Message = fmt.Sprintf("order %s is already in sync", order.OrderCode)
	}

	if joined := errors.Join(rulesErr, eventErr); joined != nil {
		return result, service.followUpFailed(order.ID, joined)
	}
	return result, nil
}

// BulkDelete удаляет заказы вместе со счетами. Событие удаления пишется только
// для заказов, которые действительно были удалены.
func (service *OrderService) BulkDelete(ctx context.Context, userID int, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := service.orders.DeleteMany(ctx, userID, ids)
	if err != nil {
		return 0, customerror.NewCommonPGError(err)
	}
	for _, id := range deleted {
		service.events.Deleted(ctx, userID, id)
	}
	logger.Log.Info("Orders deleted",
		zap.Int("user_id", userID),
		zap.Int("requested", len(ids)),
		zap.Int("deleted", len(deleted)),
	)
	return int64(len(deleted)), nil
}

func (service *OrderService) Timeline(ctx context.Context, userID int, id int64) ([]models.OrderEvent, error) {
	events, err := service.events.Timeline(ctx, userID, id)
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}
	return events, nil
}

func (service *OrderService) Invoice(ctx context.Context, userID int, id int64) (*models.Invoice, error) {
	order, err := service.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return service.rules.Invoice(ctx, *order)
}

func (service *OrderService) InvoiceDocument(
	ctx context.Context,
	userID int,
	id int64,
) ([]byte, *models.Invoice, error) {
	order, err := service.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	return service.rules.Document(ctx, *order)
}

// afterMutation пишет событие изменения, затем прогоняет правила счёта. Статус заказа к этому
// моменту уже сохранён, поэтому ошибки возвращаются как FollowUpError.
func (service *OrderService) afterMutation(
	ctx context.Context,
	order models.Order,
	eventType models.EventType,
	payload map[string]any,
) (*models.Invoice, error) {
	eventErr := service.events.Append(ctx, order, eventType, payload)
	invoice, rulesErr := service.rules.Apply(ctx, order)

	if joined := errors.Join(rulesErr, eventErr); joined != nil {
		return invoice, service.followUpFailed(order.ID, joined)
	}
	return invoice, nil
}

func (service *OrderService) followUpFailed(orderID int64, cause error) error {
	service.metrics.ObserveFollowUpError()
	logger.Log.Warn("Order saved, follow-up steps failed",
		zap.Int64("order_id", orderID),
		zap.String("error", customerror.Describe(cause)),
	)
	return customerror.NewFollowUpError(orderID, cause)
}

func (service *OrderService) skipped(order *models.Order, action lifecycle.Action) *ActionResult {
	service.metrics.ObserveTransition(string(action), false)
	message := lifecycle.SkipMessage(action, order.Status)
	logger.Log.Info("Order action skipped",
		zap.Int64("order_id", order.ID),
		zap.String("action", string(action)),
		zap.String("status", string(order.Status)),
	)
	return &ActionResult{Order: order, Applied: false, Message: message}
}

func unwrapFollowUp(err error) error {
	var followUp *customerror.FollowUpError
	if errors.As(err, &followUp) {
		return followUp.Unwrap()
	}
	return err
}

func validateCommercial(order models.Order) error {
	var problems []string
	if strings.TrimSpace(order.OrderCode) == "" {
		problems = append(problems, "order code is required")
	}
	if strings.TrimSpace(order.CustomerName) == "" {
		problems = append(problems, "customer name is required")
	}
	if strings.TrimSpace(order.Phone) == "" {
		problems = append(problems, "phone is required")
	}
	if !order.Amount.IsPositive() {
		problems = append(problems, "amount must be greater than zero")
	}
	if order.Discount.IsNegative() || order.ShippingFee.IsNegative() {
		problems = append(problems, "discount and shipping fee must not be negative")
	}
	if len(problems) > 0 {
		return customerror.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}

func fullAddress(order models.Order) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{order.Address, order.Ward, order.District, order.Province} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
