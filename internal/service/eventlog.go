package service

import (
	"context"
	"fmt"

	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/notify"
	"github.com/Bessima/orderflow/internal/repository"
	"go.uber.org/zap"
)

// ChangePublisher рассылает изменения заказов подписчикам.
type ChangePublisher interface {
	Publish(ctx context.Context, change notify.Change) error
}

type EventAppender interface {
	Append(ctx context.Context, order models.Order, eventType models.EventType, payload map[string]any) error
}

// EventLog пишет журнал событий заказа и, если задан publisher, оповещает подписчиков.
type EventLog struct {
	repository repository.EventStorageRepositoryI
	publisher  ChangePublisher
}

func NewEventLog(repo repository.EventStorageRepositoryI, publisher ChangePublisher) *EventLog {
	return &EventLog{repository: repo, publisher: publisher}
}

func (eventLog *EventLog) Append(
	ctx context.Context,
	order models.Order,
	eventType models.EventType,
	payload map[string]any,
) error {
	_, err := eventLog.repository.Append(ctx, models.OrderEvent{
		UserID:  order.UserID,
		OrderID: order.ID,
		Type:    eventType,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("append %s event: %w", eventType, err)
	}

	eventLog.publish(ctx, notify.NewUpsert(order, eventType))
	return nil
}

// Deleted фиксирует удаление заказа. Ошибки только логируются: заказ уже удалён.
func (eventLog *EventLog) Deleted(ctx context.Context, userID int, orderID int64) {
	_, err := eventLog.repository.Append(ctx, models.OrderEvent{
		UserID:  userID,
		OrderID: orderID,
		Type:    models.OrderDeletedEvent,
		Payload: map[string]any{},
	})
	if err != nil {
		logger.Log.Warn("order_deleted event was not saved", zap.Int64("order_id", orderID), zap.Error(err))
	}
	eventLog.publish(ctx, notify.NewDelete(userID, orderID))
}

func (eventLog *EventLog) Timeline(ctx context.Context, userID int, orderID int64) ([]models.OrderEvent, error) {
	return eventLog.repository.ListByOrder(ctx, userID, orderID)
}

// recordedStatus возвращает последний статус, записанный в журнал.
func recordedStatus(events []models.OrderEvent) models.OrderStatus {
	for i := len(events) - 1; i >= 0; i-- {
		if status, ok := events[i].Payload[statusKey].(string); ok {
			return models.OrderStatus(status)
		}
	}
	return ""
}

// lastInvoiceEvent возвращает тип последнего события счёта или пустую строку.
func lastInvoiceEvent(events []models.OrderEvent) models.EventType {
	for i := len(events) - 1; i >= 0; i-- {
		switch events[i].Type {
		case models.InvoiceIssuedEvent, models.InvoicePaidEvent:
			return events[i].Type
		}
	}
	return ""
}

func (eventLog *EventLog) publish(ctx context.Context, change notify.Change) {
	if eventLog.publisher == nil {
		return
	}
	if err := eventLog.publisher.Publish(ctx, change); err != nil {
		logger.Log.Warn("order change was not published",
			zap.Int64("order_id", change.OrderID),
			zap.String("kind", string(change.Kind)),
			zap.Error(err),
		)
	}
}
