package repository

import (
	"context"

	"github.com/Bessima/orderflow/internal/config/db"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/retry"
)

type EventRepository struct {
	db *db.DB
}

type EventStorageRepositoryI interface {
	Append(ctx context.Context, event models.OrderEvent) (*models.OrderEvent, error)
	ListByOrder(ctx context.Context, userID int, orderID int64) ([]models.OrderEvent, error)
}

func NewEventRepository(dbObj *db.DB) *EventRepository {
	return &EventRepository{db: dbObj}
}

func (repository *EventRepository) Append(ctx context.Context, event models.OrderEvent) (*models.OrderEvent, error) {
	query := `INSERT INTO order_events (user_id, order_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	if event.Payload == nil {
		event.Payload = map[string]any{}
	}

	return retry.DoRetryWithResult(ctx, func() (*models.OrderEvent, error) {
		row := repository.db.Pool.QueryRow(ctx, query, event.UserID, event.OrderID, string(event.Type), event.Payload)
		stored := event
		if err := row.Scan(&stored.ID, &stored.CreatedAt); err != nil {
			return nil, err
		}
		return &stored, nil
	})
}

func (repository *EventRepository) ListByOrder(ctx context.Context, userID int, orderID int64) ([]models.OrderEvent, error) {
	query := `SELECT id, user_id, order_id, event_type, payload, created_at
		FROM order_events WHERE user_id = $1 AND order_id = $2 ORDER BY id`

	return retry.DoRetryWithResult(ctx, func() ([]models.OrderEvent, error) {
		rows, err := repository.db.Pool.Query(ctx, query, userID, orderID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		events := []models.OrderEvent{}
		for rows.Next() {
			var (
				event     models.OrderEvent
				eventType string
			)
			err = rows.Scan(&event.ID, &event.UserID, &event.OrderID, &eventType, &event.Payload, &event.CreatedAt)
			if err != nil {
				return nil, err
			}
			event.Type = models.EventType(eventType)
			events = append(events, event)
		}
		return events, rows.Err()
	})
}
