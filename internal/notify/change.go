// Package notify рассылает и принимает уведомления об изменениях заказов.
package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Bessima/orderflow/internal/models"
)

type ChangeKind string

const (
	UpsertChange ChangeKind = "upsert"
	DeleteChange ChangeKind = "delete"
)

// Change — сообщение в ленте изменений. Order заполнен для UpsertChange.
type Change struct {
	Kind      ChangeKind       `json:"kind"`
	UserID    int              `json:"user_id"`
	OrderID   int64            `json:"order_id"`
	EventType models.EventType `json:"event_type"`
	Order     *models.Order    `json:"order,omitempty"`
	At        time.Time        `json:"at"`
}

func NewUpsert(order models.Order, eventType models.EventType) Change {
	snapshot := order
	return Change{
		Kind:      UpsertChange,
		UserID:    order.UserID,
		OrderID:   order.ID,
		EventType: eventType,
		Order:     &snapshot,
		At:        time.Now().UTC(),
	}
}

func NewDelete(userID int, orderID int64) Change {
	return Change{
		Kind:      DeleteChange,
		UserID:    userID,
		OrderID:   orderID,
		EventType: models.OrderDeletedEvent,
		At:        time.Now().UTC(),
	}
}

// Key — ключ сообщения, все изменения одного заказа попадают в одну партицию.
func (c Change) Key() []byte {
	return []byte(strconv.FormatInt(c.OrderID, 10))
}

func Encode(change Change) ([]byte, error) {
	return json.Marshal(change)
}

func Decode(payload []byte) (Change, error) {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	if change.OrderID == 0 {
		return Change{}, fmt.Errorf("decode change: order_id is required")
	}
	if change.Kind == UpsertChange && change.Order == nil {
		return Change{}, fmt.Errorf("decode change: upsert without order snapshot")
	}
	return change, nil
}
