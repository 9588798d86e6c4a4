// Package orderstore — локальный список заказов с оптимистичными изменениями.
// Изменение сначала применяется локально, затем заменяется ответом сервера
// или откатывается к снимку.
package orderstore

import (
	"context"
	"errors"
	"sync"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/notify"
)

var (
	ErrUnknownOrder = errors.New("order is not in the store")
	ErrUnknownToken = errors.New("patch token is unknown or already settled")
)

// Token связывает оптимистичное изменение с его снимком.
type Token uint64

type Store struct {
	mu        sync.RWMutex
	userID    int
	orders    []models.Order
	snapshots map[Token]models.Order
	next      Token
}

// New создаёт хранилище заказов одного пользователя. Изменения чужих заказов
// из ленты игнорируются.
func New(userID int) *Store {
	return &Store{userID: userID, snapshots: map[Token]models.Order{}}
}

// Load заменяет список целиком. Незавершённые изменения сбрасываются.
func (s *Store) Load(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]models.Order{}, orders...)
	s.snapshots = map[Token]models.Order{}
}

func (s *Store) List() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order{}, s.orders...)
}

func (s *Store) Get(id int64) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Order{}, false
	}
	return s.orders[i], true
}

// ApplyPatch применяет изменение локально и запоминает снимок для отката.
func (s *Store) ApplyPatch(id int64, patch models.OrderPatch) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return 0, ErrUnknownOrder
	}

	s.next++
	s.snapshots[s.next] = s.orders[i]
	s.orders[i] = patch.ApplyTo(s.orders[i])
	return s.next, nil
}

// Reconcile заменяет локальную строку ответом сервера.
func (s *Store) Reconcile(token Token, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[token]; !ok {
		return ErrUnknownToken
	}
	delete(s.snapshots, token)
	s.replace(order)
	return nil
}

// Rollback возвращает строку к состоянию до ApplyPatch.
func (s *Store) Rollback(token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[token]
	if !ok {
		return ErrUnknownToken
	}
	delete(s.snapshots, token)
	s.replace(snapshot)
	return nil
}

// HandleChange применяет уведомление из ленты: строка меняется на месте,
// порядок списка сохраняется. Новые заказы добавляются в начало.
func (s *Store) HandleChange(change notify.Change) {
	if change.UserID != s.userID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch change.Kind {
	case notify.DeleteChange:
		if i := s.indexOf(change.OrderID); i >= 0 {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
		}
	case notify.UpsertChange:
		if change.Order == nil {
			return
		}
		order := *change.Order
		order.UserID = change.UserID
		if s.indexOf(order.ID) < 0 {
			s.orders = append([]models.Order{order}, s.orders...)
			return
		}
		s.replace(order)
	}
}

// Mutate применяет patch локально, вызывает call и по его результату
// либо сохраняет ответ сервера, либо откатывает изменение.
func (s *Store) Mutate(
	ctx context.Context,
	id int64,
	patch models.OrderPatch,
	call func(ctx context.Context) (*models.Order, error),
) (*models.Order, error) {
	token, err := s.ApplyPatch(id, patch)
	if err != nil {
		return nil, err
	}

	order, err := call(ctx)
	if err != nil || order == nil {
		_ = s.Rollback(token)
		if err == nil {
			err = ErrUnknownOrder
		}
		return nil, err
	}
	_ = s.Reconcile(token, *order)
	return order, nil
}

func (s *Store) replace(order models.Order) {
	if i := s.indexOf(order.ID); i >= 0 {
		s.orders[i] = order
	}
}

func (s *Store) indexOf(id int64) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}
