// Package sessions хранит приостановленные сессии импорта.
package sessions

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session not found or expired")

type Store interface {
	Save(ctx context.Context, id string, payload []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
