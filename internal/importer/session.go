package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/sessions"
	"go.uber.org/zap"
)

// Session — приостановленный импорт. Хранит уже разобранные строки, чтобы
// продолжить без повторного чтения файла.
type Session struct {
	ID              string       `json:"id"`
	UserID          int          `json:"user_id"`
	FileName        string       `json:"file_name"`
	Status          Status       `json:"status"`
	Valid           []Record     `json:"valid"`
	Invalid         []InvalidRow `json:"invalid"`
	Skipped         []InvalidRow `json:"skipped,omitempty"`
	MissingProducts []string     `json:"missing_products,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (p *Pipeline) save(ctx context.Context, session *Session) error {
	session.UpdatedAt = p.now()
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err = p.sessions.Save(ctx, session.ID, payload); err != nil {
		return fmt.Errorf("save import session: %w", err)
	}
	return nil
}

func (p *Pipeline) load(ctx context.Context, userID int, id string) (*Session, error) {
	payload, err := p.sessions.Load(ctx, id)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, customerror.NewNotFoundError(fmt.Sprintf("import session %s not found or expired", id))
	}
	if err != nil {
		return nil, fmt.Errorf("load import session: %w", err)
	}

	var session Session
	if err = json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode import session: %w", err)
	}
	if session.UserID != userID {
		return nil, customerror.NewNotFoundError(fmt.Sprintf("import session %s not found or expired", id))
	}
	return &session, nil
}

func (p *Pipeline) discard(ctx context.Context, session *Session) {
	if err := p.sessions.Delete(ctx, session.ID); err != nil {
		logger.Log.Warn("Import session was not deleted", zap.String("session_id", session.ID), zap.Error(err))
	}
}
