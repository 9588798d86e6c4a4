package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NoticeLevel string

const (
	LevelSuccess NoticeLevel = "success"
	LevelInfo    NoticeLevel = "info"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

// Notice — уведомление для оператора. Persistent-уведомления не скрываются
// автоматически, их закрывает сам оператор.
type Notice struct {
	Level      NoticeLevel `json:"level"`
	Persistent bool        `json:"persistent"`
	Message    string      `json:"message"`
	Details    any         `json:"details,omitempty"`
}

type envelope struct {
	Notice Notice `json:"notice"`
	Data   any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, notice Notice, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Notice: notice, Data: data}); err != nil {
		logger.Log.Error("Error encoding response", zap.Error(err))
	}
}

// writeError переводит ошибку сервиса в ответ. Неизвестные ошибки отдаются с кодом 500.
func writeError(w http.ResponseWriter, err error) {
	status := customerror.HTTPCode(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Error("Request failed", zap.String("error", customerror.Describe(err)))
	}
	writeJSON(w, status, Notice{Level: LevelError, Message: customerror.Describe(err)}, nil)
}

// writeResult отвечает на изменение заказа. Если заказ сохранён, а
// последующие шаги не выполнены, ответ 202 с постоянным предупреждением.
func writeResult(w http.ResponseWriter, status int, result *service.ActionResult, err error) {
	if err != nil {
		var followUp *customerror.FollowUpError
		if errors.As(err, &followUp) && result != nil {
			writeJSON(w, followUp.GetHTTPCode(), Notice{
				Level:      LevelWarning,
				Persistent: true,
				Message:    followUp.Error(),
				Details:    map[string]any{"resync": fmt.Sprintf("/api/orders/%d/resync", followUp.OrderID)},
			}, result)
			return
		}
		writeError(w, err)
		return
	}

	notice := Notice{Level: LevelSuccess, Message: result.Message}
	if !result.Applied {
		notice.Level = LevelInfo
		status = http.StatusOK
	}
	writeJSON(w, status, notice, result)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Notice{Level: LevelError, Message: message}, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, Notice{Level: LevelError, Message: message}, nil)
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", raw)
	}
	return id, nil
}
