package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Bessima/orderflow/internal/handlers/schemas"
	"github.com/Bessima/orderflow/internal/importer"
	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 32 << 20

type ImportPipeline interface {
	Start(ctx context.Context, userID int, fileName string, reader io.Reader) (*importer.Outcome, error)
	Resume(ctx context.Context, userID int, sessionID string) (*importer.Outcome, error)
	Correct(ctx context.Context, userID int, sessionID string, correction importer.Correction) (*importer.Outcome, error)
	Session(ctx context.Context, userID int, sessionID string) (*importer.Session, error)
}

type ImportsHandler struct {
	pipeline ImportPipeline
}

func NewImportsHandler(pipeline ImportPipeline) *ImportsHandler {
	return &ImportsHandler{pipeline: pipeline}
}

// Upload принимает файл в поле file формы multipart.
func (h *ImportsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequest(w, "can't read upload form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer file.Close()

	outcome, err := h.pipeline.Start(r.Context(), user.ID, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func (h *ImportsHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	session, err := h.pipeline.Session(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Notice{
		Level:   LevelInfo,
		Message: fmt.Sprintf("import %s is waiting: %s", session.FileName, session.Status),
	}, session)
}

func (h *ImportsHandler) Resume(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	outcome, err := h.pipeline.Resume(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func (h *ImportsHandler) Correct(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	var req schemas.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := schemas.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := h.pipeline.Correct(r.Context(), user.ID, chi.URLParam(r, "id"), importer.Correction{
		Assignments: req.Assignments,
		Discard:     req.Discard,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

// writeOutcome выбирает код ответа и уведомление по итогу импорта. Отчёты о
// заголовках и дубликатах остаются на экране, пока оператор их не закроет.
func writeOutcome(w http.ResponseWriter, outcome *importer.Outcome) {
	notice := Notice{Message: outcome.Message}
	status := http.StatusOK

	switch outcome.Status {
	case importer.StatusHeaderError:
		status = http.StatusUnprocessableEntity
		notice.Level, notice.Persistent = LevelWarning, true
		notice.Details = outcome.Headers
	case importer.StatusMissingProducts:
		notice.Level, notice.Persistent = LevelWarning, true
		notice.Details = outcome.MissingProducts
	case importer.StatusNeedsCorrection:
		notice.Level, notice.Persistent = LevelWarning, true
		notice.Details = outcome.Invalid
	case importer.StatusDuplicates:
		status = http.StatusConflict
		notice.Level, notice.Persistent = LevelWarning, true
		notice.Details = outcome.Duplicates
	case importer.StatusCompleted:
		notice.Level = LevelSuccess
		if outcome.Report != nil && (outcome.Report.Failed > 0 || len(outcome.Report.Warnings) > 0) {
			notice.Level, notice.Persistent = LevelWarning, true
			notice.Details = outcome.Report
		}
	case importer.StatusFailed:
		status = http.StatusUnprocessableEntity
		notice.Level, notice.Persistent = LevelError, true
		notice.Details = outcome.Report
	default:
		notice.Level = LevelInfo
	}

	writeJSON(w, status, notice, outcome)
}
