package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/metrics"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/service"
	"github.com/Bessima/orderflow/internal/sessions"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Status string

const (
	StatusHeaderError     Status = "header_error"
	StatusMissingProducts Status = "missing_products"
	StatusNeedsCorrection Status = "needs_correction"
	StatusDuplicates      Status = "duplicates"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

type ProductCatalog interface {
	ListActive(ctx context.Context, userID int) ([]models.Product, error)
	GetByIDs(ctx context.Context, userID int, ids []int64) ([]models.Product, error)
	FindMissingNames(ctx context.Context, userID int, normalizedNames []string) ([]string, error)
}

type OrderCodes interface {
	ExistingCodes(ctx context.Context, userID int, codes []string) ([]string, error)
}

type OrderInserter interface {
	Insert(
		ctx context.Context,
		order models.Order,
		eventType models.EventType,
		extra map[string]any,
	) (*service.ActionResult, error)
}

type RowError struct {
	Row          int    `json:"row"`
	OrderCode    string `json:"order_code"`
	CustomerName string `json:"customer_name"`
	Error        string `json:"error"`
}

// Report — итог вставки. Warnings — строки, которые сохранены, но правила счёта
// или журнал для них нужно повторить.
type Report struct {
	Inserted int          `json:"success_count"`
	Failed   int          `json:"failed_count"`
	Errors   []RowError   `json:"errors"`
	Warnings []RowError   `json:"warnings,omitempty"`
	Skipped  []InvalidRow `json:"skipped,omitempty"`
}

type Outcome struct {
	Status          Status           `json:"status"`
	SessionID       string           `json:"session_id,omitempty"`
	Message         string           `json:"message"`
	Headers         *HeaderReport    `json:"headers,omitempty"`
	MissingProducts []string         `json:"missing_products,omitempty"`
	Invalid         []InvalidRow     `json:"invalid,omitempty"`
	Duplicates      *DuplicateReport `json:"duplicates,omitempty"`
	Report          *Report          `json:"report,omitempty"`
}

// Correction — товары, выбранные оператором для строк с ошибками (номер строки → id товара).
// Строки из Discard исключаются из импорта.
type Correction struct {
	Assignments map[int]int64 `json:"assignments"`
	Discard     []int         `json:"discard"`
}

// Pipeline проводит файл через все этапы импорта. Этапы выполняются последовательно,
// строки вставляются по одной.
type Pipeline struct {
	products  ProductCatalog
	codes     OrderCodes
	orders    OrderInserter
	sessions  sessions.Store
	metrics   *metrics.Metrics
	chunkSize int
	newID     func() string
	now       func() time.Time
}

func NewPipeline(
	products ProductCatalog,
	codes OrderCodes,
	orders OrderInserter,
	store sessions.Store,
	m *metrics.Metrics,
	chunkSize int,
) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Pipeline{
		products:  products,
		codes:     codes,
		orders:    orders,
		sessions:  store,
		metrics:   m,
		chunkSize: chunkSize,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Start разбирает файл и ведёт его по этапам до вставки или до первой остановки.
func (p *Pipeline) Start(ctx context.Context, userID int, fileName string, reader io.Reader) (*Outcome, error) {
	sheet, err := Parse(fileName, reader)
	if err != nil {
		return nil, customerror.NewValidationError(err.Error())
	}

	columns, headerReport := MatchHeaders(sheet.Headers)
	if headerReport != nil {
		logger.Log.Info("Import rejected by header validation",
			zap.Int("user_id", userID),
			zap.Strings("missing", headerReport.Missing),
			zap.Int("misnamed", len(headerReport.Misnamed)),
			zap.Int("ambiguous", len(headerReport.Ambiguous)),
		)
		return p.finish(&Outcome{
			Status:  StatusHeaderError,
			Message: headerMessage(headerReport),
			Headers: headerReport,
		}), nil
	}
	if len(sheet.Rows) == 0 {
		return nil, customerror.NewValidationError("file has no data rows")
	}

	records := make([]Record, 0, len(sheet.Rows))
	for _, raw := range sheet.Rows {
		records = append(records, MapRow(raw, columns))
	}

	now := p.now()
	session := &Session{
		ID:        p.newID(),
		UserID:    userID,
		FileName:  fileName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	logger.Log.Info("Import started",
		zap.String("session_id", session.ID),
		zap.Int("user_id", userID),
		zap.String("file", fileName),
		zap.Int("rows", len(records)),
	)
	return p.reconcile(ctx, session, records)
}

// Resume продолжает приостановленный импорт после того, как оператор завёл
// недостающие товары. Файл повторно не читается.
func (p *Pipeline) Resume(ctx context.Context, userID int, sessionID string) (*Outcome, error) {
	session, err := p.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	records := append([]Record{}, session.Valid...)
	for _, row := range session.Invalid {
		records = append(records, row.Record)
	}
	sortByRow(records)
	return p.reconcile(ctx, session, records)
}

// Correct применяет выбор товаров оператором, повторно проверяет исправленные
// строки и, если ошибок не осталось, вставляет их вместе с изначально верными.
func (p *Pipeline) Correct(ctx context.Context, userID int, sessionID string, correction Correction) (*Outcome, error) {
	session, err := p.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Invalid) == 0 {
		return nil, customerror.NewValidationError("import has no rows waiting for correction")
	}

	var (
		pending    []InvalidRow
		unassigned []string
		ids        []int64
	)
	for _, row := range session.Invalid {
		if slices.Contains(correction.Discard, row.Row) {
			session.Skipped = append(session.Skipped, row)
			continue
		}
		id, ok := correction.Assignments[row.Row]
		if !ok {
			unassigned = append(unassigned, fmt.Sprintf("%d", row.Row))
			continue
		}
		pending = append(pending, row)
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(unassigned) > 0 {
		return nil, customerror.NewValidationError(
			fmt.Sprintf("rows without assigned product: %s", strings.Join(unassigned, ", ")))
	}

	chosen := []models.Product{}
	if len(ids) > 0 {
		chosen, err = p.products.GetByIDs(ctx, userID, ids)
		if err != nil {
			return nil, customerror.NewCommonPGError(err)
		}
	}
	byID := map[int64]models.Product{}
	for _, product := range chosen {
		byID[product.ID] = product
	}

	corrected := make([]Record, 0, len(pending))
	for _, row := range pending {
		product, ok := byID[correction.Assignments[row.Row]]
		if !ok {
			return nil, customerror.NewValidationError(
				fmt.Sprintf("row %d: product %d not found", row.Row, correction.Assignments[row.Row]))
		}
		record := row.Record
		record.ProductName = product.Name
		corrected = append(corrected, record)
	}

	valid, invalid := Split(Validate(corrected, NewProductIndex(chosen)))
	session.Valid = append(session.Valid, valid...)
	sortByRow(session.Valid)
	session.Invalid = invalid
	session.MissingProducts = nil

	if len(invalid) > 0 {
		return p.suspend(ctx, session, StatusNeedsCorrection)
	}
	return p.commit(ctx, session)
}

// Session возвращает приостановленный импорт пользователя.
func (p *Pipeline) Session(ctx context.Context, userID int, sessionID string) (*Session, error) {
	return p.load(ctx, userID, sessionID)
}

// reconcile проверяет строки по каталогу, останавливается на недостающих товарах
// или ошибках строк, иначе переходит к проверке дублей и вставке.
func (p *Pipeline) reconcile(ctx context.Context, session *Session, records []Record) (*Outcome, error) {
	catalog, err := p.products.ListActive(ctx, session.UserID)
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}
	valid, invalid := Split(Validate(records, NewProductIndex(catalog)))

	valid, invalid, err = p.confirmProducts(ctx, session.UserID, valid, invalid)
	if err != nil {
		return nil, err
	}

	session.Valid = valid
	session.Invalid = invalid
	session.MissingProducts = MissingProducts(invalid)

	switch {
	case len(session.MissingProducts) > 0:
		return p.suspend(ctx, session, StatusMissingProducts)
	case len(invalid) > 0:
		return p.suspend(ctx, session, StatusNeedsCorrection)
	}
	return p.commit(ctx, session)
}

// confirmProducts сверяет имена товаров верных строк с сохранённым каталогом.
// Строки, чей товар пропал из каталога, переводятся в ошибочные.
func (p *Pipeline) confirmProducts(
	ctx context.Context,
	userID int,
	valid []Record,
	invalid []InvalidRow,
) ([]Record, []InvalidRow, error) {
	names := []string{}
	for _, record := range valid {
		if name := Normalize(record.ProductName); !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return valid, invalid, nil
	}

	missing, err := p.products.FindMissingNames(ctx, userID, names)
	if err != nil {
		return nil, nil, customerror.NewCommonPGError(err)
	}
	if len(missing) == 0 {
		return valid, invalid, nil
	}

	kept := make([]Record, 0, len(valid))
	for _, record := range valid {
		if !slices.Contains(missing, Normalize(record.ProductName)) {
			kept = append(kept, record)
			continue
		}
		record.ProductID = nil
		invalid = append(invalid, InvalidRow{
			Record:         record,
			Reasons:        []string{fmt.Sprintf("Product not found: %s", record.ProductName)},
			MissingProduct: record.ProductName,
		})
	}
	slices.SortFunc(invalid, func(a, b InvalidRow) int { return a.Row - b.Row })
	return kept, invalid, nil
}

func (p *Pipeline) suspend(ctx context.Context, session *Session, status Status) (*Outcome, error) {
	session.Status = status
	if err := p.save(ctx, session); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%d rows need correction before import", len(session.Invalid))
	if status == StatusMissingProducts {
		message = fmt.Sprintf("products not found in catalog: %s", strings.Join(session.MissingProducts, ", "))
	}
	if rows := discardOnly(session.Invalid); len(rows) > 0 {
		message += fmt.Sprintf("; rows %s have data errors that a product choice cannot fix, discard them", joinRows(rows))
	}
	logger.Log.Info("Import suspended",
		zap.String("session_id", session.ID),
		zap.String("status", string(status)),
		zap.Int("valid", len(session.Valid)),
		zap.Int("invalid", len(session.Invalid)),
	)
	return p.finish(&Outcome{
		Status:          status,
		SessionID:       session.ID,
		Message:         message,
		MissingProducts: session.MissingProducts,
		Invalid:         session.Invalid,
	}), nil
}

// commit проверяет дубли кодов и вставляет строки. Любой дубль отменяет весь пакет.
func (p *Pipeline) commit(ctx context.Context, session *Session) (*Outcome, error) {
	lookup := func(ctx context.Context, codes []string) ([]string, error) {
		return p.codes.ExistingCodes(ctx, session.UserID, codes)
	}
	duplicates, err := FindDuplicates(ctx, session.Valid, lookup, p.chunkSize)
	if err != nil {
		return nil, customerror.NewCommonPGError(err)
	}
	if !duplicates.Empty() {
		p.discard(ctx, session)
		logger.Log.Info("Import rejected by duplicate order codes",
			zap.String("session_id", session.ID),
			zap.Int("in_batch", len(duplicates.InBatch)),
			zap.Int("existing", len(duplicates.Existing)),
		)
		return p.finish(&Outcome{
			Status:     StatusDuplicates,
			Message:    duplicateMessage(duplicates),
			Duplicates: duplicates,
		}), nil
	}

	report := p.insert(ctx, session)
	p.discard(ctx, session)

	outcome := &Outcome{Status: StatusCompleted, Report: report}
	switch {
	case report.Inserted == 0:
		outcome.Status = StatusFailed
		outcome.Message = fmt.Sprintf("no orders were imported, %d rows failed", report.Failed)
	case report.Failed > 0:
		outcome.Message = fmt.Sprintf("imported %d orders, %d rows failed", report.Inserted, report.Failed)
	default:
		outcome.Message = fmt.Sprintf("imported %d orders", report.Inserted)
	}
	logger.Log.Info("Import finished",
		zap.String("session_id", session.ID),
		zap.Int("inserted", report.Inserted),
		zap.Int("failed", report.Failed),
	)
	return p.finish(outcome), nil
}

// insert сохраняет строки по одной. Ошибка строки не останавливает остальные.
func (p *Pipeline) insert(ctx context.Context, session *Session) *Report {
	report := &Report{Errors: []RowError{}, Skipped: session.Skipped}

	for _, record := range session.Valid {
		if err := ctx.Err(); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, rowError(record, err))
			continue
		}

		extra := map[string]any{"row": record.Row, "import_id": session.ID, "file": session.FileName}
		_, err := p.orders.Insert(ctx, record.ToOrder(session.UserID), models.OrderImportedEvent, extra)

		var followUp *customerror.FollowUpError
		switch {
		case err == nil:
			report.Inserted++
		case errors.As(err, &followUp):
			report.Inserted++
			report.Warnings = append(report.Warnings, rowError(record, err))
		default:
			report.Failed++
			report.Errors = append(report.Errors, rowError(record, err))
			logger.Log.Warn("Import row failed",
				zap.String("session_id", session.ID),
				zap.Int("row", record.Row),
				zap.String("order_code", record.OrderCode),
				zap.String("error", customerror.Describe(err)),
			)
		}
	}
	return report
}

func (p *Pipeline) finish(outcome *Outcome) *Outcome {
	inserted, failed := 0, 0
	if outcome.Report != nil {
		inserted, failed = outcome.Report.Inserted, outcome.Report.Failed
	}
	p.metrics.ObserveImport(string(outcome.Status), inserted, failed)
	return outcome
}

func rowError(record Record, err error) RowError {
	return RowError{
		Row:          record.Row,
		OrderCode:    record.OrderCode,
		CustomerName: record.CustomerName,
		Error:        customerror.Describe(err),
	}
}

// discardOnly возвращает номера строк, которые не исправить выбором товара.
func discardOnly(invalid []InvalidRow) []int {
	rows := []int{}
	for _, row := range invalid {
		if row.MissingProduct == "" || len(row.Reasons) > 1 {
			rows = append(rows, row.Row)
		}
	}
	return rows
}

func sortByRow(records []Record) {
	slices.SortFunc(records, func(a, b Record) int { return a.Row - b.Row })
}

func headerMessage(report *HeaderReport) string {
	parts := []string{}
	if len(report.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(report.Missing, ", "))
	}
	if len(report.Misnamed) > 0 {
		names := make([]string, 0, len(report.Misnamed))
		for _, header := range report.Misnamed {
			names = append(names, fmt.Sprintf("%q (expected %q)", header.Header, header.Expected))
		}
		parts = append(parts, "misnamed columns: "+strings.Join(names, ", "))
	}
	if len(report.Ambiguous) > 0 {
		names := make([]string, 0, len(report.Ambiguous))
		for _, header := range report.Ambiguous {
			names = append(names, fmt.Sprintf("%q (column %d) repeats %q from column %d",
				header.Header, header.Column, header.Field, header.FirstColumn))
		}
		parts = append(parts, "ambiguous columns: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}

func duplicateMessage(report *DuplicateReport) string {
	parts := []string{}
	for _, duplicate := range report.InBatch {
		parts = append(parts, fmt.Sprintf("%s repeated in rows %s", duplicate.OrderCode, joinRows(duplicate.Rows)))
	}
	for _, duplicate := range report.Existing {
		parts = append(parts, fmt.Sprintf("%s already exists (rows %s)", duplicate.OrderCode, joinRows(duplicate.Rows)))
	}
	return "duplicate order codes, nothing was imported: " + strings.Join(parts, "; ")
}

func joinRows(rows []int) string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = fmt.Sprintf("%d", row)
	}
	return strings.Join(out, ", ")
}
