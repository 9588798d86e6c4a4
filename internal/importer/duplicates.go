package importer

import (
	"context"
	"fmt"
	"slices"
)

const DefaultChunkSize = 100

type BatchDuplicate struct {
	OrderCode string `json:"order_code"`
	Rows      []int  `json:"rows"`
}

// DuplicateReport объединяет повторы внутри файла и коды, которые уже сохранены.
type DuplicateReport struct {
	InBatch  []BatchDuplicate `json:"in_batch"`
	Existing []BatchDuplicate `json:"existing"`
}

func (r *DuplicateReport) Empty() bool {
	return r == nil || (len(r.InBatch) == 0 && len(r.Existing) == 0)
}

// CodeLookup возвращает коды из списка, которые уже есть в базе.
type CodeLookup func(ctx context.Context, codes []string) ([]string, error)

// FindDuplicates ищет повторяющиеся коды заказов. Запрос к базе идёт частями по
// chunkSize кодов; ошибка любой части прерывает проверку целиком.
func FindDuplicates(ctx context.Context, records []Record, lookup CodeLookup, chunkSize int) (*DuplicateReport, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	rowsByCode := map[string][]int{}
	codes := []string{}
	for _, record := range records {
		if _, seen := rowsByCode[record.OrderCode]; !seen {
			codes = append(codes, record.OrderCode)
		}
		rowsByCode[record.OrderCode] = append(rowsByCode[record.OrderCode], record.Row)
	}

	report := &DuplicateReport{InBatch: []BatchDuplicate{}, Existing: []BatchDuplicate{}}
	for _, code := range codes {
		if rows := rowsByCode[code]; len(rows) > 1 {
			report.InBatch = append(report.InBatch, BatchDuplicate{OrderCode: code, Rows: rows})
		}
	}

	existing := map[string]bool{}
	for chunk := range slices.Chunk(codes, chunkSize) {
		found, err := lookup(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("check existing order codes: %w", err)
		}
		for _, code := range found {
			existing[code] = true
		}
	}
	for _, code := range codes {
		if existing[code] {
			report.Existing = append(report.Existing, BatchDuplicate{OrderCode: code, Rows: rowsByCode[code]})
		}
	}
	return report, nil
}
