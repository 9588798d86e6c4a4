package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
	ErrEmptyFile         = errors.New("file has no header row")
)

// RawRow — строка файла как есть. Number совпадает с номером строки в таблице.
type RawRow struct {
	Number int      `json:"number"`
	Cells  []string `json:"cells"`
}

type Sheet struct {
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// Parse читает первый лист файла. Первая строка — заголовки, пустые строки пропускаются.
func Parse(name string, reader io.Reader) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(reader)
	case ".csv":
		records, err = readCSV(reader)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return newSheet(records)
}

func readWorkbook(reader io.Reader) ([][]string, error) {
	book, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(reader io.Reader) ([][]string, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func newSheet(records [][]string) (*Sheet, error) {
	if len(records) == 0 || isBlank(records[0]) {
		return nil, ErrEmptyFile
	}

	sheet := &Sheet{Headers: trimAll(records[0]), Rows: []RawRow{}}
	for i, cells := range records[1:] {
		if isBlank(cells) {
			continue
		}
		sheet.Rows = append(sheet.Rows, RawRow{Number: i + 2, Cells: trimAll(cells)})
	}
	return sheet, nil
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
