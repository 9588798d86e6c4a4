package importer

import (
	"fmt"
	"strings"

	"github.com/Bessima/orderflow/internal/models"
)

// ValidatedRow — либо ValidRow, либо InvalidRow.
type ValidatedRow interface {
	validated()
}

type ValidRow struct {
	Record
}

type InvalidRow struct {
	Record
	Reasons []string `json:"reasons"`
	// MissingProduct заполнен, если товар строки не найден в каталоге.
	MissingProduct string `json:"missing_product,omitempty"`
}

func (ValidRow) validated()   {}
func (InvalidRow) validated() {}

func (r InvalidRow) Reason() string {
	return strings.Join(r.Reasons, "; ")
}

// ProductIndex — активные товары пользователя по нормализованному имени.
type ProductIndex map[string]models.Product

func NewProductIndex(products []models.Product) ProductIndex {
	index := ProductIndex{}
	for _, product := range products {
		key := product.NormalizedName
		if key == "" {
			key = Normalize(product.Name)
		}
		index[key] = product
	}
	return index
}

func (index ProductIndex) Resolve(name string) (models.Product, bool) {
	product, ok := index[Normalize(name)]
	return product, ok
}

// Validate проверяет обязательные поля, сумму и наличие товара в каталоге.
// Товар ищется только по точному совпадению нормализованного имени.
func Validate(records []Record, index ProductIndex) []ValidatedRow {
	rows := make([]ValidatedRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, validateOne(record, index))
	}
	return rows
}

func validateOne(record Record, index ProductIndex) ValidatedRow {
	reasons := append([]string{}, record.Problems...)

	required := []struct {
		title string
		value string
	}{
		{"Order Code", record.OrderCode},
		{"Customer Name", record.CustomerName},
		{"Phone", record.Phone},
		{"Address", record.Address},
		{"Product", record.ProductName},
	}
	for _, field := range required {
		if field.value == "" {
			reasons = append(reasons, fmt.Sprintf("%s is required", field.title))
		}
	}
	if !record.Amount.IsPositive() && !hasAmountProblem(record.Problems) {
		reasons = append(reasons, "Amount must be greater than zero")
	}

	missing := ""
	if record.ProductName != "" {
		if product, ok := index.Resolve(record.ProductName); ok {
			id := product.ID
			record.ProductID = &id
			record.ProductName = product.Name
		} else {
			record.ProductID = nil
			missing = record.ProductName
			reasons = append(reasons, fmt.Sprintf("Product not found: %s", record.ProductName))
		}
	}

	if len(reasons) > 0 {
		return InvalidRow{Record: record, Reasons: reasons, MissingProduct: missing}
	}
	return ValidRow{Record: record}
}

func hasAmountProblem(problems []string) bool {
	for _, problem := range problems {
		if strings.HasPrefix(problem, "invalid amount") {
			return true
		}
	}
	return false
}

// Split разделяет результат Validate, сохраняя порядок строк.
func Split(rows []ValidatedRow) ([]Record, []InvalidRow) {
	valid := []Record{}
	invalid := []InvalidRow{}
	for _, row := range rows {
		switch r := row.(type) {
		case ValidRow:
			valid = append(valid, r.Record)
		case InvalidRow:
			invalid = append(invalid, r)
		}
	}
	return valid, invalid
}

// MissingProducts возвращает различающиеся имена ненайденных товаров в порядке появления.
func MissingProducts(invalid []InvalidRow) []string {
	seen := map[string]bool{}
	names := []string{}
	for _, row := range invalid {
		if row.MissingProduct == "" {
			continue
		}
		key := Normalize(row.MissingProduct)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, row.MissingProduct)
	}
	return names
}
