package importer

import (
	"slices"

	"github.com/agnivade/levenshtein"
)

type Field string

const (
	FieldOrderCode     Field = "order_code"
	FieldCustomerName  Field = "customer_name"
	FieldPhone         Field = "phone"
	FieldAddress       Field = "address"
	FieldProduct       Field = "product"
	FieldAmount        Field = "amount"
	FieldPaymentMethod Field = "payment_method"
	FieldProvince      Field = "province"
	FieldDistrict      Field = "district"
	FieldWard          Field = "ward"
	FieldDiscount      Field = "discount"
	FieldShippingFee   Field = "shipping_fee"
	FieldGender        Field = "gender"
	FieldAge           Field = "age"
	FieldChannel       Field = "channel"
	FieldSource        Field = "source"
	FieldNote          Field = "note"
)

type fieldSpec struct {
	field    Field
	title    string
	required bool
	aliases  []string
}

// Алиасы записаны уже в нормализованном виде.
var fieldSpecs = []fieldSpec{
	{FieldOrderCode, "Order Code", true, []string{"order code", "order id", "order no", "ma don hang", "ma don"}},
	{FieldCustomerName, "Customer Name", true, []string{"customer name", "customer", "ten khach hang", "khach hang", "ho ten"}},
	{FieldPhone, "Phone", true, []string{"phone", "phone number", "so dien thoai", "dien thoai", "sdt"}},
	{FieldAddress, "Address", true, []string{"address", "shipping address", "dia chi", "dia chi giao hang"}},
	{FieldProduct, "Product", true, []string{"product", "product name", "san pham", "ten san pham"}},
	{FieldAmount, "Amount", true, []string{"amount", "price", "total", "so tien", "gia tri don hang", "thanh tien"}},
	{FieldPaymentMethod, "Payment Method", false, []string{"payment method", "payment", "phuong thuc thanh toan", "thanh toan"}},
	{FieldProvince, "Province", false, []string{"province", "city", "tinh", "tinh thanh pho", "thanh pho"}},
	{FieldDistrict, "District", false, []string{"district", "quan huyen", "quan", "huyen"}},
	{FieldWard, "Ward", false, []string{"ward", "phuong xa", "phuong", "xa"}},
	{FieldDiscount, "Discount", false, []string{"discount", "giam gia", "chiet khau"}},
	{FieldShippingFee, "Shipping Fee", false, []string{"shipping fee", "shipping", "phi van chuyen", "phi ship"}},
	{FieldGender, "Gender", false, []string{"gender", "sex", "gioi tinh"}},
	{FieldAge, "Age", false, []string{"age", "tuoi", "do tuoi"}},
	{FieldChannel, "Channel", false, []string{"channel", "sales channel", "kenh", "kenh ban"}},
	{FieldSource, "Source", false, []string{"source", "utm source", "nguon", "nguon don"}},
	{FieldNote, "Note", false, []string{"note", "notes", "comment", "ghi chu"}},
}

// MisnamedHeader — заголовок, похожий на известный, но не совпадающий с ним.
type MisnamedHeader struct {
	Header   string `json:"header"`
	Column   int    `json:"column"`
	Expected string `json:"expected"`
}

// AmbiguousHeader — второй заголовок, совпавший с уже занятым полем.
type AmbiguousHeader struct {
	Header      string `json:"header"`
	Column      int    `json:"column"`
	Field       string `json:"field"`
	FirstColumn int    `json:"first_column"`
}

type HeaderReport struct {
	Missing   []string          `json:"missing"`
	Misnamed  []MisnamedHeader  `json:"misnamed"`
	Ambiguous []AmbiguousHeader `json:"ambiguous,omitempty"`
}

func (r *HeaderReport) Empty() bool {
	return r == nil || (len(r.Missing) == 0 && len(r.Misnamed) == 0 && len(r.Ambiguous) == 0)
}

// Columns — номер колонки для каждого найденного поля.
type Columns map[Field]int

// MatchHeaders сопоставляет заголовки файла с полями заказа. Если обязательное поле
// не найдено, заголовок похож на известный, но написан иначе, или два заголовка
// указывают на одно поле, возвращает отчёт.
func MatchHeaders(headers []string) (Columns, *HeaderReport) {
	columns := Columns{}
	report := &HeaderReport{}

	for i, header := range headers {
		normalized := normalizeHeader(header)
		if normalized == "" {
			continue
		}
		if spec, ok := exactMatch(normalized); ok {
			if first, taken := columns[spec.field]; taken {
				report.Ambiguous = append(report.Ambiguous, AmbiguousHeader{
					Header:      header,
					Column:      i + 1,
					Field:       spec.title,
					FirstColumn: first + 1,
				})
				continue
			}
			columns[spec.field] = i
			continue
		}
		if spec, ok := closeMatch(normalized); ok {
			report.Misnamed = append(report.Misnamed, MisnamedHeader{Header: header, Column: i + 1, Expected: spec.title})
		}
	}

	for _, spec := range fieldSpecs {
		if _, ok := columns[spec.field]; !ok && spec.required {
			report.Missing = append(report.Missing, spec.title)
		}
	}

	if report.Empty() {
		return columns, nil
	}
	return columns, report
}

// RequiredTitles возвращает названия обязательных колонок в порядке шаблона.
func RequiredTitles() []string {
	titles := []string{}
	for _, spec := range fieldSpecs {
		if spec.required {
			titles = append(titles, spec.title)
		}
	}
	return titles
}

func exactMatch(normalized string) (fieldSpec, bool) {
	for _, spec := range fieldSpecs {
		if slices.Contains(spec.aliases, normalized) {
			return spec, true
		}
	}
	return fieldSpec{}, false
}

func closeMatch(normalized string) (fieldSpec, bool) {
	best, bestDistance := fieldSpec{}, -1
	for _, spec := range fieldSpecs {
		for _, alias := range spec.aliases {
			distance := levenshtein.ComputeDistance(normalized, alias)
			if distance > allowedDistance(alias) {
				continue
			}
			if bestDistance == -1 || distance < bestDistance {
				best, bestDistance = spec, distance
			}
		}
	}
	return best, bestDistance > 0
}

func allowedDistance(alias string) int {
	switch n := len([]rune(alias)); {
	case n <= 3:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}
