// Package risk задаёт интерфейс оценки риска мошенничества для заказов с оплатой при получении.
package risk

import (
	"regexp"
	"strings"

	"github.com/Bessima/orderflow/internal/models"
	"github.com/shopspring/decimal"
)

type Input struct {
	PaymentMethod models.PaymentMethod
	Amount        decimal.Decimal
	Phone         string
	Address       string
	PastStatuses  []models.OrderStatus
	ProductName   string
}

type Assessment struct {
	Score   int              `json:"score"`
	Level   models.RiskLevel `json:"level"`
	Reasons []string         `json:"reasons"`
}

type Evaluator interface {
	Evaluate(input Input) Assessment
}

func LevelForScore(score int) models.RiskLevel {
	switch {
	case score <= 30:
		return models.RiskLow
	case score <= 70:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,12}$`)

var highAmount = decimal.NewFromInt(5_000_000)

// Heuristic — простая оценка по истории телефона, сумме и полноте адреса.
type Heuristic struct{}

func (Heuristic) Evaluate(input Input) Assessment {
	score := 10
	var reasons []string

	var failed, completed int
	for _, status := range input.PastStatuses {
		switch status {
		case models.CustomerCancelledStatus, models.CustomerUnreachableStatus, models.OrderRejectedStatus:
			failed++
		case models.CompletedStatus:
			completed++
		}
	}
	if failed > 0 {
		score += 20 * failed
		reasons = append(reasons, "customer has failed orders in history")
	}
	if completed > 0 {
		score -= 5 * completed
		reasons = append(reasons, "customer has completed orders")
	}
	if len(input.PastStatuses) == 0 {
		score += 10
		reasons = append(reasons, "first order for this phone")
	}

	if input.Amount.GreaterThan(highAmount) {
		score += 25
		reasons = append(reasons, "order amount is unusually high")
	}

	phone := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(input.Phone)
	if !phonePattern.MatchString(phone) {
		score += 30
		reasons = append(reasons, "phone number looks invalid")
	}

	if len(strings.Fields(input.Address)) < 3 {
		score += 15
		reasons = append(reasons, "address is incomplete")
	}

	score = min(max(score, 0), 100)
	return Assessment{Score: score, Level: LevelForScore(score), Reasons: reasons}
}
