// Package lifecycle описывает допустимые переходы статусов заказа.
package lifecycle

import (
	"fmt"
	"slices"

	"github.com/Bessima/orderflow/internal/models"
)

type Action string

const (
	Approve             Action = "approve"
	Reject              Action = "reject"
	RequireVerification Action = "require_verification"
	SendConfirmation    Action = "send_confirmation"
	CustomerConfirm     Action = "customer_confirm"
	CustomerCancel      Action = "customer_cancel"
	MarkPaid            Action = "mark_paid"
	Ship                Action = "ship"
	Complete            Action = "complete"
	MarkUnreachable     Action = "mark_unreachable"
)

// Колонки таблицы orders, которые заполняются при переходе.
const (
	ApprovedAtColumn          = "approved_at"
	ConfirmationSentAtColumn  = "confirmation_sent_at"
	CustomerConfirmedAtColumn = "customer_confirmed_at"
	CancelledAtColumn         = "cancelled_at"
	PaidAtColumn              = "paid_at"
	ShippedAtColumn           = "shipped_at"
	CompletedAtColumn         = "completed_at"

	RejectionReasonColumn    = "rejection_reason"
	VerificationReasonColumn = "verification_reason"
	CancellationReasonColumn = "cancellation_reason"
)

type Rule struct {
	Action          Action
	From            []models.OrderStatus
	To              models.OrderStatus
	TimestampColumn string
	ReasonColumn    string
}

var rules = map[Action]Rule{
	Approve: {
		Action:          Approve,
		From:            []models.OrderStatus{models.PendingReviewStatus, models.VerificationRequiredStatus},
		To:              models.OrderApprovedStatus,
		TimestampColumn: ApprovedAtColumn,
	},
	Reject: {
		Action:       Reject,
		From:         []models.OrderStatus{models.PendingReviewStatus, models.VerificationRequiredStatus},
		To:           models.OrderRejectedStatus,
		ReasonColumn: RejectionReasonColumn,
	},
	RequireVerification: {
		Action:       RequireVerification,
		From:         []models.OrderStatus{models.PendingReviewStatus},
		To:           models.VerificationRequiredStatus,
		ReasonColumn: VerificationReasonColumn,
	},
	SendConfirmation: {
		Action:          SendConfirmation,
		From:            []models.OrderStatus{models.OrderApprovedStatus, models.VerificationRequiredStatus},
		To:              models.OrderConfirmationSentStatus,
		TimestampColumn: ConfirmationSentAtColumn,
	},
	CustomerConfirm: {
		Action:          CustomerConfirm,
		From:            []models.OrderStatus{models.OrderConfirmationSentStatus},
		To:              models.CustomerConfirmedStatus,
		TimestampColumn: CustomerConfirmedAtColumn,
	},
	CustomerCancel: {
		Action:          CustomerCancel,
		From:            []models.OrderStatus{models.CustomerConfirmedStatus},
		To:              models.CustomerCancelledStatus,
		TimestampColumn: CancelledAtColumn,
		ReasonColumn:    CancellationReasonColumn,
	},
	MarkPaid: {
		Action:          MarkPaid,
		From:            []models.OrderStatus{models.CustomerConfirmedStatus},
		To:              models.OrderPaidStatus,
		TimestampColumn: PaidAtColumn,
	},
	Ship: {
		Action:          Ship,
		From:            []models.OrderStatus{models.OrderPaidStatus},
		To:              models.DeliveringStatus,
		TimestampColumn: ShippedAtColumn,
	},
	Complete: {
		Action:          Complete,
		From:            []models.OrderStatus{models.DeliveringStatus},
		To:              models.CompletedStatus,
		TimestampColumn: CompletedAtColumn,
	},
	MarkUnreachable: {
		Action: MarkUnreachable,
		From:   []models.OrderStatus{models.VerificationRequiredStatus},
		To:     models.CustomerUnreachableStatus,
	},
}

var terminal = []models.OrderStatus{
	models.OrderRejectedStatus,
	models.CustomerCancelledStatus,
	models.CompletedStatus,
	models.CustomerUnreachableStatus,
}

func ParseAction(value string) (Action, error) {
	action := Action(value)
	if _, ok := rules[action]; !ok {
		return "", fmt.Errorf("unknown action %q", value)
	}
	return action, nil
}

func RuleFor(action Action) (Rule, bool) {
	rule, ok := rules[action]
	return rule, ok
}

func (rule Rule) Allows(status models.OrderStatus) bool {
	return slices.Contains(rule.From, status)
}

func CanApply(status models.OrderStatus, action Action) bool {
	rule, ok := rules[action]
	return ok && rule.Allows(status)
}

func IsTerminal(status models.OrderStatus) bool {
	return slices.Contains(terminal, status)
}

// InitialStatus — заказы с предоплатой сразу считаются оплаченными.
func InitialStatus(method models.PaymentMethod) models.OrderStatus {
	if method.IsCOD() {
		return models.PendingReviewStatus
	}
	return models.OrderPaidStatus
}

type FollowUp string

const (
	PaymentLinkFollowUp        FollowUp = "payment_link"
	ManualConfirmationFollowUp FollowUp = "manual_confirmation"
)

// FollowUpFor подсказывает, что делать после одобрения. Это только рекомендация.
func FollowUpFor(level models.RiskLevel) FollowUp {
	if level == models.RiskLow {
		return PaymentLinkFollowUp
	}
	return ManualConfirmationFollowUp
}

// SkipMessage — текст для повторного или неуместного действия.
func SkipMessage(action Action, status models.OrderStatus) string {
	if IsTerminal(status) {
		return fmt.Sprintf("order is already closed with status %s, %s skipped", status, action)
	}
	return fmt.Sprintf("order has status %s, %s is not applicable", status, action)
}
