package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalApproval is a customer withdrawal request from submission to
// payment. Approval evidence (channel, bank, voucher, remark) is all-or-
// nothing: a Completed row always carries all four.
type WithdrawalApproval struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	Currency       Currency
	Amount         decimal.Decimal
	Recipient      string
	Purpose        string
	Status         WithdrawalStatus
	PaymentChannel *string
	PaymentBank    *string
	VoucherURL     *string
	ApprovalRemark *string
	RejectReason   *string
	FeeAmount      *decimal.Decimal
	FeeCurrency    *Currency
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

type WithdrawalAction string

const (
	WithdrawalActionApprove WithdrawalAction = "approve"
	WithdrawalActionReject  WithdrawalAction = "reject"
)

func (a WithdrawalAction) IsValid() bool {
	return a == WithdrawalActionApprove || a == WithdrawalActionReject
}

// WithdrawalFilter narrows ListApprovals. Keyword matches customer id and
// recipient.
type WithdrawalFilter struct {
	Status    *WithdrawalStatus
	StartTime *time.Time
	EndTime   *time.Time
	Keyword   string
}
