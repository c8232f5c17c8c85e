package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Channel string

const (
	ChannelWire  Channel = "wire"
	ChannelFPS   Channel = "fps"
	ChannelSWIFT Channel = "swift"
	ChannelOther Channel = "other"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelWire, ChannelFPS, ChannelSWIFT, ChannelOther:
		return true
	}
	return false
}

// DepositClaim is an unattributed bank credit awaiting attribution to a
// customer. Rows are never deleted; terminal claims stay as audit trail.
type DepositClaim struct {
	ID                uuid.UUID
	ReferenceNo       *string
	Channel           Channel
	Currency          Currency
	Amount            decimal.Decimal
	AccountHolderName string
	Status            ClaimStatus
	MatchStatus       MatchStatus
	CustomerID        *uuid.UUID
	Remark            *string
	VoucherURL        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

type ClaimAction string

const (
	ClaimActionApprove ClaimAction = "approve"
	ClaimActionReject  ClaimAction = "reject"
)

func (a ClaimAction) IsValid() bool {
	return a == ClaimActionApprove || a == ClaimActionReject
}

// ClaimFilter narrows ListClaims. Keyword matches reference number, payer
// name and remark.
type ClaimFilter struct {
	Status      *ClaimStatus
	MatchStatus *MatchStatus
	StartTime   *time.Time
	EndTime     *time.Time
	Keyword     string
}

type BatchClaimResult struct {
	Succeeded []uuid.UUID
	Failed    []BatchClaimFailure
}

type BatchClaimFailure struct {
	ID     uuid.UUID
	Reason string
}
