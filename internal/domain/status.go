package domain

// Status codes are part of the dashboard wire contract and must keep their
// numeric values.

type ClaimStatus int

const (
	ClaimStatusPending    ClaimStatus = 0
	ClaimStatusCompleted  ClaimStatus = 1
	ClaimStatusProcessing ClaimStatus = 2
	ClaimStatusFailed     ClaimStatus = -3
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimStatusPending:
		return "pending"
	case ClaimStatusCompleted:
		return "completed"
	case ClaimStatusProcessing:
		return "processing"
	case ClaimStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s ClaimStatus) IsValid() bool {
	switch s {
	case ClaimStatusPending, ClaimStatusCompleted, ClaimStatusProcessing, ClaimStatusFailed:
		return true
	}
	return false
}

func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimStatusCompleted || s == ClaimStatusFailed
}

var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusPending:    {ClaimStatusProcessing},
	ClaimStatusProcessing: {ClaimStatusCompleted, ClaimStatusFailed},
}

func (s ClaimStatus) CanTransition(to ClaimStatus) bool {
	for _, t := range claimTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type WithdrawalStatus int

const (
	WithdrawalStatusSubmitted  WithdrawalStatus = 0
	WithdrawalStatusCompleted  WithdrawalStatus = 1
	WithdrawalStatusProcessing WithdrawalStatus = 2
	WithdrawalStatusCancelled  WithdrawalStatus = -1
	WithdrawalStatusFailed     WithdrawalStatus = -3
)

func (s WithdrawalStatus) String() string {
	switch s {
	case WithdrawalStatusSubmitted:
		return "submitted"
	case WithdrawalStatusCompleted:
		return "completed"
	case WithdrawalStatusProcessing:
		return "processing"
	case WithdrawalStatusCancelled:
		return "cancelled"
	case WithdrawalStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalStatusSubmitted, WithdrawalStatusCompleted, WithdrawalStatusProcessing,
		WithdrawalStatusCancelled, WithdrawalStatusFailed:
		return true
	}
	return false
}

func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed || s == WithdrawalStatusCancelled
}

// Cancelled is reachable from Submitted only; it is a customer-initiated
// transition, not an approval outcome.
var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalStatusSubmitted:  {WithdrawalStatusProcessing, WithdrawalStatusCancelled},
	WithdrawalStatusProcessing: {WithdrawalStatusCompleted, WithdrawalStatusFailed},
}

func (s WithdrawalStatus) CanTransition(to WithdrawalStatus) bool {
	for _, t := range withdrawalTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type MatchStatus int

const (
	MatchStatusUnmatched MatchStatus = 0
	MatchStatusMatched   MatchStatus = 1
)

func (s MatchStatus) String() string {
	if s == MatchStatusMatched {
		return "matched"
	}
	return "unmatched"
}

func (s MatchStatus) IsValid() bool {
	return s == MatchStatusUnmatched || s == MatchStatusMatched
}
