package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from ClaimStatus
		to   ClaimStatus
		want bool
	}{
		{"pending to processing", ClaimStatusPending, ClaimStatusProcessing, true},
		{"processing to completed", ClaimStatusProcessing, ClaimStatusCompleted, true},
		{"processing to failed", ClaimStatusProcessing, ClaimStatusFailed, true},
		{"pending to completed skips processing", ClaimStatusPending, ClaimStatusCompleted, false},
		{"completed is terminal", ClaimStatusCompleted, ClaimStatusProcessing, false},
		{"failed is terminal", ClaimStatusFailed, ClaimStatusPending, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestWithdrawalStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from WithdrawalStatus
		to   WithdrawalStatus
		want bool
	}{
		{"submitted to processing", WithdrawalStatusSubmitted, WithdrawalStatusProcessing, true},
		{"submitted to cancelled", WithdrawalStatusSubmitted, WithdrawalStatusCancelled, true},
		{"processing to completed", WithdrawalStatusProcessing, WithdrawalStatusCompleted, true},
		{"processing to failed", WithdrawalStatusProcessing, WithdrawalStatusFailed, true},
		{"processing to cancelled not allowed", WithdrawalStatusProcessing, WithdrawalStatusCancelled, false},
		{"completed is terminal", WithdrawalStatusCompleted, WithdrawalStatusSubmitted, false},
		{"cancelled is terminal", WithdrawalStatusCancelled, WithdrawalStatusProcessing, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestStatusNumericCodes(t *testing.T) {
	// The dashboard contract pins these values.
	assert.Equal(t, 0, int(ClaimStatusPending))
	assert.Equal(t, 1, int(ClaimStatusCompleted))
	assert.Equal(t, 2, int(ClaimStatusProcessing))
	assert.Equal(t, -3, int(ClaimStatusFailed))

	assert.Equal(t, 0, int(WithdrawalStatusSubmitted))
	assert.Equal(t, 1, int(WithdrawalStatusCompleted))
	assert.Equal(t, 2, int(WithdrawalStatusProcessing))
	assert.Equal(t, -1, int(WithdrawalStatusCancelled))
	assert.Equal(t, -3, int(WithdrawalStatusFailed))

	assert.Equal(t, 0, int(MatchStatusUnmatched))
	assert.Equal(t, 1, int(MatchStatusMatched))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, ClaimStatusPending.IsTerminal())
	assert.False(t, ClaimStatusProcessing.IsTerminal())
	assert.True(t, ClaimStatusCompleted.IsTerminal())
	assert.True(t, ClaimStatusFailed.IsTerminal())

	assert.False(t, WithdrawalStatusSubmitted.IsTerminal())
	assert.True(t, WithdrawalStatusCancelled.IsTerminal())
	assert.True(t, WithdrawalStatusCompleted.IsTerminal())
	assert.True(t, WithdrawalStatusFailed.IsTerminal())
}
