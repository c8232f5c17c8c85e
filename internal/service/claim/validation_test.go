package claim

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiatops/custody-backoffice/internal/domain"
)

func TestValidateSingle(t *testing.T) {
	tests := []struct {
		name    string
		req     SingleClaimRequest
		wantErr error
	}{
		{
			name: "valid approve",
			req:  SingleClaimRequest{Action: domain.ClaimActionApprove, Remark: "matched by ops"},
		},
		{
			name: "valid reject",
			req:  SingleClaimRequest{Action: domain.ClaimActionReject, Remark: "unidentified payer"},
		},
		{
			name:    "unknown action",
			req:     SingleClaimRequest{Action: "escalate", Remark: "x"},
			wantErr: domain.ErrValidationFailed,
		},
		{
			name:    "empty remark",
			req:     SingleClaimRequest{Action: domain.ClaimActionApprove, Remark: ""},
			wantErr: domain.ErrValidationFailed,
		},
		{
			name:    "whitespace remark",
			req:     SingleClaimRequest{Action: domain.ClaimActionApprove, Remark: "   "},
			wantErr: domain.ErrValidationFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSingle(tc.req)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResolveCustomer(t *testing.T) {
	matched := uuid.New()
	supplied := uuid.New()

	t.Run("existing match wins over supplied id", func(t *testing.T) {
		c := &domain.DepositClaim{CustomerID: &matched}
		got, err := resolveCustomer(c, &supplied)
		require.NoError(t, err)
		assert.Equal(t, matched, got)
	})

	t.Run("supplied id fills the gap", func(t *testing.T) {
		got, err := resolveCustomer(&domain.DepositClaim{}, &supplied)
		require.NoError(t, err)
		assert.Equal(t, supplied, got)
	})

	t.Run("no customer anywhere", func(t *testing.T) {
		_, err := resolveCustomer(&domain.DepositClaim{}, nil)
		require.ErrorIs(t, err, domain.ErrMissingCustomer)
	})
}
