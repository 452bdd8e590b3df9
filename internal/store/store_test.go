package store

import (
	"errors"
	"testing"
)

func TestSpecificErrorsWrapTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category error
	}{
		{"transaction not found", ErrTransactionNotFound, ErrNotFound},
		{"wallet not found", ErrWalletNotFound, ErrNotFound},
		{"campaign not found", ErrCampaignNotFound, ErrNotFound},
		{"boost not found", ErrBoostNotFound, ErrNotFound},
		{"already reversed", ErrAlreadyReversed, ErrAlreadyProcessed},
		{"invalid commission rate", ErrInvalidCommissionRate, ErrValidationFailed},
		{"invalid signature", ErrInvalidSignature, ErrValidationFailed},
		{"invalid amount", ErrInvalidAmount, ErrValidationFailed},
		{"not reversible", ErrNotReversible, ErrValidationFailed},
		{"wallet update failed", ErrWalletUpdateFailed, ErrPersistenceFailed},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.category) {
			t.Errorf("%s: expected %v to wrap %v", tt.name, tt.err, tt.category)
		}
	}

	if errors.Is(ErrWalletNotFound, ErrAlreadyProcessed) {
		t.Error("wallet not found must not be classified as already processed")
	}
}

func TestLedgerStoreInterfaceExists(t *testing.T) {
	var _ LedgerStore
	_ = WalletDelta{}
	_ = ReverseParams{}
}
