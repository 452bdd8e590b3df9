package formance

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"creator-ledger-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"50", "5000"},
		{"-12.34", "1234"},
		{"0.01", "1"},
		{"31.005", "3101"}, // rounded half away from zero
	}
	for _, tt := range tests {
		if got := toMinorUnits(decimal.RequireFromString(tt.amount)); got != tt.want {
			t.Errorf("toMinorUnits(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestCounterpartyFor(t *testing.T) {
	tests := []struct {
		name     string
		txType   models.TransactionType
		metadata string
		want     string
	}{
		{"campaign earning", models.TransactionTypeEarning, `{"campaign_id":"C1"}`, "campaign_C1"},
		{"team commission", models.TransactionTypeEarning, `{"team_id":"T1","source_type":"team_commission"}`, "team_T1"},
		{"bare earning", models.TransactionTypeEarning, `{}`, "earnings"},
		{"referral", models.TransactionTypeReferral, `{"referral_id":"R1"}`, "referrals"},
		{"withdrawal", models.TransactionTypeWithdrawal, `{}`, "payouts"},
		{"transfer", models.TransactionTypeTransferSent, `{}`, "transfers"},
		{"correction", models.TransactionTypeBalanceCorrection, `{"original_metadata":{"campaign_id":"C1"}}`, "corrections"},
	}
	for _, tt := range tests {
		tx := &models.Transaction{Type: tt.txType, Metadata: json.RawMessage(tt.metadata)}
		if got := counterpartyFor(tx); got != tt.want {
			t.Errorf("%s: counterpartyFor = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestVolumeBalance(t *testing.T) {
	vols := map[string]shared.V2Volume{
		usdAsset: {Input: big.NewInt(5000), Output: big.NewInt(1250)},
	}
	if got := volumeBalance(vols, usdAsset); got.Int64() != 3750 {
		t.Errorf("expected 3750, got %s", got)
	}

	vols[usdAsset] = shared.V2Volume{Input: big.NewInt(1), Output: big.NewInt(1), Balance: big.NewInt(42)}
	if got := volumeBalance(vols, usdAsset); got.Int64() != 42 {
		t.Errorf("expected explicit balance 42, got %s", got)
	}

	if got := volumeBalance(vols, "EUR/2"); got != nil {
		t.Errorf("expected nil for missing asset, got %s", got)
	}
}

func TestBigIntToDecimal(t *testing.T) {
	result := bigIntToDecimal(big.NewInt(3101))
	if !result.Equal(decimal.RequireFromString("31.01")) {
		t.Errorf("expected 31.01, got %s", result.String())
	}

	result = bigIntToDecimal(nil)
	if !result.IsZero() {
		t.Errorf("expected 0, got %s", result.String())
	}
}

func TestErrorClassifiers(t *testing.T) {
	if isConflictError(nil) || isNotFoundError(nil) || isAlreadyRevertedError(nil) {
		t.Error("nil should not match any Formance error code")
	}
	if isConflictError(errors.New("boom")) {
		t.Error("plain errors are not Formance conflicts")
	}
}
