package formance

import (
	"context"
	"errors"
	"fmt"

	"creator-ledger-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

const (
	defaultLedgerName = "creator-ledger"

	// Every amount is mirrored in USD cents.
	usdAsset     = "USD/2"
	usdPrecision = 2
)

// Service mirrors completed wallet transactions into a Formance Stack ledger. The local
// database stays the source of truth.
type Service struct {
	client *v3.Formance
	ledger string
}

// NewService connects to the stack and creates the mirror ledger on first use.
func NewService(ctx context.Context, cfg models.FormanceConfig) (*Service, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = defaultLedgerName
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	svc := &Service{client: client, ledger: cfg.LedgerName}

	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance mirror initialized", zap.String("ledger", cfg.LedgerName))
	return svc, nil
}

func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "creator-ledger",
			},
		},
	})
	if hasErrorCode(err, shared.V2ErrorsEnumLedgerAlreadyExists) {
		zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
		return nil
	}
	if err != nil {
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

func (s *Service) Close() {}

func hasErrorCode(err error, code shared.V2ErrorsEnum) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == code
}

// Duplicate reference.
func isConflictError(err error) bool {
	return hasErrorCode(err, shared.V2ErrorsEnumConflict)
}

func isNotFoundError(err error) bool {
	return hasErrorCode(err, shared.V2ErrorsEnumNotFound)
}

func isAlreadyRevertedError(err error) bool {
	return hasErrorCode(err, shared.V2ErrorsEnumAlreadyRevert)
}
