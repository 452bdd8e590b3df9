package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creator-ledger-go/internal/commission"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func intArg(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func stringPtr(s string) *string { return &s }

func (s *Service) CreateSellerProfile(ctx context.Context, profile models.SellerProfile) (*models.SellerProfile, error) {
	if profile.Id == "" {
		profile.Id = uuid.New().String()
	}
	if _, err := s.GetUserById(ctx, profile.UserId); err != nil {
		return nil, err
	}
	platform, community := s.resolver.SellerPairAfter(&profile, "", nil)
	if err := s.resolver.Validate(platform, community); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, queryInsertSellerProfile, profile.Id, profile.UserId,
		intArg(profile.CustomPlatformFeeBps), intArg(profile.CustomCommunityFeeBps), profile.CommissionNotes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert seller profile: %w", err)
	}
	return &profile, nil
}

func (s *Service) GetSellerProfile(ctx context.Context, sellerId string) (*models.SellerProfile, error) {
	return getSellerProfile(ctx, s.db, sellerId)
}

func getSellerProfile(ctx context.Context, q dbtx, sellerId string) (*models.SellerProfile, error) {
	var p models.SellerProfile
	var platform, community sql.NullInt64
	var updatedAt sql.NullTime
	var updatedBy sql.NullString
	err := q.QueryRowContext(ctx, queryGetSellerProfile, sellerId).
		Scan(&p.Id, &p.UserId, &platform, &community, &p.CommissionNotes, &updatedAt, &updatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrSellerNotFound, sellerId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seller profile: %w", err)
	}

	p.CustomPlatformFeeBps = intPtr(platform)
	p.CustomCommunityFeeBps = intPtr(community)
	if updatedAt.Valid {
		p.CommissionUpdatedAt = &updatedAt.Time
	}
	p.CommissionUpdatedBy = updatedBy.String
	return &p, nil
}

func (s *Service) CreateCommunityConfig(ctx context.Context, cfg models.CommunityConfig) (*models.CommunityConfig, error) {
	if cfg.Id == "" {
		cfg.Id = uuid.New().String()
	}
	platform, community := s.resolver.CommunityPairAfter(&cfg, "", nil)
	if err := s.resolver.Validate(platform, community); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, queryInsertCommunityConfig, cfg.Id, cfg.Name,
		intArg(cfg.CommunityFeeBps), intArg(cfg.CustomPlatformFeeBps))
	if err != nil {
		return nil, fmt.Errorf("failed to insert community config: %w", err)
	}
	return &cfg, nil
}

func (s *Service) GetCommunityConfig(ctx context.Context, communityId string) (*models.CommunityConfig, error) {
	return getCommunityConfig(ctx, s.db, communityId)
}

func getCommunityConfig(ctx context.Context, q dbtx, communityId string) (*models.CommunityConfig, error) {
	var c models.CommunityConfig
	var fee, platform sql.NullInt64
	var updatedAt sql.NullTime
	var updatedBy sql.NullString
	err := q.QueryRowContext(ctx, queryGetCommunityConfig, communityId).
		Scan(&c.Id, &c.Name, &fee, &platform, &updatedAt, &updatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrCommunityNotFound, communityId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get community config: %w", err)
	}

	c.CommunityFeeBps = intPtr(fee)
	c.CustomPlatformFeeBps = intPtr(platform)
	if updatedAt.Valid {
		c.CommissionUpdatedAt = &updatedAt.Time
	}
	c.CommissionUpdatedBy = updatedBy.String
	return &c, nil
}

func validateRateParams(params store.SetRateParams) error {
	if params.TargetId == "" {
		return fmt.Errorf("%w: target id is required", store.ErrValidationFailed)
	}
	if !commission.ValidFeeType(params.FeeType) {
		return fmt.Errorf("%w: unknown fee type %q", store.ErrValidationFailed, params.FeeType)
	}
	if params.ChangedBy == "" {
		return fmt.Errorf("%w: commission changes require an admin", store.ErrUnauthorized)
	}
	return nil
}

// SetSellerRate changes one of a seller's fee overrides. The resulting pair is validated
// before anything is written; the override, the change row and the audit entry commit together.
func (s *Service) SetSellerRate(ctx context.Context, params store.SetRateParams) (*models.SellerProfile, error) {
	if err := validateRateParams(params); err != nil {
		return nil, err
	}

	var updated *models.SellerProfile
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		seller, err := getSellerProfile(ctx, tx, params.TargetId)
		if err != nil {
			return err
		}
		if err := s.resolver.Validate(s.resolver.SellerPairAfter(seller, params.FeeType, params.NewBps)); err != nil {
			return err
		}

		query, previous := queryUpdateSellerPlatformFee, seller.CustomPlatformFeeBps
		if params.FeeType == models.FeeTypeCommunity {
			query, previous = queryUpdateSellerCommunityFee, seller.CustomCommunityFeeBps
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, query, intArg(params.NewBps), now, params.ChangedBy, seller.Id); err != nil {
			return fmt.Errorf("failed to update seller fee: %w", err)
		}

		change := models.CommissionChange{
			SellerProfileId: stringPtr(seller.Id),
			ChangedBy:       params.ChangedBy,
			FeeType:         params.FeeType,
			PreviousBps:     previous,
			NewBps:          params.NewBps,
			Reason:          params.Reason,
			CreatedAt:       now,
		}
		if err := recordCommissionChange(ctx, tx, &change, models.AuditActionSellerRateChanged, "seller_profiles", seller.Id); err != nil {
			return err
		}

		updated, err = getSellerProfile(ctx, tx, seller.Id)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Seller commission rate changed",
		zap.String("seller_id", params.TargetId),
		zap.String("fee_type", string(params.FeeType)),
		zap.Any("new_bps", params.NewBps),
		zap.String("changed_by", params.ChangedBy))
	return updated, nil
}

// SetCommunityRate is SetSellerRate for a community config.
func (s *Service) SetCommunityRate(ctx context.Context, params store.SetRateParams) (*models.CommunityConfig, error) {
	if err := validateRateParams(params); err != nil {
		return nil, err
	}

	var updated *models.CommunityConfig
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cfg, err := getCommunityConfig(ctx, tx, params.TargetId)
		if err != nil {
			return err
		}
		if err := s.resolver.Validate(s.resolver.CommunityPairAfter(cfg, params.FeeType, params.NewBps)); err != nil {
			return err
		}

		query, previous := queryUpdateCommunityPlatformFee, cfg.CustomPlatformFeeBps
		if params.FeeType == models.FeeTypeCommunity {
			query, previous = queryUpdateCommunityFee, cfg.CommunityFeeBps
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, query, intArg(params.NewBps), now, params.ChangedBy, cfg.Id); err != nil {
			return fmt.Errorf("failed to update community fee: %w", err)
		}

		change := models.CommissionChange{
			CommunityConfigId: stringPtr(cfg.Id),
			ChangedBy:         params.ChangedBy,
			FeeType:           params.FeeType,
			PreviousBps:       previous,
			NewBps:            params.NewBps,
			Reason:            params.Reason,
			CreatedAt:         now,
		}
		if err := recordCommissionChange(ctx, tx, &change, models.AuditActionCommunityRateChanged, "community_configs", cfg.Id); err != nil {
			return err
		}

		updated, err = getCommunityConfig(ctx, tx, cfg.Id)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Community commission rate changed",
		zap.String("community_id", params.TargetId),
		zap.String("fee_type", string(params.FeeType)),
		zap.Any("new_bps", params.NewBps),
		zap.String("changed_by", params.ChangedBy))
	return updated, nil
}

func recordCommissionChange(ctx context.Context, tx *sql.Tx, change *models.CommissionChange, action, table, targetId string) error {
	change.Id = uuid.New().String()

	var sellerId, communityId any
	if change.SellerProfileId != nil {
		sellerId = *change.SellerProfileId
	}
	if change.CommunityConfigId != nil {
		communityId = *change.CommunityConfigId
	}

	_, err := tx.ExecContext(ctx, queryInsertCommissionChange,
		change.Id, change.ChangedBy, sellerId, communityId, string(change.FeeType),
		intArg(change.PreviousBps), intArg(change.NewBps), change.Reason, change.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert commission change: %w", err)
	}

	return audit(ctx, tx, change.ChangedBy, action, table, targetId, map[string]any{
		"commission_change_id": change.Id,
		"fee_type":             change.FeeType,
		"previous_bps":         change.PreviousBps,
		"new_bps":              change.NewBps,
		"reason":               change.Reason,
	})
}

// ListCommissionChanges returns the change history of a seller or a community, oldest first.
func (s *Service) ListCommissionChanges(ctx context.Context, sellerId, communityId string) ([]models.CommissionChange, error) {
	rows, err := s.db.QueryContext(ctx, queryListCommissionChanges, sellerId, sellerId, communityId, communityId)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission changes: %w", err)
	}
	defer closeRows(rows)

	var changes []models.CommissionChange
	for rows.Next() {
		var c models.CommissionChange
		var seller, community sql.NullString
		var previous, next sql.NullInt64
		var feeType string
		if err := rows.Scan(&c.Id, &c.ChangedBy, &seller, &community, &feeType, &previous, &next, &c.Reason, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commission change: %w", err)
		}
		if seller.Valid {
			c.SellerProfileId = stringPtr(seller.String)
		}
		if community.Valid {
			c.CommunityConfigId = stringPtr(community.String)
		}
		c.FeeType = models.FeeType(feeType)
		c.PreviousBps = intPtr(previous)
		c.NewBps = intPtr(next)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
