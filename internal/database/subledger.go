/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

// Side ledgers: denormalised projections that hang off wallet transactions and must be
// unwound when one is reversed.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", field, value, err)
	}
	return d, nil
}

// --- Referrals and profiles ---

func (s *Service) CreateReferral(ctx context.Context, referrerId, referredId string) (*models.Referral, error) {
	if referrerId == "" || referredId == "" || referrerId == referredId {
		return nil, fmt.Errorf("%w: referral needs two distinct users", store.ErrValidationFailed)
	}
	for _, id := range []string{referrerId, referredId} {
		if _, err := s.GetUserById(ctx, id); err != nil {
			return nil, err
		}
	}

	referral := &models.Referral{
		Id:         uuid.New().String(),
		ReferrerId: referrerId,
		ReferredId: referredId,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx, queryInsertReferral, referral.Id, referrerId, referredId, referral.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert referral: %w", err)
	}

	zap.L().Info("Referral created",
		zap.String("referral_id", referral.Id),
		zap.String("referrer_id", referrerId),
		zap.String("referred_id", referredId))
	return referral, nil
}

func (s *Service) GetReferral(ctx context.Context, referralId string) (*models.Referral, error) {
	return getReferral(ctx, s.db, referralId)
}

func getReferral(ctx context.Context, q dbtx, referralId string) (*models.Referral, error) {
	var r models.Referral
	var reward string
	err := q.QueryRowContext(ctx, queryGetReferral, referralId).
		Scan(&r.Id, &r.ReferrerId, &r.ReferredId, &reward, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrReferralNotFound, referralId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	if r.RewardEarned, err = parseDecimal("reward_earned", reward); err != nil {
		return nil, err
	}
	return &r, nil
}

func updateReferralReward(ctx context.Context, q dbtx, referralId string, reward decimal.Decimal) error {
	if _, err := q.ExecContext(ctx, queryUpdateReferralReward, reward.String(), referralId); err != nil {
		return fmt.Errorf("failed to update referral reward: %w", err)
	}
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userId string) (*models.Profile, error) {
	return getProfile(ctx, s.db, userId)
}

func getProfile(ctx context.Context, q dbtx, userId string) (*models.Profile, error) {
	var p models.Profile
	var earnings string
	err := q.QueryRowContext(ctx, queryGetProfile, userId).Scan(&p.Id, &earnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %w: %s", store.ErrNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p.ReferralEarnings, err = parseDecimal("referral_earnings", earnings); err != nil {
		return nil, err
	}
	return &p, nil
}

func updateReferralEarnings(ctx context.Context, q dbtx, userId string, earnings decimal.Decimal) error {
	if _, err := q.ExecContext(ctx, queryUpdateReferralEarnings, earnings.String(), userId); err != nil {
		return fmt.Errorf("failed to update referral earnings: %w", err)
	}
	return nil
}

// --- Campaign account analytics and CPM payouts ---

func (s *Service) GetAccountAnalytics(ctx context.Context, campaignId, socialAccountId string) (*models.AccountAnalytics, error) {
	return getAccountAnalytics(ctx, s.db, campaignId, socialAccountId)
}

func getAccountAnalytics(ctx context.Context, q dbtx, campaignId, socialAccountId string) (*models.AccountAnalytics, error) {
	var a models.AccountAnalytics
	var lastAmount sql.NullString
	var lastDate sql.NullTime
	err := q.QueryRowContext(ctx, queryGetAccountAnalytics, campaignId, socialAccountId).
		Scan(&a.CampaignId, &a.SocialAccountId, &a.PaidViews, &lastAmount, &lastDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account analytics %w: %s/%s", store.ErrNotFound, campaignId, socialAccountId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account analytics: %w", err)
	}

	if lastAmount.Valid {
		amount, err := parseDecimal("last_payment_amount", lastAmount.String)
		if err != nil {
			return nil, err
		}
		a.LastPaymentAmount = &amount
	}
	if lastDate.Valid {
		a.LastPaymentDate = &lastDate.Time
	}
	return &a, nil
}

func recordAnalyticsPayment(ctx context.Context, q dbtx, campaignId, socialAccountId string, views int64, amount decimal.Decimal, at time.Time) error {
	_, err := q.ExecContext(ctx, queryRecordAccountAnalyticsPayment, campaignId, socialAccountId, views, amount.String(), at)
	if err != nil {
		return fmt.Errorf("failed to record account analytics: %w", err)
	}
	return nil
}

func reverseAnalytics(ctx context.Context, q dbtx, campaignId, socialAccountId string, paidViews int64) error {
	_, err := q.ExecContext(ctx, queryReverseAccountAnalytics, paidViews, campaignId, socialAccountId)
	if err != nil {
		return fmt.Errorf("failed to reverse account analytics: %w", err)
	}
	return nil
}

func insertCpmPayout(ctx context.Context, q dbtx, payout *models.CpmPayout) error {
	if payout.Id == "" {
		payout.Id = uuid.New().String()
	}
	_, err := q.ExecContext(ctx, queryInsertCpmPayout,
		payout.Id, payout.CampaignId, payout.UserId, payout.SocialAccountId, payout.Views, payout.Amount.String(), payout.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cpm payout: %w", err)
	}
	return nil
}

func (s *Service) GetCpmPayout(ctx context.Context, payoutId string) (*models.CpmPayout, error) {
	var p models.CpmPayout
	var amount string
	err := s.db.QueryRowContext(ctx, queryGetCpmPayout, payoutId).
		Scan(&p.Id, &p.CampaignId, &p.UserId, &p.SocialAccountId, &p.Views, &amount, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cpm payout %w: %s", store.ErrNotFound, payoutId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cpm payout: %w", err)
	}
	if p.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	return &p, nil
}

func deleteCpmPayout(ctx context.Context, q dbtx, payoutId string) error {
	result, err := q.ExecContext(ctx, queryDeleteCpmPayout, payoutId)
	if err != nil {
		return fmt.Errorf("failed to delete cpm payout: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("cpm payout %w: %s", store.ErrNotFound, payoutId)
	}
	return nil
}

// --- Team earnings ---

func insertTeamEarning(ctx context.Context, q dbtx, earning *models.TeamEarning) error {
	if earning.Id == "" {
		earning.Id = uuid.New().String()
	}
	_, err := q.ExecContext(ctx, queryInsertTeamEarning,
		earning.Id, earning.TeamId, earning.UserId, earning.SourceTransactionId, earning.Amount.String(), earning.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team earning: %w", err)
	}
	return nil
}

func (s *Service) GetTeamEarningBySource(ctx context.Context, sourceTransactionId string) (*models.TeamEarning, error) {
	var e models.TeamEarning
	var amount string
	err := s.db.QueryRowContext(ctx, queryGetTeamEarningBySource, sourceTransactionId).
		Scan(&e.Id, &e.TeamId, &e.UserId, &e.SourceTransactionId, &amount, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team earning %w: source %s", store.ErrNotFound, sourceTransactionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team earning: %w", err)
	}
	if e.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	return &e, nil
}

func deleteTeamEarningsBySource(ctx context.Context, q dbtx, sourceTransactionId string) error {
	result, err := q.ExecContext(ctx, queryDeleteTeamEarningsBySource, sourceTransactionId)
	if err != nil {
		return fmt.Errorf("failed to delete team earnings: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("team earning %w: source %s", store.ErrNotFound, sourceTransactionId)
	}
	return nil
}
