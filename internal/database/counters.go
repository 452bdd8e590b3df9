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

// toCents converts a money amount to the integer cents stored in budget columns.
func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func (s *Service) CreateCampaign(ctx context.Context, campaign models.Campaign) (*models.Campaign, error) {
	if campaign.Id == "" {
		campaign.Id = uuid.New().String()
	}
	if campaign.Budget.IsNegative() {
		return nil, fmt.Errorf("%w: campaign budget cannot be negative", store.ErrInvalidAmount)
	}
	campaign.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, queryInsertCampaign,
		campaign.Id, campaign.Name, toCents(campaign.Budget), toCents(campaign.BudgetUsed),
		campaign.RpmRate.String(), campaign.FlatRate.String(), campaign.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert campaign: %w", err)
	}

	zap.L().Info("Campaign created",
		zap.String("campaign_id", campaign.Id),
		zap.String("budget", campaign.Budget.StringFixed(2)))
	return &campaign, nil
}

func (s *Service) GetCampaign(ctx context.Context, campaignId string) (*models.Campaign, error) {
	return getCampaign(ctx, s.db, campaignId)
}

func getCampaign(ctx context.Context, q dbtx, campaignId string) (*models.Campaign, error) {
	var c models.Campaign
	var budget, used int64
	var rpmStr, flatStr string
	err := q.QueryRowContext(ctx, queryGetCampaign, campaignId).
		Scan(&c.Id, &c.Name, &budget, &used, &rpmStr, &flatStr, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrCampaignNotFound, campaignId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	c.Budget = fromCents(budget)
	c.BudgetUsed = fromCents(used)
	if c.RpmRate, err = decimal.NewFromString(rpmStr); err != nil {
		return nil, fmt.Errorf("failed to parse rpm_rate '%s': %w", rpmStr, err)
	}
	if c.FlatRate, err = decimal.NewFromString(flatStr); err != nil {
		return nil, fmt.Errorf("failed to parse flat_rate '%s': %w", flatStr, err)
	}
	return &c, nil
}

func (s *Service) CreateBoost(ctx context.Context, boost models.Boost) (*models.Boost, error) {
	if boost.Id == "" {
		boost.Id = uuid.New().String()
	}
	if boost.Budget.IsNegative() {
		return nil, fmt.Errorf("%w: boost budget cannot be negative", store.ErrInvalidAmount)
	}
	boost.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, queryInsertBoost,
		boost.Id, boost.Name, toCents(boost.Budget), toCents(boost.BudgetUsed), boost.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert boost: %w", err)
	}

	zap.L().Info("Boost created", zap.String("boost_id", boost.Id))
	return &boost, nil
}

func (s *Service) GetBoost(ctx context.Context, boostId string) (*models.Boost, error) {
	var b models.Boost
	var budget, used int64
	err := s.db.QueryRowContext(ctx, queryGetBoost, boostId).
		Scan(&b.Id, &b.Name, &budget, &used, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrBoostNotFound, boostId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get boost: %w", err)
	}
	b.Budget = fromCents(budget)
	b.BudgetUsed = fromCents(used)
	return &b, nil
}

// The budget_used primitives below take the caller's transaction so the forward and reverse
// paths commit their counter moves together with the wallet and ledger rows.

func incrementCampaignBudgetUsed(ctx context.Context, q dbtx, campaignId string, amount decimal.Decimal) (decimal.Decimal, error) {
	return adjustCounter(ctx, q, queryIncrementCampaignBudgetUsed, store.ErrCampaignNotFound, campaignId, amount)
}

func decrementCampaignBudgetUsed(ctx context.Context, q dbtx, campaignId string, amount decimal.Decimal) (decimal.Decimal, error) {
	return adjustCounter(ctx, q, queryDecrementCampaignBudgetUsed, store.ErrCampaignNotFound, campaignId, amount)
}

func incrementBoostBudgetUsed(ctx context.Context, q dbtx, boostId string, amount decimal.Decimal) (decimal.Decimal, error) {
	return adjustCounter(ctx, q, queryIncrementBoostBudgetUsed, store.ErrBoostNotFound, boostId, amount)
}

func decrementBoostBudgetUsed(ctx context.Context, q dbtx, boostId string, amount decimal.Decimal) (decimal.Decimal, error) {
	return adjustCounter(ctx, q, queryDecrementBoostBudgetUsed, store.ErrBoostNotFound, boostId, amount)
}

// adjustCounter runs one of the single-statement counter updates and returns the new value.
// There is no floor: a decrement below zero is stored as-is and surfaces in reconciliation.
func adjustCounter(ctx context.Context, q dbtx, query string, notFound error, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: counter amount must not be negative", store.ErrInvalidAmount)
	}

	var used int64
	err := q.QueryRowContext(ctx, query, toCents(amount), id).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: %s", notFound, id)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update budget counter: %w", err)
	}

	newUsed := fromCents(used)
	if newUsed.IsNegative() {
		zap.L().Warn("Budget counter went negative",
			zap.String("id", id),
			zap.String("budget_used", newUsed.String()))
	}
	return newUsed, nil
}
