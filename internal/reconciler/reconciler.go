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

package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"creator-ledger-go/internal/metrics"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MirrorBalances reads balances from the external ledger mirror.
type MirrorBalances interface {
	GetUserBalance(ctx context.Context, userId string) (decimal.Decimal, error)
}

// Config contains configuration for Reconciler
type Config struct {
	Store    store.LedgerStore
	Mirror   MirrorBalances // optional
	Interval time.Duration
}

// Reconciler periodically checks every wallet balance against the sum of its completed
// transactions. It reports drift and never corrects it.
type Reconciler struct {
	store    store.LedgerStore
	mirror   MirrorBalances
	interval time.Duration

	// Last reported difference per wallet, so a persistent drift is audited once
	reported map[string]string
	mutex    sync.Mutex

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func New(cfg Config) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Reconciler{
		store:    cfg.Store,
		mirror:   cfg.Mirror,
		interval: interval,
		reported: make(map[string]string),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs a pass immediately and then on every tick until Stop or ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	zap.L().Info("Starting balance reconciler", zap.Duration("interval", r.interval))
	go r.loop(ctx)
}

// Stop gracefully stops the reconciler. It must follow Start and is safe to call more than once.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		zap.L().Info("Stopping balance reconciler")
		close(r.stopChan)
	})
	<-r.doneChan
	zap.L().Info("Balance reconciler stopped")
}

func (r *Reconciler) loop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runLogged(ctx)

	for {
		select {
		case <-ticker.C:
			r.runLogged(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) runLogged(ctx context.Context) {
	drifted, err := r.RunOnce(ctx)
	if err != nil {
		zap.L().Error("Reconciliation pass failed", zap.Error(err))
		return
	}
	zap.L().Info("Reconciliation pass complete", zap.Int("drifted_wallets", len(drifted)))
}

// RunOnce reconciles every wallet and returns the ones out of sync.
func (r *Reconciler) RunOnce(ctx context.Context) ([]models.ReconciliationResult, error) {
	wallets, err := r.store.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	var drifted []models.ReconciliationResult
	for _, wallet := range wallets {
		if ctx.Err() != nil {
			return drifted, ctx.Err()
		}

		result, err := r.store.ReconcileWallet(ctx, wallet.UserId)
		if err != nil {
			zap.L().Error("Failed to reconcile wallet",
				zap.String("user_id", wallet.UserId),
				zap.Error(err))
			continue
		}

		r.checkMirror(ctx, result)

		if result.InSync {
			r.clearReported(wallet.UserId)
			continue
		}
		drifted = append(drifted, *result)
		r.report(ctx, result)
	}
	return drifted, nil
}

// report records a drift in metrics and the audit log, once per distinct difference.
func (r *Reconciler) report(ctx context.Context, result *models.ReconciliationResult) {
	r.mutex.Lock()
	if r.reported[result.UserId] == result.Difference.String() {
		r.mutex.Unlock()
		return
	}
	r.reported[result.UserId] = result.Difference.String()
	r.mutex.Unlock()

	metrics.ReconciliationDrift.Inc()

	payload, err := json.Marshal(result)
	if err != nil {
		zap.L().Error("Failed to encode drift payload", zap.Error(err))
		return
	}
	err = r.store.InsertAuditLog(ctx, models.AuditLogEntry{
		Actor:       "reconciler",
		Action:      models.AuditActionReconciliationDriftDetected,
		TargetTable: "wallets",
		TargetId:    result.UserId,
		Payload:     payload,
	})
	if err != nil {
		zap.L().Error("Failed to audit wallet drift",
			zap.String("user_id", result.UserId),
			zap.Error(err))
	}
}

func (r *Reconciler) clearReported(userId string) {
	r.mutex.Lock()
	delete(r.reported, userId)
	r.mutex.Unlock()
}

// checkMirror logs when the external mirror disagrees with the stored wallet balance.
func (r *Reconciler) checkMirror(ctx context.Context, result *models.ReconciliationResult) {
	if r.mirror == nil {
		return
	}
	mirrored, err := r.mirror.GetUserBalance(ctx, result.UserId)
	if err != nil {
		metrics.MirrorErrors.WithLabelValues("balance").Inc()
		zap.L().Warn("Failed to read mirrored balance",
			zap.String("user_id", result.UserId),
			zap.Error(err))
		return
	}
	if !mirrored.Equal(result.StoredBalance) {
		zap.L().Warn("Mirror balance differs from wallet",
			zap.String("user_id", result.UserId),
			zap.String("wallet_balance", result.StoredBalance.String()),
			zap.String("mirror_balance", mirrored.String()))
	}
}
