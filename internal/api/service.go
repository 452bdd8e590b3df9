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

package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creator-ledger-go/internal/commission"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Mirror receives ledger movements after they commit. Mirror failures never undo a
// committed transaction.
type Mirror interface {
	RecordTransaction(ctx context.Context, tx *models.Transaction) error
	RecordReversal(ctx context.Context, original, correction *models.Transaction) error
}

// LedgerService is the application layer in front of the ledger store: authorization,
// conflict retries, metrics and the optional mirror.
type LedgerService struct {
	store    store.LedgerStore
	resolver *commission.Resolver
	mirror   Mirror
	newRetry func() backoff.BackOff
}

// NewLedgerService wires the service. mirror may be nil.
func NewLedgerService(st store.LedgerStore, resolver *commission.Resolver, mirror Mirror) *LedgerService {
	if resolver == nil {
		resolver = commission.NewResolver(commission.DefaultConfig())
	}
	return &LedgerService{
		store:    st,
		resolver: resolver,
		mirror:   mirror,
		newRetry: defaultRetry,
	}
}

func defaultRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 5)
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// withRetry runs op again while it fails with a concurrency conflict. Each attempt is a
// whole database transaction that rolled back, so re-running it is safe.
func (s *LedgerService) withRetry(ctx context.Context, name string, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrConcurrentModification) {
			zap.L().Warn("Concurrent modification, retrying",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(s.newRetry(), ctx))
}

// requireAdmin checks the principal attached by the HTTP auth middleware.
func requireAdmin(ctx context.Context) (*models.Principal, error) {
	principal := models.GetPrincipal(ctx)
	if principal == nil || principal.UserId == "" {
		return nil, fmt.Errorf("%w: no authenticated principal", store.ErrUnauthorized)
	}
	if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: user %s is not an admin", store.ErrForbidden, principal.UserId)
	}
	return principal, nil
}
