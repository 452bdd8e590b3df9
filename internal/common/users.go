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

package common

import (
	"context"
	"fmt"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"go.uber.org/zap"
)

// WalletOwner pairs a user with their wallet for command-line reports.
type WalletOwner struct {
	User   models.User
	Wallet *models.Wallet
}

// LookupWalletOwners returns one user by email, or every user when emailFilter is empty,
// each with their current wallet.
func LookupWalletOwners(ctx context.Context, st store.LedgerStore, emailFilter string) ([]WalletOwner, error) {
	var users []models.User

	if emailFilter != "" {
		zap.L().Info("Looking up user by email", zap.String("email", emailFilter))
		user, err := st.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	} else {
		all, err := st.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		users = all
	}

	owners := make([]WalletOwner, 0, len(users))
	for _, u := range users {
		wallet, err := st.GetWallet(ctx, u.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to load wallet for %s: %w", u.Id, err)
		}
		owners = append(owners, WalletOwner{User: u, Wallet: wallet})
	}

	zap.L().Info("Retrieved wallet owners", zap.Int("count", len(owners)))
	return owners, nil
}

// AdminContext resolves an admin by email and returns a context carrying that principal.
// Command-line tools act through the same authorization checks as the HTTP API.
func AdminContext(ctx context.Context, st store.LedgerStore, email string) (context.Context, *models.User, error) {
	user, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	roles, err := st.GetRoles(ctx, user.Id)
	if err != nil {
		return nil, nil, err
	}
	principal := &models.Principal{UserId: user.Id, Roles: roles}
	if !principal.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: %s is not an admin", store.ErrForbidden, email)
	}
	return models.WithPrincipal(ctx, principal), user, nil
}
