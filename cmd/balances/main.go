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

package main

import (
	"context"
	"flag"
	"fmt"

	"creator-ledger-go/internal/common"
	"creator-ledger-go/internal/config"
	"creator-ledger-go/internal/formance"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type reportStats struct {
	wallets int
	drifted int
	total   string
}

func printOwner(ctx context.Context, st store.LedgerStore, owner common.WalletOwner, reconcile bool, mirror *formance.Service) bool {
	w := owner.Wallet
	fmt.Printf("\n┌─ %s (%s)\n", owner.User.Name, owner.User.Email)
	fmt.Printf("│  ID: %s\n", owner.User.Id)
	fmt.Printf("%s balance %12s  earned %12s  withdrawn %12s  (v%d, updated %s)\n",
		common.BoxPrefix(!reconcile && mirror == nil),
		common.FormatUSD(w.Balance),
		common.FormatUSD(w.TotalEarned),
		common.FormatUSD(w.TotalWithdrawn),
		w.Version,
		w.UpdatedAt.Format("2006-01-02 15:04:05"))

	drifted := false
	if reconcile {
		result, err := st.ReconcileWallet(ctx, owner.User.Id)
		if err != nil {
			zap.L().Error("Failed to reconcile wallet", zap.String("user_id", owner.User.Id), zap.Error(err))
		} else {
			status := "in sync"
			if !result.InSync {
				status = "DRIFT " + common.FormatUSD(result.Difference)
				drifted = true
			}
			fmt.Printf("%s ledger %13s  over %d transactions: %s\n",
				common.BoxPrefix(mirror == nil),
				common.FormatUSD(result.CalculatedBalance), result.TransactionCount, status)
		}
	}

	if mirror != nil {
		balance, err := mirror.GetUserBalance(ctx, owner.User.Id)
		if err != nil {
			zap.L().Error("Failed to read mirror balance", zap.String("user_id", owner.User.Id), zap.Error(err))
		} else {
			status := "matches"
			if !balance.Equal(w.Balance) {
				status = "differs"
				drifted = true
			}
			fmt.Printf("%s mirror %13s  %s\n", common.BoxPrefix(true), common.FormatUSD(balance), status)
		}
	}
	return drifted
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	reconcileFlag := flag.Bool("reconcile", false, "Recompute each balance from completed transactions")
	mirrorFlag := flag.Bool("mirror", false, "Compare each balance with the Formance mirror")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	db, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	var mirror *formance.Service
	if *mirrorFlag {
		if !cfg.Formance.Enabled {
			logger.Fatal("--mirror requires FORMANCE_ENABLED=true")
		}
		mirror, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			logger.Fatal("Failed to connect to Formance", zap.Error(err))
		}
		defer mirror.Close()
	}

	owners, err := common.LookupWalletOwners(ctx, db, *emailFlag)
	if err != nil {
		logger.Fatal("Failed to load users", zap.Error(err))
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	stats := reportStats{}
	total := decimal.Zero
	for _, owner := range owners {
		stats.wallets++
		total = total.Add(owner.Wallet.Balance)
		if printOwner(ctx, db, owner, *reconcileFlag, mirror) {
			stats.drifted++
		}
	}
	stats.total = common.FormatUSD(total)

	summary := fmt.Sprintf("SUMMARY: %d wallets, %s total balance", stats.wallets, stats.total)
	if *reconcileFlag || *mirrorFlag {
		summary += fmt.Sprintf(", %d out of sync", stats.drifted)
	}
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("wallets", stats.wallets),
		zap.Int("drifted", stats.drifted))
}
