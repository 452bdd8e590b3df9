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
	"strings"

	"creator-ledger-go/internal/common"
	"creator-ledger-go/internal/config"
	"creator-ledger-go/internal/models"

	"go.uber.org/zap"
)

type reversalRequest struct {
	adminEmail    string
	transactionId string
	reason        string
	dryRun        bool
}

func parseAndValidateFlags() (*reversalRequest, error) {
	adminFlag := flag.String("admin", "", "Email of the admin performing the reversal (required)")
	txFlag := flag.String("tx", "", "Id of the transaction to reverse (required)")
	reasonFlag := flag.String("reason", "", "Reason recorded on the correction entry")
	dryRunFlag := flag.Bool("dry-run", false, "Show the transaction without reversing it")
	flag.Parse()

	if *adminFlag == "" || *txFlag == "" {
		return nil, fmt.Errorf("flags are required: --admin, --tx")
	}

	return &reversalRequest{
		adminEmail:    *adminFlag,
		transactionId: strings.TrimSpace(*txFlag),
		reason:        *reasonFlag,
		dryRun:        *dryRunFlag,
	}, nil
}

func printTransaction(tx *models.Transaction) {
	fmt.Printf("Transaction: %s\n", tx.Id)
	fmt.Printf("User:        %s\n", tx.UserId)
	fmt.Printf("Type:        %s\n", tx.Type)
	fmt.Printf("Status:      %s\n", tx.Status)
	fmt.Printf("Amount:      %s\n", common.FormatUSD(tx.Amount))
	fmt.Printf("Created:     %s\n", tx.CreatedAt.Format("2006-01-02 15:04:05"))
	if tx.Description != "" {
		fmt.Printf("Description: %s\n", tx.Description)
	}
}

func printResult(result *models.ReversalResult) {
	fmt.Printf("Correction:  %s\n", result.ReversalTransactionId)
	fmt.Println(result.Message)
	for i, action := range result.ActionsTaken {
		fmt.Printf("%s%s\n", common.BoxPrefix(i == len(result.ActionsTaken)-1 && len(result.FailedActions) == 0), action)
	}
	for i, action := range result.FailedActions {
		fmt.Printf("%sFAILED %s\n", common.BoxPrefix(i == len(result.FailedActions)-1), action)
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	adminCtx, admin, err := common.AdminContext(ctx, services.DbService, req.adminEmail)
	if err != nil {
		zap.L().Fatal("Admin lookup failed", zap.String("email", req.adminEmail), zap.Error(err))
	}

	tx, err := services.DbService.GetTransaction(ctx, req.transactionId)
	if err != nil {
		zap.L().Fatal("Failed to load transaction", zap.String("transaction_id", req.transactionId), zap.Error(err))
	}

	common.PrintHeader("TRANSACTION REVERSAL", common.DefaultWidth)
	printTransaction(tx)
	fmt.Printf("Admin:       %s\n", admin.Email)
	common.PrintSeparator("-", common.DefaultWidth)

	if req.dryRun {
		common.PrintFooter("Dry run: nothing reversed", common.DefaultWidth)
		return
	}

	result, err := services.ApiService.ReverseTransaction(adminCtx, req.transactionId, req.reason)
	if err != nil {
		zap.L().Fatal("Reversal failed", zap.String("transaction_id", req.transactionId), zap.Error(err))
	}

	printResult(result)
	common.PrintFooter("Reversal complete", common.DefaultWidth)
}
