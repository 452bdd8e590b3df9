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
	"errors"
	"flag"
	"fmt"
	"regexp"

	"creator-ledger-go/internal/common"
	"creator-ledger-go/internal/config"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	adminFlag := flag.Bool("admin", false, "Grant the admin role")
	sellerFlag := flag.Bool("seller", false, "Create a seller profile using the default commission rates")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	db, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	user, err := db.CreateUser(ctx, uuid.New().String(), *nameFlag, *emailFlag)
	if errors.Is(err, store.ErrDuplicateUser) {
		zap.L().Fatal("User already exists with this email", zap.String("email", *emailFlag))
	}
	if err != nil {
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	if *adminFlag {
		if err := db.GrantRole(ctx, user.Id, models.RoleAdmin); err != nil {
			zap.L().Fatal("Failed to grant admin role", zap.Error(err))
		}
	}

	var seller *models.SellerProfile
	if *sellerFlag {
		seller, err = db.CreateSellerProfile(ctx, models.SellerProfile{UserId: user.Id})
		if err != nil {
			zap.L().Fatal("Failed to create seller profile", zap.Error(err))
		}
	}

	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:     %s\n", user.Id)
	fmt.Printf("Name:   %s\n", user.Name)
	fmt.Printf("Email:  %s\n", user.Email)
	fmt.Printf("Admin:  %t\n", *adminFlag)
	if seller != nil {
		fmt.Printf("Seller: %s\n", seller.Id)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("id", user.Id), zap.Bool("admin", *adminFlag))
}
