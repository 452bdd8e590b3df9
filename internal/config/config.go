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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"creator-ledger-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	signatureWindow, err := getEnvDuration("PAYMENT_SIGNATURE_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	reconcileInterval, err := getEnvDuration("RECONCILER_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	rateLimit, err := getEnvFloat("PAYMENT_RATE_LIMIT", 50)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			BusyTimeout:     busyTimeout,
		},
		Server: models.ServerConfig{
			Addr:             getEnvString("SERVER_ADDR", ":8080"),
			MaxConnections:   getEnvInt("SERVER_MAX_CONNECTIONS", 256),
			ReadTimeout:      readTimeout,
			WriteTimeout:     writeTimeout,
			ShutdownTimeout:  shutdownTimeout,
			AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS"),
			PaymentRateLimit: rateLimit,
			PaymentBurst:     getEnvInt("PAYMENT_RATE_BURST", 100),
		},
		Auth: models.AuthConfig{
			PaymentApiKey:        os.Getenv("PAYMENT_API_KEY"),
			PaymentSigningSecret: os.Getenv("PAYMENT_SIGNING_SECRET"),
			RequireSignature:     getEnvBool("PAYMENT_REQUIRE_SIGNATURE", true),
			SignatureWindow:      signatureWindow,
			JWTSecret:            os.Getenv("JWT_SECRET"),
			JWTIssuer:            getEnvString("JWT_ISSUER", "creator-ledger"),
		},
		Commission: models.CommissionConfig{
			File:                   getEnvString("COMMISSION_CONFIG_FILE", "commission.yaml"),
			DefaultPlatformFeeBps:  getEnvInt("DEFAULT_PLATFORM_FEE_BPS", 800),
			DefaultCommunityFeeBps: getEnvInt("DEFAULT_COMMUNITY_FEE_BPS", 500),
			MaxTotalFeeBps:         getEnvInt("MAX_TOTAL_FEE_BPS", 9000),
		},
		Formance: models.FormanceConfig{
			Enabled:      getEnvBool("FORMANCE_ENABLED", false),
			StackURL:     os.Getenv("FORMANCE_STACK_URL"),
			ClientID:     os.Getenv("FORMANCE_CLIENT_ID"),
			ClientSecret: os.Getenv("FORMANCE_CLIENT_SECRET"),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "creator-ledger"),
		},
		Reconciler: models.ReconcilerConfig{
			Enabled:  getEnvBool("RECONCILER_ENABLED", true),
			Interval: reconcileInterval,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %q (%w)", key, value, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
