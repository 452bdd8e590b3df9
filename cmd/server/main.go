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
	"os"
	"os/signal"
	"syscall"
	"time"

	"creator-ledger-go/internal/common"
	"creator-ledger-go/internal/config"
	"creator-ledger-go/internal/httpapi"
	"creator-ledger-go/internal/reconciler"

	"go.uber.org/zap"
)

func main() {
	noReconciler := flag.Bool("no-reconciler", false, "Disable the background balance reconciler regardless of RECONCILER_ENABLED")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting creator ledger server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Auth.PaymentApiKey == "" {
		zap.L().Warn("PAYMENT_API_KEY is not set; every payment request will be rejected")
	}
	if cfg.Auth.RequireSignature && cfg.Auth.PaymentSigningSecret == "" {
		zap.L().Warn("PAYMENT_SIGNING_SECRET is not set while signatures are required; every payment request will be rejected")
	}
	if !cfg.Auth.RequireSignature {
		zap.L().Warn("PAYMENT_REQUIRE_SIGNATURE=false; payments authenticated by API key alone are accepted and audited as unsigned")
	}
	if cfg.Auth.JWTSecret == "" {
		zap.L().Warn("JWT_SECRET is not set; admin endpoints will reject every token")
	}

	var rec *reconciler.Reconciler
	if cfg.Reconciler.Enabled && !*noReconciler {
		recCfg := reconciler.Config{
			Store:    services.DbService,
			Interval: cfg.Reconciler.Interval,
		}
		if services.Mirror != nil {
			recCfg.Mirror = services.Mirror
		}
		rec = reconciler.New(recCfg)
		rec.Start(ctx)
	}

	router := httpapi.NewRouter(httpapi.NewHandler(services.ApiService), services.DbService, cfg.Server, cfg.Auth)
	server := httpapi.NewServer(cfg.Server, router)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zap.L().Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			zap.L().Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced HTTP shutdown after timeout", zap.Error(err))
	}
	if rec != nil {
		rec.Stop()
	}
	cancel()

	zap.L().Info("Creator ledger server stopped")
}
