package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"creator-ledger-go/internal/api"
	"creator-ledger-go/internal/commission"
	"creator-ledger-go/internal/database"
	"creator-ledger-go/internal/formance"
	"creator-ledger-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads a .env file when present. Every setting can also come from the process environment.
func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: no .env file loaded (%v); using process environment\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService  *database.Service
	Mirror     *formance.Service // nil unless the Formance mirror is enabled
	Resolver   *commission.Resolver
	ApiService *api.LedgerService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	resolver, err := LoadCommissionResolver(cfg.Commission)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	dbService.SetCommissionResolver(resolver)

	services := &Services{DbService: dbService, Resolver: resolver}

	var mirror api.Mirror
	if cfg.Formance.Enabled {
		zap.L().Info("Initializing Formance ledger mirror")
		services.Mirror, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		mirror = services.Mirror
	}

	services.ApiService = api.NewLedgerService(dbService, resolver, mirror)
	return services, nil
}

// LoadCommissionResolver builds the fee resolver from env defaults overlaid by the YAML file.
func LoadCommissionResolver(cfg models.CommissionConfig) (*commission.Resolver, error) {
	fallback := commission.Defaults{
		PlatformFeeBps:  cfg.DefaultPlatformFeeBps,
		CommunityFeeBps: cfg.DefaultCommunityFeeBps,
		MaxTotalFeeBps:  cfg.MaxTotalFeeBps,
	}
	defaults, err := commission.LoadDefaults(cfg.File, fallback)
	if err != nil {
		return nil, fmt.Errorf("failed to load commission defaults: %w", err)
	}
	zap.L().Info("Commission defaults loaded",
		zap.Int("platform_fee_bps", defaults.PlatformFeeBps),
		zap.Int("community_fee_bps", defaults.CommunityFeeBps),
		zap.Int("max_total_fee_bps", defaults.MaxTotalFeeBps))
	return commission.NewResolver(defaults), nil
}

// InitializeDatabaseOnly initializes just the database service, without the mirror.
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	resolver, err := LoadCommissionResolver(cfg.Commission)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	dbService.SetCommissionResolver(resolver)
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Mirror != nil {
		cs.Mirror.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
