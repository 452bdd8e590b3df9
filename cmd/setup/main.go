package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"creator-ledger-go/internal/common"
	"creator-ledger-go/internal/config"
	"creator-ledger-go/internal/database"
	"creator-ledger-go/internal/httpapi"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ensureAdmin returns the user with the given email, creating it first if needed, and grants
// the admin role. Granting is idempotent.
func ensureAdmin(ctx context.Context, db *database.Service, name, email string) (*models.User, error) {
	user, err := db.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		zap.L().Info("Creating admin user", zap.String("email", email))
		user, err = db.CreateUser(ctx, uuid.New().String(), name, email)
	}
	if err != nil {
		return nil, err
	}

	if err := db.GrantRole(ctx, user.Id, models.RoleAdmin); err != nil {
		return nil, err
	}
	return user, nil
}

func seedCampaign(ctx context.Context, db *database.Service, id, budget, rpm string) (*models.Campaign, error) {
	if existing, err := db.GetCampaign(ctx, id); err == nil {
		zap.L().Info("Campaign already exists", zap.String("campaign_id", id))
		return existing, nil
	}

	budgetAmount, err := decimal.NewFromString(budget)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign budget: %w", err)
	}
	rpmRate, err := decimal.NewFromString(rpm)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign rpm: %w", err)
	}

	return db.CreateCampaign(ctx, models.Campaign{
		BudgetedEntity: models.BudgetedEntity{Id: id, Name: "Campaign " + id, Budget: budgetAmount},
		RpmRate:        rpmRate,
	})
}

func seedBoost(ctx context.Context, db *database.Service, id, name, budget string) (*models.Boost, error) {
	if existing, err := db.GetBoost(ctx, id); err == nil {
		zap.L().Info("Boost already exists", zap.String("boost_id", id))
		return existing, nil
	} else if !errors.Is(err, store.ErrBoostNotFound) {
		return nil, err
	}

	budgetAmount, err := decimal.NewFromString(budget)
	if err != nil {
		return nil, fmt.Errorf("invalid boost budget: %w", err)
	}
	if name == "" {
		name = "Boost " + id
	}

	return db.CreateBoost(ctx, models.Boost{
		BudgetedEntity: models.BudgetedEntity{Id: id, Name: name, Budget: budgetAmount},
	})
}

func seedCommunity(ctx context.Context, db *database.Service, id, name string, feeBps int) (*models.CommunityConfig, error) {
	if existing, err := db.GetCommunityConfig(ctx, id); err == nil {
		zap.L().Info("Community already exists", zap.String("community_id", id))
		return existing, nil
	} else if !errors.Is(err, store.ErrCommunityNotFound) {
		return nil, err
	}

	cfg := models.CommunityConfig{Id: id, Name: name}
	if feeBps >= 0 {
		cfg.CommunityFeeBps = &feeBps
	}
	return db.CreateCommunityConfig(ctx, cfg)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	adminEmail := flag.String("admin-email", "", "Email of the admin to create or promote (optional)")
	adminName := flag.String("admin-name", "Administrator", "Name used when the admin user is created")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the printed admin token")
	campaignId := flag.String("campaign", "", "Seed a campaign with this id (optional)")
	campaignBudget := flag.String("campaign-budget", "1000", "Budget of the seeded campaign")
	campaignRpm := flag.String("campaign-rpm", "2.00", "Rate per thousand views of the seeded campaign")
	boostId := flag.String("boost", "", "Seed a boost with this id (optional)")
	boostName := flag.String("boost-name", "", "Name of the seeded boost (defaults to \"Boost <id>\")")
	boostBudget := flag.String("boost-budget", "100", "Budget of the seeded boost")
	communityId := flag.String("community", "", "Seed a community with this id (optional)")
	communityName := flag.String("community-name", "", "Name of the seeded community")
	communityBps := flag.Int("community-bps", -1, "Community fee in basis points; -1 uses the default")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the database applies the schema.
	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	db, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	common.PrintHeader("CREATOR LEDGER SETUP", common.DefaultWidth)
	fmt.Printf("Database: %s\n", cfg.Database.Path)

	if *campaignId != "" {
		campaign, err := seedCampaign(ctx, db, *campaignId, *campaignBudget, *campaignRpm)
		if err != nil {
			zap.L().Fatal("Failed to seed campaign", zap.Error(err))
		}
		fmt.Printf("Campaign: %s (budget %s, rpm %s)\n", campaign.Id,
			common.FormatUSD(campaign.Budget), common.FormatUSD(campaign.RpmRate))
	}

	if *boostId != "" {
		boost, err := seedBoost(ctx, db, *boostId, *boostName, *boostBudget)
		if err != nil {
			zap.L().Fatal("Failed to seed boost", zap.Error(err))
		}
		fmt.Printf("Boost:    %s (budget %s, used %s)\n", boost.Id,
			common.FormatUSD(boost.Budget), common.FormatUSD(boost.BudgetUsed))
	}

	if *communityId != "" {
		community, err := seedCommunity(ctx, db, *communityId, *communityName, *communityBps)
		if err != nil {
			zap.L().Fatal("Failed to seed community", zap.Error(err))
		}
		fmt.Printf("Community: %s (fee %s)\n", community.Id, common.FormatBps(community.CommunityFeeBps))
	}

	if *adminEmail != "" {
		admin, err := ensureAdmin(ctx, db, *adminName, *adminEmail)
		if err != nil {
			zap.L().Fatal("Failed to set up admin", zap.Error(err))
		}
		fmt.Printf("Admin:    %s (%s)\n", admin.Email, admin.Id)

		if cfg.Auth.JWTSecret == "" {
			fmt.Println("JWT_SECRET is not set; no admin token issued")
		} else {
			token, err := httpapi.GenerateAdminToken(cfg.Auth, admin.Id, *tokenTTL)
			if err != nil {
				zap.L().Fatal("Failed to issue admin token", zap.Error(err))
			}
			fmt.Printf("Token (expires in %s):\n%s\n", tokenTTL.String(), token)
		}
	}

	common.PrintFooter("Setup complete", common.DefaultWidth)
}
