package main

import (
	"context"
	"flag"
	"fmt"

	"creator-ledger-go/internal/common"
	"creator-ledger-go/internal/config"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type commissionFlags struct {
	seller    string
	community string
	gross     string
	admin     string
	feeType   string
	bps       int
	clear     bool
	reason    string
	history   bool
}

func parseFlags() commissionFlags {
	var f commissionFlags
	flag.StringVar(&f.seller, "seller", "", "Seller profile id")
	flag.StringVar(&f.community, "community", "", "Community config id")
	flag.StringVar(&f.gross, "gross", "", "Show how this gross amount splits")
	flag.StringVar(&f.admin, "admin", "", "Admin email; required when changing a rate")
	flag.StringVar(&f.feeType, "set", "", "Fee to change: platform or community")
	flag.IntVar(&f.bps, "bps", -1, "New rate in basis points")
	flag.BoolVar(&f.clear, "clear", false, "Remove the override instead of setting it")
	flag.StringVar(&f.reason, "reason", "", "Reason recorded with the change")
	flag.BoolVar(&f.history, "history", false, "List the change history")
	flag.Parse()
	return f
}

func printChanges(changes []models.CommissionChange) {
	if len(changes) == 0 {
		fmt.Println("No changes recorded")
		return
	}
	for i, c := range changes {
		fmt.Printf("%s%s  %-9s %8s -> %-8s by %s  %s\n",
			common.BoxPrefix(i == len(changes)-1),
			c.CreatedAt.Format("2006-01-02 15:04:05"),
			c.FeeType,
			common.FormatBps(c.PreviousBps),
			common.FormatBps(c.NewBps),
			common.ShortId(c.ChangedBy),
			c.Reason)
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	f := parseFlags()
	if f.seller == "" && f.community == "" {
		zap.L().Fatal("At least one of --seller or --community is required")
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
	ledger := services.ApiService

	if f.feeType != "" {
		if f.admin == "" {
			zap.L().Fatal("--admin is required to change a rate")
		}
		adminCtx, _, err := common.AdminContext(ctx, services.DbService, f.admin)
		if err != nil {
			zap.L().Fatal("Admin lookup failed", zap.Error(err))
		}

		params := store.SetRateParams{FeeType: models.FeeType(f.feeType), Reason: f.reason}
		if !f.clear {
			if f.bps < 0 {
				zap.L().Fatal("--bps or --clear is required with --set")
			}
			bps := f.bps
			params.NewBps = &bps
		}

		// A seller target wins when both ids are given; the community id then only scopes the rate display.
		if f.seller != "" {
			params.TargetId = f.seller
			_, err = ledger.SetSellerRate(adminCtx, params)
		} else {
			params.TargetId = f.community
			_, err = ledger.SetCommunityRate(adminCtx, params)
		}
		if err != nil {
			zap.L().Fatal("Rate change rejected", zap.Error(err))
		}
		fmt.Printf("Updated %s fee to %s\n", f.feeType, common.FormatBps(params.NewBps))
	}

	if f.seller != "" {
		rates, err := ledger.ResolveForSeller(ctx, f.seller, f.community)
		if err != nil {
			zap.L().Fatal("Failed to resolve rates", zap.Error(err))
		}

		common.PrintHeader("EFFECTIVE COMMISSION RATES", common.DefaultWidth)
		fmt.Printf("Seller:    %s\n", f.seller)
		if f.community != "" {
			fmt.Printf("Community: %s\n", f.community)
		}
		platform, community, total := rates.PlatformFeeBps, rates.CommunityFeeBps, rates.TotalFeeBps
		fmt.Printf("Platform:  %-8s (%s)\n", common.FormatBps(&platform), rates.Source.Platform)
		fmt.Printf("Community: %-8s (%s)\n", common.FormatBps(&community), rates.Source.Community)
		fmt.Printf("Total:     %s\n", common.FormatBps(&total))

		if f.gross != "" {
			gross, err := decimal.NewFromString(f.gross)
			if err != nil {
				zap.L().Fatal("Invalid gross amount", zap.Error(err))
			}
			split, err := ledger.SplitPayment(ctx, f.seller, f.community, gross)
			if err != nil {
				zap.L().Fatal("Failed to split payment", zap.Error(err))
			}
			common.PrintSeparator("-", common.DefaultWidth)
			fmt.Printf("Gross:         %s\n", common.FormatUSD(gross))
			fmt.Printf("Platform fee:  %s\n", common.FormatUSD(split.PlatformFee))
			fmt.Printf("Community fee: %s\n", common.FormatUSD(split.CommunityFee))
			fmt.Printf("Seller net:    %s\n", common.FormatUSD(split.Net))
		}
		common.PrintSeparator("=", common.DefaultWidth)
	}

	if f.history {
		changes, err := services.DbService.ListCommissionChanges(ctx, f.seller, f.community)
		if err != nil {
			zap.L().Fatal("Failed to list changes", zap.Error(err))
		}
		common.PrintHeader("COMMISSION CHANGE HISTORY", common.DefaultWidth)
		printChanges(changes)
	}
}
