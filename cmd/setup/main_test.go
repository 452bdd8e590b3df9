package main

import (
	"context"
	"testing"
	"time"

	"creator-ledger-go/internal/database"
	"creator-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.Service {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestSeedBoost(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	boost, err := seedBoost(ctx, db, "B1", "", "250")
	require.NoError(t, err)
	assert.Equal(t, "Boost B1", boost.Name)
	assert.True(t, boost.Budget.Equal(decimal.NewFromInt(250)))

	stored, err := db.GetBoost(ctx, "B1")
	require.NoError(t, err)
	assert.True(t, stored.BudgetUsed.IsZero())

	// Seeding again keeps the existing row.
	again, err := seedBoost(ctx, db, "B1", "Renamed", "999")
	require.NoError(t, err)
	assert.Equal(t, "Boost B1", again.Name)
	assert.True(t, again.Budget.Equal(decimal.NewFromInt(250)))

	_, err = seedBoost(ctx, db, "B2", "Bad", "lots")
	assert.ErrorContains(t, err, "invalid boost budget")
}

func TestSeedCampaign(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	campaign, err := seedCampaign(ctx, db, "C1", "1000", "2.50")
	require.NoError(t, err)
	assert.True(t, campaign.RpmRate.Equal(decimal.RequireFromString("2.50")))

	_, err = seedCampaign(ctx, db, "C2", "1000", "fast")
	assert.ErrorContains(t, err, "invalid campaign rpm")
}

func TestSeedCommunity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	community, err := seedCommunity(ctx, db, "G1", "Guild", 300)
	require.NoError(t, err)
	require.NotNil(t, community.CommunityFeeBps)
	assert.Equal(t, 300, *community.CommunityFeeBps)

	again, err := seedCommunity(ctx, db, "G1", "Other", 100)
	require.NoError(t, err)
	assert.Equal(t, "Guild", again.Name)

	defaults, err := seedCommunity(ctx, db, "G2", "Plain", -1)
	require.NoError(t, err)
	assert.Nil(t, defaults.CommunityFeeBps)

	// Above the combined fee ceiling.
	_, err = seedCommunity(ctx, db, "G3", "Greedy", 9500)
	assert.Error(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	admin, err := ensureAdmin(ctx, db, "Root", "root@example.com")
	require.NoError(t, err)

	again, err := ensureAdmin(ctx, db, "Root", "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.Id, again.Id)

	roles, err := db.GetRoles(ctx, admin.Id)
	require.NoError(t, err)
	assert.Contains(t, roles, models.RoleAdmin)
}
