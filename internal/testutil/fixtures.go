package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"otcbook/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestDesk creates an approved desk with a unique name.
func CreateTestDesk(t *testing.T, db *gorm.DB) *models.Desk {
	t.Helper()

	desk := &models.Desk{
		Name:      fmt.Sprintf("Test Desk %d", nextID()),
		KYCStatus: models.KYCStatusApproved,
	}
	if err := db.Create(desk).Error; err != nil {
		t.Fatalf("failed to create test desk: %v", err)
	}
	return desk
}

// CreateTestUser creates a desk owner on a fresh desk with a hashed
// password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a desk owner with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	desk := CreateTestDesk(t, db)
	return CreateTestDeskMember(t, db, desk.ID, email, models.RoleDeskOwner)
}

// CreateTestDeskMember creates a user on an existing desk with the given role.
func CreateTestDeskMember(t *testing.T, db *gorm.DB, deskID uint, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		FullName: fmt.Sprintf("Test User %d", nextID()),
		Role:     role,
		DeskID:   &deskID,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAsset creates an asset with a unique symbol.
func CreateTestAsset(t *testing.T, db *gorm.DB) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		Symbol:   fmt.Sprintf("TST%d", nextID()),
		Name:     "Test Asset",
		IsActive: true,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestTrade creates a sell trade for the given user. Profit/loss
// is derived by the model hook on insert.
func CreateTestTrade(t *testing.T, db *gorm.DB, user *models.User, assetID uint, amountCash string) *models.Trade {
	t.Helper()

	if user.DeskID == nil {
		t.Fatal("test trade requires a user with a desk")
	}

	trade := &models.Trade{
		TraderID:     user.ID,
		AssetID:      assetID,
		DeskID:       *user.DeskID,
		Side:         models.TradeSideSell,
		TradeType:    models.TradeTypeOTC,
		AmountCrypto: decimal.NewFromInt(1),
		AmountCash:   mustDecimal(t, amountCash),
		Rate:         decimal.NewFromInt(1000),
		TradeDate:    time.Now(),
	}
	if err := db.Create(trade).Error; err != nil {
		t.Fatalf("failed to create test trade: %v", err)
	}
	return trade
}

// CreateTestBadge creates an active badge with the given thresholds.
func CreateTestBadge(t *testing.T, db *gorm.DB, minTrades, minPoints int) *models.Badge {
	t.Helper()

	n := nextID()
	badge := &models.Badge{
		Code:      fmt.Sprintf("test_badge_%d", n),
		Name:      fmt.Sprintf("Test Badge %d", n),
		MinTrades: minTrades,
		MinPoints: minPoints,
		IsActive:  true,
	}
	if err := db.Create(badge).Error; err != nil {
		t.Fatalf("failed to create test badge: %v", err)
	}
	return badge
}

// CreateTestPointEvent appends a point event for the user.
func CreateTestPointEvent(t *testing.T, db *gorm.DB, userID uint, action models.PointAction, points int) *models.PointEvent {
	t.Helper()

	event := &models.PointEvent{
		UserID: userID,
		Action: action,
		Points: points,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("failed to create test point event: %v", err)
	}
	return event
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal fixture %q: %v", value, err)
	}
	return d
}
