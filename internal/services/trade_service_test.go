package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"otcbook/internal/models"
	"otcbook/internal/pagination"
	"otcbook/internal/testutil"
)

func newTradeTestStack(db *gorm.DB) (TradeServicer, PointsServicer) {
	notifier := NewNotificationService(db)
	badges := NewBadgeService(db, notifier)
	points := NewPointsService(db, badges, notifier)
	return NewTradeService(db, points), points
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}
	return d
}

func TestCreateTrade(t *testing.T) {
	t.Run("persists_derived_pnl", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		trade, err := svc.CreateTrade(user.ID, "btc", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		if trade.ID == 0 {
			t.Fatal("expected non-zero trade ID")
		}
		if trade.ProfitLoss.StringFixed(2) != "-100.00" {
			t.Errorf("expected profit_loss -100.00, got %s", trade.ProfitLoss.StringFixed(2))
		}

		var stored models.Trade
		testutil.AssertNoError(t, db.First(&stored, trade.ID).Error)
		if stored.ProfitLoss.StringFixed(2) != "-100.00" {
			t.Errorf("expected stored profit_loss -100.00, got %s", stored.ProfitLoss.StringFixed(2))
		}
	})

	t.Run("uppercases_and_creates_asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		trade, err := svc.CreateTrade(user.ID, "  eth ", models.TradeSideBuy, models.TradeTypeP2P,
			dec(t, "2"), dec(t, "4000"), dec(t, "2000"), time.Now())
		testutil.AssertNoError(t, err)

		if trade.Asset.Symbol != "ETH" {
			t.Errorf("expected asset symbol ETH, got %q", trade.Asset.Symbol)
		}
		if !trade.Asset.IsCustom {
			t.Error("expected auto-created asset to be marked custom")
		}
	})

	t.Run("reuses_existing_asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "1000"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		second, err := svc.CreateTrade(user.ID, "btc", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "1000"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		if first.AssetID != second.AssetID {
			t.Errorf("expected both trades to share asset %d, got %d", first.AssetID, second.AssetID)
		}

		var count int64
		testutil.AssertNoError(t, db.Model(&models.Asset{}).Where("symbol = ?", "BTC").Count(&count).Error)
		if count != 1 {
			t.Errorf("expected 1 BTC asset, got %d", count)
		}
	})

	t.Run("zero_amount_crypto", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "0"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_cash", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "-900"), dec(t, "1000"), time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("zero_rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "0"), time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("blank_symbol", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user.ID, "   ", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("requires_desk", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)

		deskless := &models.User{Email: "nodesk@test.com", Password: "x", IsActive: true}
		testutil.AssertNoError(t, db.Create(deskless).Error)

		_, err := svc.CreateTrade(deskless.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertAppError(t, err, "NO_DESK")
	})

	t.Run("awards_trade_points", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, points := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		total, err := points.TotalPoints(user.ID)
		testutil.AssertNoError(t, err)
		if total != TradePoints+TradePoints*FastTradeBonusPct/100 {
			t.Errorf("expected %d OP after an immediately-logged trade, got %d",
				TradePoints+TradePoints*FastTradeBonusPct/100, total)
		}
	})
}

func TestTradeImmutability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTradeTestStack(db)
	user := testutil.CreateTestUser(t, db)

	trade, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
		dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
	testutil.AssertNoError(t, err)

	err = db.Model(&models.Trade{}).Where("id = ?", trade.ID).
		Update("amount_cash", dec(t, "99999")).Error
	if err == nil {
		t.Fatal("expected update on an existing trade to fail")
	}

	var stored models.Trade
	testutil.AssertNoError(t, db.First(&stored, trade.ID).Error)
	if stored.AmountCash.StringFixed(2) != "900.00" {
		t.Errorf("expected row unchanged at 900.00, got %s", stored.AmountCash.StringFixed(2))
	}
}

func TestGetUserTrades(t *testing.T) {
	t.Run("orders_newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		old := time.Now().Add(-48 * time.Hour)
		recent := time.Now()

		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), old)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTrade(user.ID, "ETH", models.TradeSideBuy, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "2000"), dec(t, "2000"), recent)
		testutil.AssertNoError(t, err)

		result, err := svc.GetUserTrades(user.ID, pagination.PageRequest{}, TradeFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Fatalf("expected 2 trades, got %d", result.TotalItems)
		}
		if result.Data[0].Asset.Symbol != "ETH" {
			t.Errorf("expected newest trade first, got %s", result.Data[0].Asset.Symbol)
		}
	})

	t.Run("excludes_other_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user1.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		result, err := svc.GetUserTrades(user2.ID, pagination.PageRequest{}, TradeFilter{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 0 {
			t.Errorf("expected 0 trades for the other user, got %d", result.TotalItems)
		}
	})

	t.Run("filters_by_asset_and_side", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTrade(user.ID, "BTC", models.TradeSideBuy, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "1000"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTrade(user.ID, "ETH", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "2000"), dec(t, "2000"), time.Now())
		testutil.AssertNoError(t, err)

		symbol := "btc"
		side := models.TradeSideSell
		result, err := svc.GetUserTrades(user.ID, pagination.PageRequest{}, TradeFilter{
			AssetSymbol: &symbol,
			Side:        &side,
		})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 filtered trade, got %d", result.TotalItems)
		}
		if result.Data[0].Side != models.TradeSideSell {
			t.Errorf("expected sell trade, got %s", result.Data[0].Side)
		}
	})

	t.Run("filters_by_profitability", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		// One winning sell, one losing sell.
		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "1100"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		profitable := true
		result, err := svc.GetUserTrades(user.ID, pagination.PageRequest{}, TradeFilter{IsProfitable: &profitable})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 profitable trade, got %d", result.TotalItems)
		}
		if !result.Data[0].ProfitLoss.IsPositive() {
			t.Errorf("expected positive profit_loss, got %s", result.Data[0].ProfitLoss)
		}
	})

	t.Run("filters_by_date_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now().AddDate(0, 0, -30))
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		start := time.Now().AddDate(0, 0, -7)
		result, err := svc.GetUserTrades(user.ID, pagination.PageRequest{}, TradeFilter{StartDate: &start})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 trade in range, got %d", result.TotalItems)
		}
	})
}

func TestGetTradeByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTradeTestStack(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	trade, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
		dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now())
	testutil.AssertNoError(t, err)

	found, err := svc.GetTradeByID(user.ID, trade.ID)
	testutil.AssertNoError(t, err)
	if found.ID != trade.ID {
		t.Errorf("expected trade %d, got %d", trade.ID, found.ID)
	}

	_, err = svc.GetTradeByID(other.ID, trade.ID)
	testutil.AssertAppError(t, err, "TRADE_NOT_FOUND")

	_, err = svc.GetTradeByID(user.ID, 99999)
	testutil.AssertAppError(t, err, "TRADE_NOT_FOUND")
}

func TestPnLSummary(t *testing.T) {
	t.Run("empty_set_yields_zeroes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		summary, err := svc.PnLSummary(user.ID, TradeFilter{})
		testutil.AssertNoError(t, err)

		if summary.TotalTrades != 0 {
			t.Errorf("expected 0 trades, got %d", summary.TotalTrades)
		}
		if !summary.TotalProfitLoss.IsZero() {
			t.Errorf("expected zero total P&L, got %s", summary.TotalProfitLoss)
		}
		if summary.ByAsset == nil || summary.ByDesk == nil || summary.ByDate == nil {
			t.Error("expected empty slices, not nil")
		}
	})

	t.Run("aggregates_and_groups", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTradeTestStack(db)
		user := testutil.CreateTestUser(t, db)

		// BTC: +100 sell. ETH: -50 sell. One buy for volume: +0.
		_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "1100"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTrade(user.ID, "ETH", models.TradeSideSell, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "1950"), dec(t, "2000"), time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTrade(user.ID, "BTC", models.TradeSideBuy, models.TradeTypeOTC,
			dec(t, "1"), dec(t, "1000"), dec(t, "1000"), time.Now())
		testutil.AssertNoError(t, err)

		summary, err := svc.PnLSummary(user.ID, TradeFilter{})
		testutil.AssertNoError(t, err)

		if summary.TotalTrades != 3 {
			t.Errorf("expected 3 trades, got %d", summary.TotalTrades)
		}
		if summary.TotalProfitLoss.StringFixed(2) != "50.00" {
			t.Errorf("expected total P&L 50.00, got %s", summary.TotalProfitLoss.StringFixed(2))
		}
		if summary.TotalBuyVolume.StringFixed(2) != "1000.00" {
			t.Errorf("expected buy volume 1000.00, got %s", summary.TotalBuyVolume.StringFixed(2))
		}
		if summary.TotalSellVolume.StringFixed(2) != "3050.00" {
			t.Errorf("expected sell volume 3050.00, got %s", summary.TotalSellVolume.StringFixed(2))
		}

		if len(summary.ByAsset) != 2 {
			t.Fatalf("expected 2 asset buckets, got %d", len(summary.ByAsset))
		}
		// Ordered by profit, best first.
		if summary.ByAsset[0].Key != "BTC" || summary.ByAsset[0].ProfitLoss.StringFixed(2) != "100.00" {
			t.Errorf("expected BTC bucket at +100.00 first, got %s at %s",
				summary.ByAsset[0].Key, summary.ByAsset[0].ProfitLoss.StringFixed(2))
		}
		if summary.ByAsset[1].Key != "ETH" || summary.ByAsset[1].ProfitLoss.StringFixed(2) != "-50.00" {
			t.Errorf("expected ETH bucket at -50.00 second, got %s at %s",
				summary.ByAsset[1].Key, summary.ByAsset[1].ProfitLoss.StringFixed(2))
		}

		if len(summary.ByDesk) != 1 {
			t.Fatalf("expected 1 desk bucket, got %d", len(summary.ByDesk))
		}
		if summary.ByDesk[0].Trades != 3 {
			t.Errorf("expected 3 trades in desk bucket, got %d", summary.ByDesk[0].Trades)
		}

		if len(summary.ByDate) != 1 {
			t.Fatalf("expected 1 date bucket, got %d", len(summary.ByDate))
		}
	})
}

func TestExportCSV(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTradeTestStack(db)
	user := testutil.CreateTestUser(t, db)

	_, err := svc.CreateTrade(user.ID, "BTC", models.TradeSideSell, models.TradeTypeOTC,
		dec(t, "1"), dec(t, "900"), dec(t, "1000"), time.Now().Add(-24*time.Hour))
	testutil.AssertNoError(t, err)
	_, err = svc.CreateTrade(user.ID, "ETH", models.TradeSideBuy, models.TradeTypeOTC,
		dec(t, "1"), dec(t, "2000"), dec(t, "2000"), time.Now())
	testutil.AssertNoError(t, err)

	var buf bytes.Buffer
	testutil.AssertNoError(t, svc.ExportCSV(user.ID, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	testutil.AssertNoError(t, err)

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "Trade ID" || records[0][9] != "Profit/Loss" {
		t.Errorf("unexpected header: %v", records[0])
	}
	// Newest first.
	if records[1][2] != "ETH" {
		t.Errorf("expected newest trade (ETH) first, got %s", records[1][2])
	}
	if records[2][2] != "BTC" || records[2][9] != "-100.00" {
		t.Errorf("expected BTC row with -100.00, got %v", records[2])
	}
	if records[1][4] != "BUY" {
		t.Errorf("expected uppercase side BUY, got %s", records[1][4])
	}
}
