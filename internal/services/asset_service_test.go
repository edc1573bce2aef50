package services

import (
	"context"
	"testing"

	"dashworth/internal/currency"
	"dashworth/internal/models"
	"dashworth/internal/pagination"
	"dashworth/internal/testutil"
)

func TestCreateAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a manual asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Cash")
		service := NewAssetService(db, staticRates{}, nil)

		asset, err := service.CreateAsset(ctx, CreateAssetInput{
			Name:         "Checking",
			CategoryID:   category.ID,
			Currency:     models.CurrencyUSD,
			CurrentValue: 1200,
		})
		testutil.AssertNoError(t, err)
		if asset.PriceSource != models.PriceSourceManual {
			t.Errorf("expected manual price source default, got %q", asset.PriceSource)
		}
		testutil.AssertClose(t, asset.CurrentValue, 1200, 1e-9)
	})

	t.Run("auto-priced asset derives its value from quantity and price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Crypto")
		service := NewAssetService(db, staticRates{}, nil)

		asset, err := service.CreateAsset(ctx, CreateAssetInput{
			Name:        "Bitcoin",
			CategoryID:  category.ID,
			Currency:    models.CurrencyUSD,
			Ticker:      "bitcoin",
			PriceSource: models.PriceSourceCoinGecko,
			Quantity:    0.5,
			UnitPrice:   60000,
		})
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, asset.CurrentValue, 30000, 1e-9)
	})

	t.Run("rejects missing name, bad currency, negative quantity, unknown category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Cash")
		service := NewAssetService(db, staticRates{}, nil)

		_, err := service.CreateAsset(ctx, CreateAssetInput{CategoryID: category.ID, Currency: models.CurrencyUSD})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = service.CreateAsset(ctx, CreateAssetInput{Name: "X", CategoryID: category.ID, Currency: "GBP"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = service.CreateAsset(ctx, CreateAssetInput{Name: "X", CategoryID: category.ID, Currency: models.CurrencyUSD, Quantity: -1})
		testutil.AssertAppError(t, err, "NEGATIVE_QUANTITY")

		_, err = service.CreateAsset(ctx, CreateAssetInput{Name: "X", CategoryID: "nope", Currency: models.CurrencyUSD})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestQuickUpdate(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (AssetServicer, *models.Asset, func()) {
		db := testutil.SetupTestDB(t)
		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Crypto")
		asset := testutil.CreateTestAutoAsset(t, db, category.ID, models.CurrencyUSD, models.PriceSourceCoinGecko, "ethereum", 4, 2500)
		service := NewAssetService(db, staticRates{}, nil)
		return service, asset, func() { testutil.TeardownTestDB(t, db) }
	}

	t.Run("add applies a quantity delta", func(t *testing.T) {
		service, asset, teardown := setup(t)
		defer teardown()

		updated, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeAdd, Amount: 1})
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, updated.Quantity, 5, 1e-9)
		testutil.AssertClose(t, updated.CurrentValue, 12500, 1e-9)
	})

	t.Run("add may sell the position down to exactly zero", func(t *testing.T) {
		service, asset, teardown := setup(t)
		defer teardown()

		updated, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeAdd, Amount: -4})
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, updated.Quantity, 0, 1e-9)
		testutil.AssertClose(t, updated.CurrentValue, 0, 1e-9)
	})

	t.Run("add refuses a negative resulting quantity", func(t *testing.T) {
		service, asset, teardown := setup(t)
		defer teardown()

		_, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeAdd, Amount: -4.5})
		testutil.AssertAppError(t, err, "NEGATIVE_QUANTITY")
	})

	t.Run("set-qty replaces the quantity", func(t *testing.T) {
		service, asset, teardown := setup(t)
		defer teardown()

		updated, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeSetQty, Amount: 10})
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, updated.CurrentValue, 25000, 1e-9)

		_, err = service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeSetQty, Amount: -1})
		testutil.AssertAppError(t, err, "NEGATIVE_QUANTITY")
	})

	t.Run("set-value bypasses the derived value", func(t *testing.T) {
		service, asset, teardown := setup(t)
		defer teardown()

		updated, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeSetValue, Amount: 9999})
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, updated.CurrentValue, 9999, 1e-9)
	})

	t.Run("manual assets refuse the quantity modes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Cash")
		asset := testutil.CreateTestAsset(t, db, category.ID, models.CurrencyUSD, 500)
		service := NewAssetService(db, staticRates{}, nil)

		_, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeAdd, Amount: 1})
		testutil.AssertAppError(t, err, "NOT_AUTO_PRICED")

		updated, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeSetValue, Amount: 750})
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, updated.CurrentValue, 750, 1e-9)
	})
}

func TestAssetChangeLog(t *testing.T) {
	ctx := context.Background()

	t.Run("a value move writes one change entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Cash")
		asset := testutil.CreateTestAsset(t, db, category.ID, models.CurrencyUSD, 1000)
		service := NewAssetService(db, staticRates{}, nil)

		_, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeSetValue, Amount: 1500, Note: "bonus"})
		testutil.AssertNoError(t, err)

		page, err := service.GetChanges(asset.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 {
			t.Fatalf("expected 1 change entry, got %d", len(page.Data))
		}
		entry := page.Data[0]
		testutil.AssertClose(t, entry.OldValue, 1000, 1e-9)
		testutil.AssertClose(t, entry.NewValue, 1500, 1e-9)
		if entry.Note != "bonus" {
			t.Errorf("expected note to carry through, got %q", entry.Note)
		}
		if entry.Source != models.ChangeSourceManual {
			t.Errorf("expected manual source, got %q", entry.Source)
		}
	})

	t.Run("a sub-unit move writes no entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Cash")
		asset := testutil.CreateTestAsset(t, db, category.ID, models.CurrencyUSD, 1000)
		service := NewAssetService(db, staticRates{}, nil)

		_, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeSetValue, Amount: 1000.4})
		testutil.AssertNoError(t, err)

		page, err := service.GetChanges(asset.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 0 {
			t.Errorf("expected no change entries, got %d", len(page.Data))
		}
	})

	t.Run("a currency change converts the old value before comparing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Cash")
		asset := testutil.CreateTestAsset(t, db, category.ID, models.CurrencyUSD, 1000)
		service := NewAssetService(db, staticRates{}, nil)

		updated, err := service.UpdateAsset(ctx, asset.ID, UpdateAssetInput{
			Currency:     ptr(models.CurrencyEUR),
			CurrentValue: ptr(920.0),
		})
		testutil.AssertNoError(t, err)
		if updated.Currency != models.CurrencyEUR {
			t.Fatalf("expected EUR, got %q", updated.Currency)
		}

		// 1000 USD converts to 920 EUR under the fallback table, so the
		// rounded delta is zero and no entry appears.
		page, err := service.GetChanges(asset.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 0 {
			t.Errorf("expected no change entries for an equal-value currency switch, got %d", len(page.Data))
		}
	})

	t.Run("change log survives asset deletion", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		category := testutil.CreateTestCategory(t, db, "Cash")
		asset := testutil.CreateTestAsset(t, db, category.ID, models.CurrencyUSD, 1000)
		service := NewAssetService(db, staticRates{}, nil)

		_, err := service.QuickUpdate(ctx, asset.ID, QuickUpdateInput{Mode: QuickModeSetValue, Amount: 2000})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, service.DeleteAsset(ctx, asset.ID))

		page, err := service.GetAllChanges(pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 {
			t.Fatalf("expected the change entry to survive, got %d entries", len(page.Data))
		}
		if page.Data[0].AssetName != asset.Name {
			t.Errorf("expected denormalized asset name %q, got %q", asset.Name, page.Data[0].AssetName)
		}
	})
}

func TestAssetMutationsNotifyObserver(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	testutil.CreateTestSettings(t, db)
	category := testutil.CreateTestCategory(t, db, "Cash")
	obs := &recordingObserver{}
	service := NewAssetService(db, staticRates{}, obs)

	asset, err := service.CreateAsset(ctx, CreateAssetInput{
		Name:         "Savings",
		CategoryID:   category.ID,
		Currency:     models.CurrencyEUR,
		CurrentValue: 920,
	})
	testutil.AssertNoError(t, err)

	if len(obs.totals) != 1 {
		t.Fatalf("expected 1 notification after create, got %d", len(obs.totals))
	}
	// 920 EUR in USD under the fallback table.
	want := currency.Convert(920, models.CurrencyEUR, models.CurrencyUSD, currency.Fallback)
	testutil.AssertClose(t, obs.totals[0], want, 1e-9)
	if obs.currencies[0] != models.CurrencyUSD {
		t.Errorf("expected totals observed in the primary currency, got %q", obs.currencies[0])
	}

	_, err = service.SetArchived(ctx, asset.ID, true)
	testutil.AssertNoError(t, err)
	if len(obs.totals) != 2 {
		t.Fatalf("expected a notification after archiving, got %d", len(obs.totals))
	}
	testutil.AssertClose(t, obs.totals[1], 0, 1e-9)
}
