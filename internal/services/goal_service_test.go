package services

import (
	"context"
	"testing"
	"time"

	"dashworth/internal/models"
	"dashworth/internal/testutil"

	"gorm.io/gorm"
)

func seedHistory(t *testing.T, db *gorm.DB, points []float64, spacing time.Duration) {
	t.Helper()

	start := time.Now().Add(-time.Duration(len(points)) * spacing)
	for i, v := range points {
		entry := models.HistoryEntry{
			TotalValue: v,
			Currency:   models.CurrencyUSD,
			Source:     "auto",
			CreatedAt:  start.Add(time.Duration(i) * spacing),
		}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}
}

func TestGoalEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("net-worth goal reports clamped percent progress", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 25000)
		service := NewGoalService(db, staticRates{})

		_, err := service.CreateGoal(GoalInput{Name: "100k", Amount: 100000})
		testutil.AssertNoError(t, err)

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		testutil.AssertClose(t, results[0].Percent, 25, 1e-9)
		if results[0].Reached {
			t.Error("expected goal not reached")
		}
		if results[0].Currency != models.CurrencyUSD {
			t.Errorf("expected goal currency to default to primary, got %q", results[0].Currency)
		}
	})

	t.Run("overshooting the target clamps at 100 and stamps reached once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 150000)
		service := NewGoalService(db, staticRates{})

		_, err := service.CreateGoal(GoalInput{Name: "100k", Amount: 100000})
		testutil.AssertNoError(t, err)

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, results[0].Percent, 100, 1e-9)
		if !results[0].Reached {
			t.Fatal("expected goal reached")
		}
		firstStamp := results[0].Goal.ReachedAt
		if firstStamp == nil {
			t.Fatal("expected reached timestamp")
		}

		results, err = service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if !results[0].Goal.ReachedAt.Equal(*firstStamp) {
			t.Error("expected the reached timestamp to stay fixed on re-evaluation")
		}
	})

	t.Run("liability goal counts debt payoff toward the target", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		debts := testutil.CreateTestLiabilityCategory(t, db, "Debts")
		loan := testutil.CreateTestAsset(t, db, debts.ID, models.CurrencyUSD, 10000)
		service := NewGoalService(db, staticRates{})

		_, err := service.CreateGoal(GoalInput{
			Name:     "Pay down the loan",
			Amount:   4000,
			LinkType: models.LinkTypeAsset,
			LinkID:   loan.ID,
		})
		testutil.AssertNoError(t, err)

		// First evaluation captures the 10000 baseline; no payoff yet.
		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if !results[0].IsLiability {
			t.Fatal("expected liability direction")
		}
		testutil.AssertClose(t, results[0].Percent, 0, 1e-9)
		if results[0].Goal.InitialValue == nil {
			t.Fatal("expected baseline to be captured")
		}
		testutil.AssertClose(t, *results[0].Goal.InitialValue, 10000, 1e-9)

		// Paying the balance down to 6400 is 3600 of the 6000 gap: 60%.
		if err := db.Model(loan).Update("current_value", 6400).Error; err != nil {
			t.Fatalf("failed to update loan: %v", err)
		}
		results, err = service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, results[0].Percent, 60, 1e-9)
		if results[0].Reached {
			t.Error("expected goal not reached at 60%")
		}

		// The baseline stays fixed even as the balance moves.
		testutil.AssertClose(t, *results[0].Goal.InitialValue, 10000, 1e-9)

		if err := db.Model(loan).Update("current_value", 4000).Error; err != nil {
			t.Fatalf("failed to update loan: %v", err)
		}
		results, err = service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, results[0].Percent, 100, 1e-9)
		if !results[0].Reached {
			t.Error("expected goal reached at the target balance")
		}
	})

	t.Run("deleted link reports broken instead of failing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		asset := testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 500)
		service := NewGoalService(db, staticRates{})

		_, err := service.CreateGoal(GoalInput{
			Name:     "Asset goal",
			Amount:   1000,
			LinkType: models.LinkTypeAsset,
			LinkID:   asset.ID,
		})
		testutil.AssertNoError(t, err)

		if err := db.Delete(asset).Error; err != nil {
			t.Fatalf("failed to delete asset: %v", err)
		}

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if !results[0].LinkBroken {
			t.Error("expected broken link to be reported")
		}
	})

	t.Run("category goal sums its active assets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		other := testutil.CreateTestCategory(t, db, "Other")
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 300)
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 200)
		testutil.CreateTestAsset(t, db, other.ID, models.CurrencyUSD, 9999)
		service := NewGoalService(db, staticRates{})

		_, err := service.CreateGoal(GoalInput{
			Name:     "Cash cushion",
			Amount:   1000,
			LinkType: models.LinkTypeCategory,
			LinkID:   cash.ID,
		})
		testutil.AssertNoError(t, err)

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, results[0].Current, 500, 1e-9)
		testutil.AssertClose(t, results[0].Percent, 50, 1e-9)
	})

	t.Run("projection estimates days to target from recent history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 10900)
		service := NewGoalService(db, staticRates{})

		// Rising 100 a day over the last ten days.
		values := make([]float64, 10)
		for i := range values {
			values[i] = 10000 + float64(i)*100
		}
		seedHistory(t, db, values, 24*time.Hour)

		_, err := service.CreateGoal(GoalInput{Name: "12k", Amount: 12000})
		testutil.AssertNoError(t, err)

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if results[0].ProjectedDays == nil {
			t.Fatal("expected a projection for a rising trend")
		}
		// 1100 remaining at 100 a day.
		if *results[0].ProjectedDays != 11 {
			t.Errorf("expected 11 projected days, got %d", *results[0].ProjectedDays)
		}
	})

	t.Run("flat trend yields no projection", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 10000)
		service := NewGoalService(db, staticRates{})

		seedHistory(t, db, []float64{10000, 10000, 10000}, 24*time.Hour)

		_, err := service.CreateGoal(GoalInput{Name: "12k", Amount: 12000})
		testutil.AssertNoError(t, err)

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if results[0].ProjectedDays != nil {
			t.Errorf("expected no projection for a flat trend, got %d", *results[0].ProjectedDays)
		}
	})

	t.Run("on-track compares against the straight line to the target date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 11600)
		service := NewGoalService(db, staticRates{})

		// Fifteen days in, starting at 10000 with a 12000 target twenty days
		// from the first point: the expected pace value is 11500.
		seedHistory(t, db, []float64{10000, 10500, 11000}, 5*24*time.Hour)
		target := time.Now().Add(5 * 24 * time.Hour)

		_, err := service.CreateGoal(GoalInput{Name: "12k", Amount: 12000, TargetDate: &target})
		testutil.AssertNoError(t, err)

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if results[0].OnTrack == nil {
			t.Fatal("expected an on-track verdict with a target date set")
		}
		if !*results[0].OnTrack {
			t.Error("expected the goal to be on track")
		}
	})
}

func TestGoalManagement(t *testing.T) {
	t.Run("create validates its input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		service := NewGoalService(db, staticRates{})

		_, err := service.CreateGoal(GoalInput{Amount: 100})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = service.CreateGoal(GoalInput{Name: "X", Amount: 100, LinkType: models.LinkTypeAsset})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = service.CreateGoal(GoalInput{Name: "X", Amount: 100, Currency: "GBP"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("retargeting resets the one-time stamps", func(t *testing.T) {
		ctx := context.Background()
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		cash := testutil.CreateTestCategory(t, db, "Cash")
		testutil.CreateTestAsset(t, db, cash.ID, models.CurrencyUSD, 5000)
		service := NewGoalService(db, staticRates{})

		goal, err := service.CreateGoal(GoalInput{Name: "5k", Amount: 5000})
		testutil.AssertNoError(t, err)

		results, err := service.Evaluate(ctx)
		testutil.AssertNoError(t, err)
		if !results[0].Reached {
			t.Fatal("expected goal reached")
		}
		testutil.AssertNoError(t, service.MarkCelebrated(goal.ID))

		updated, err := service.UpdateGoal(goal.ID, GoalInput{Name: "10k", Amount: 10000})
		testutil.AssertNoError(t, err)
		if updated.ReachedAt != nil || updated.CelebratedAt != nil {
			t.Error("expected retargeting to reset the reached and celebrated stamps")
		}
	})

	t.Run("celebration is stamped at most once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		service := NewGoalService(db, staticRates{})

		goal, err := service.CreateGoal(GoalInput{Name: "X", Amount: 100})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, service.MarkCelebrated(goal.ID))

		var settings models.Settings
		if err := db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
			t.Fatalf("failed to load settings: %v", err)
		}
		first := settings.FindGoal(goal.ID).CelebratedAt
		if first == nil {
			t.Fatal("expected celebration stamp")
		}

		testutil.AssertNoError(t, service.MarkCelebrated(goal.ID))
		if err := db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
			t.Fatalf("failed to load settings: %v", err)
		}
		if !settings.FindGoal(goal.ID).CelebratedAt.Equal(*first) {
			t.Error("expected the celebration stamp to stay fixed")
		}
	})

	t.Run("delete removes the goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestSettings(t, db)
		service := NewGoalService(db, staticRates{})

		goal, err := service.CreateGoal(GoalInput{Name: "X", Amount: 100})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, service.DeleteGoal(goal.ID))
		testutil.AssertAppError(t, service.DeleteGoal(goal.ID), "GOAL_NOT_FOUND")
	})
}
