package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"dashworth/internal/currency"
	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
	"dashworth/internal/uuid"
	"dashworth/internal/valuation"
)

// projectionWindow is how far back the trend projection prefers to look.
// With fewer than two points in the window, the whole series is used.
const projectionWindow = 30 * 24 * time.Hour

// GoalProgress is one goal's evaluated state.
type GoalProgress struct {
	Goal     models.Goal `json:"goal"`
	Current  float64     `json:"current"`
	Target   float64     `json:"target"`
	Currency string      `json:"currency"`
	Percent  float64     `json:"percent"`
	Reached  bool        `json:"reached"`

	// LinkBroken reports that the linked asset or category no longer
	// exists. A broken goal renders degraded instead of crashing; Current
	// and Percent are meaningless while set.
	LinkBroken bool `json:"link_broken"`

	// IsLiability flips the progress direction: paying a debt down toward
	// the target counts up.
	IsLiability bool `json:"is_liability"`

	// ProjectedDays estimates days until the target at the recent average
	// daily change. Nil when no projection applies (linked goal, already
	// reached, flat or negative trend, not enough history).
	ProjectedDays *int `json:"projected_days,omitempty"`

	// OnTrack compares the current value against a straight line from the
	// first history point to the target at the target date. Nil when no
	// target date is set or the goal is linked or reached.
	OnTrack *bool `json:"on_track,omitempty"`
}

// goalService evaluates and manages goals stored on the settings singleton.
type goalService struct {
	db    *gorm.DB
	rates RateSource
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, rates RateSource) GoalServicer {
	return &goalService{db: db, rates: rates}
}

// GoalInput carries the user-editable fields of a goal.
type GoalInput struct {
	Name       string
	Amount     float64
	Currency   string
	TargetDate *time.Time
	LinkType   models.LinkType
	LinkID     string
	Hidden     bool
	Color      string
}

func (in *GoalInput) validate() error {
	if in.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if in.LinkType != models.LinkTypeNetWorth && in.LinkID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "linked goal requires a link id")
	}
	if in.Currency != "" && !models.IsSupportedCurrency(in.Currency) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency")
	}
	return nil
}

// Evaluate computes progress for every goal against the live valuation and
// history series. First-time side effects (lazy initial value for liability
// goals, the one-time reached stamp) are persisted back to settings in a
// single save.
func (s *goalService) Evaluate(ctx context.Context) ([]GoalProgress, error) {
	var settings models.Settings
	if err := s.db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var assets []models.Asset
	if err := s.db.Where("is_archived = ?", false).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var historySeries []models.HistoryEntry
	if err := s.db.Order("created_at").Find(&historySeries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rates := s.rates.Current(ctx)
	now := time.Now()

	results := make([]GoalProgress, 0, len(settings.Goals))
	dirty := false
	for i := range settings.Goals {
		goal := &settings.Goals[i]
		progress := s.evaluateOne(goal, &settings, assets, categories, historySeries, rates, now, &dirty)
		results = append(results, progress)
	}

	if dirty {
		if err := s.db.Save(&settings).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return results, nil
}

// evaluateOne computes a single goal's progress. It may mutate the goal
// (lazy initial value, reached stamp), setting *dirty when it does.
func (s *goalService) evaluateOne(
	goal *models.Goal,
	settings *models.Settings,
	assets []models.Asset,
	categories []models.Category,
	historySeries []models.HistoryEntry,
	rates currency.Rates,
	now time.Time,
	dirty *bool,
) GoalProgress {
	goalCurrency := goal.Currency
	if goalCurrency == "" {
		goalCurrency = settings.PrimaryCurrency
	}

	progress := GoalProgress{
		Goal:     *goal,
		Target:   goal.Amount,
		Currency: goalCurrency,
	}

	current, isLiability, broken := resolveCurrent(goal, assets, categories, goalCurrency, rates)
	if broken {
		progress.LinkBroken = true
		return progress
	}
	progress.Current = current
	progress.IsLiability = isLiability

	if isLiability {
		// The payoff baseline is captured once, on first evaluation, and
		// kept stable as the debt fluctuates afterwards.
		if goal.InitialValue == nil {
			initial := current
			goal.InitialValue = &initial
			*dirty = true
		}
		initial := *goal.InitialValue
		denom := initial - goal.Amount
		if denom > 0 {
			progress.Percent = clampPercent((initial - current) / denom * 100)
		} else if current <= goal.Amount {
			progress.Percent = 100
		}
		progress.Reached = current <= goal.Amount
	} else {
		if goal.Amount > 0 {
			progress.Percent = math.Min(current/goal.Amount, 1) * 100
		}
		progress.Reached = current >= goal.Amount
	}

	if progress.Reached && goal.ReachedAt == nil {
		reachedAt := now
		goal.ReachedAt = &reachedAt
		*dirty = true
	}
	progress.Goal = *goal

	if goal.LinkType == models.LinkTypeNetWorth && !progress.Reached {
		progress.ProjectedDays = projectDays(historySeries, current, goal.Amount, goalCurrency, rates, now)
		progress.OnTrack = onTrack(historySeries, goal, current, goalCurrency, rates, now)
	}

	return progress
}

// resolveCurrent resolves the value a goal measures itself against.
func resolveCurrent(
	goal *models.Goal,
	assets []models.Asset,
	categories []models.Category,
	goalCurrency string,
	rates currency.Rates,
) (current float64, isLiability, broken bool) {
	liabilityByCategory := make(map[string]bool, len(categories))
	for _, c := range categories {
		liabilityByCategory[c.ID] = c.IsLiability
	}

	switch goal.LinkType {
	case models.LinkTypeAsset:
		for i := range assets {
			if assets[i].ID == goal.LinkID {
				value := currency.Convert(assets[i].CurrentValue, assets[i].Currency, goalCurrency, rates)
				return value, liabilityByCategory[assets[i].CategoryID], false
			}
		}
		return 0, false, true

	case models.LinkTypeCategory:
		found := false
		for _, c := range categories {
			if c.ID == goal.LinkID {
				found = true
				isLiability = c.IsLiability
				break
			}
		}
		if !found {
			return 0, false, true
		}
		var sum float64
		for i := range assets {
			if assets[i].CategoryID == goal.LinkID {
				sum += currency.Convert(assets[i].CurrentValue, assets[i].Currency, goalCurrency, rates)
			}
		}
		return sum, isLiability, false

	default:
		breakdown := valuation.NetWorth(assets, categories, goalCurrency, rates)
		return breakdown.NetWorth, false, false
	}
}

// projectDays extrapolates days-to-target from the average daily net-worth
// change. Prefers the last 30 days; falls back to the whole series when the
// window holds fewer than two points. A flat or negative trend yields no
// projection rather than a nonsensical ETA.
func projectDays(
	historySeries []models.HistoryEntry,
	current, target float64,
	goalCurrency string,
	rates currency.Rates,
	now time.Time,
) *int {
	series := historySeries
	cutoff := now.Add(-projectionWindow)
	var recent []models.HistoryEntry
	for _, e := range historySeries {
		if !e.CreatedAt.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	if len(recent) >= 2 {
		series = recent
	}
	if len(series) < 2 {
		return nil
	}

	first := series[0]
	last := series[len(series)-1]
	days := last.CreatedAt.Sub(first.CreatedAt).Hours() / 24
	if days <= 0 {
		return nil
	}

	firstValue := currency.Convert(first.TotalValue, first.Currency, goalCurrency, rates)
	lastValue := currency.Convert(last.TotalValue, last.Currency, goalCurrency, rates)
	avgDaily := (lastValue - firstValue) / days
	if avgDaily <= 0 {
		return nil
	}

	remaining := target - current
	if remaining <= 0 {
		return nil
	}
	eta := int(math.Ceil(remaining / avgDaily))
	return &eta
}

// onTrack interpolates the expected value at the current elapsed fraction of
// the window from the first history point to the target date, and reports
// whether the actual value keeps up.
func onTrack(
	historySeries []models.HistoryEntry,
	goal *models.Goal,
	current float64,
	goalCurrency string,
	rates currency.Rates,
	now time.Time,
) *bool {
	if goal.TargetDate == nil || len(historySeries) == 0 {
		return nil
	}

	first := historySeries[0]
	window := goal.TargetDate.Sub(first.CreatedAt)
	if window <= 0 {
		return nil
	}

	fraction := now.Sub(first.CreatedAt).Seconds() / window.Seconds()
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	firstValue := currency.Convert(first.TotalValue, first.Currency, goalCurrency, rates)
	expected := firstValue + (goal.Amount-firstValue)*fraction
	result := current >= expected
	return &result
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CreateGoal appends a new goal to the settings singleton.
func (s *goalService) CreateGoal(input GoalInput) (*models.Goal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var settings models.Settings
	if err := s.db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	goal := models.Goal{
		ID:         uuid.New(),
		Name:       input.Name,
		Amount:     input.Amount,
		Currency:   input.Currency,
		TargetDate: input.TargetDate,
		LinkType:   input.LinkType,
		LinkID:     input.LinkID,
		Hidden:     input.Hidden,
		Color:      input.Color,
	}
	settings.Goals = append(settings.Goals, goal)

	if err := s.db.Save(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal replaces a goal's editable fields. Changing the target amount
// or link resets the one-time reached stamp and liability baseline, since
// they were measured against the old target.
func (s *goalService) UpdateGoal(id string, input GoalInput) (*models.Goal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var settings models.Settings
	if err := s.db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	goal := settings.FindGoal(id)
	if goal == nil {
		return nil, apperrors.ErrGoalNotFound
	}

	retargeted := goal.Amount != input.Amount || goal.LinkType != input.LinkType || goal.LinkID != input.LinkID

	goal.Name = input.Name
	goal.Amount = input.Amount
	goal.Currency = input.Currency
	goal.TargetDate = input.TargetDate
	goal.LinkType = input.LinkType
	goal.LinkID = input.LinkID
	goal.Hidden = input.Hidden
	goal.Color = input.Color
	if retargeted {
		goal.ReachedAt = nil
		goal.CelebratedAt = nil
		goal.InitialValue = nil
	}

	if err := s.db.Save(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// DeleteGoal removes a goal.
func (s *goalService) DeleteGoal(id string) error {
	var settings models.Settings
	if err := s.db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	kept := settings.Goals[:0]
	found := false
	for _, g := range settings.Goals {
		if g.ID == id {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return apperrors.ErrGoalNotFound
	}
	settings.Goals = kept

	if err := s.db.Save(&settings).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MarkCelebrated stamps the one-time celebration timestamp. Calling it again
// is a no-op, so a re-rendered reached goal never celebrates twice.
func (s *goalService) MarkCelebrated(id string) error {
	var settings models.Settings
	if err := s.db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	goal := settings.FindGoal(id)
	if goal == nil {
		return apperrors.ErrGoalNotFound
	}
	if goal.CelebratedAt != nil {
		return nil
	}

	now := time.Now()
	goal.CelebratedAt = &now

	if err := s.db.Save(&settings).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
