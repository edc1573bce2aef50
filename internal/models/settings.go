package models

import "time"

// SettingsID is the fixed primary key of the settings singleton row.
// Exactly one Settings record exists per installation.
const SettingsID = "settings"

// Cadence controls how often a periodic action runs.
type Cadence string

const (
	CadenceOff     Cadence = "off"
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// LinkType identifies what a goal tracks. An empty link type means the goal
// tracks total net worth.
type LinkType string

const (
	LinkTypeNetWorth LinkType = ""
	LinkTypeAsset    LinkType = "asset"
	LinkTypeCategory LinkType = "category"
)

// Goal is a savings (or debt payoff) target. Goals live inside the settings
// singleton rather than their own table; there are at most a handful per
// installation.
//
// A goal with a LinkType must have a LinkID. If the linked entity is later
// deleted the goal enters a broken-link state, which is reported rather than
// treated as an error.
type Goal struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"` // defaults to primary currency

	TargetDate *time.Time `json:"target_date,omitempty"`
	LinkType   LinkType   `json:"link_type,omitempty"`
	LinkID     string     `json:"link_id,omitempty"`

	// InitialValue is the baseline for liability goals. It is captured once,
	// lazily, on the goal's first evaluation and never recomputed, so the
	// payoff percentage has a stable denominator as the debt fluctuates.
	InitialValue *float64 `json:"initial_value,omitempty"`

	// ReachedAt and CelebratedAt are each stamped at most once, the first
	// time progress crosses 100% and the first time the celebration is
	// acknowledged respectively.
	ReachedAt    *time.Time `json:"reached_at,omitempty"`
	CelebratedAt *time.Time `json:"celebrated_at,omitempty"`

	Hidden bool   `json:"hidden"`
	Color  string `json:"color"`
}

// GoalList is stored as a JSON column on the settings row.
type GoalList []Goal

// Settings is the singleton configuration record.
type Settings struct {
	ID               string            `gorm:"primaryKey" json:"id"`
	PrimaryCurrency  string            `gorm:"not null" json:"primary_currency"`
	Theme            string            `json:"theme"`
	SnapshotReminder Cadence           `gorm:"not null;default:off" json:"snapshot_reminder"`
	AutoSnapshot     Cadence           `gorm:"not null;default:off" json:"auto_snapshot"`
	Goals            GoalList          `gorm:"serializer:json" json:"goals"`
	CustomColors     map[string]string `gorm:"serializer:json" json:"custom_colors"`
	SampleData       bool              `gorm:"not null;default:false" json:"sample_data"`
	LastExportAt     *time.Time        `json:"last_export_at,omitempty"`
	LastSnapshotAt   *time.Time        `json:"last_snapshot_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// FindGoal returns a pointer to the goal with the given id, or nil.
func (s *Settings) FindGoal(id string) *Goal {
	for i := range s.Goals {
		if s.Goals[i].ID == id {
			return &s.Goals[i]
		}
	}
	return nil
}
