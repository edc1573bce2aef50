// Package valuation turns the current asset and category set into converted
// values, group and category subtotals, and the net-worth breakdown. It is a
// pure function of its inputs: callers pass the latest committed state and a
// rate table, and identical inputs always produce identical results.
package valuation

import (
	"sort"

	"dashworth/internal/currency"
	"dashworth/internal/models"
)

// unknownCategoryName labels the section synthesized for assets whose
// category id no longer resolves. Their value is never silently dropped.
const unknownCategoryName = "Unknown"

// Breakdown is the portfolio-level roll-up in the target currency.
type Breakdown struct {
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	NetWorth         float64 `json:"net_worth"`
}

// AssetLine is one asset's converted value inside a section.
type AssetLine struct {
	AssetID       string             `json:"asset_id"`
	Name          string             `json:"name"`
	Value         float64            `json:"value"` // converted to the target currency
	OriginalValue float64            `json:"original_value"`
	Currency      string             `json:"currency"` // the asset's own currency
	PriceSource   models.PriceSource `json:"price_source"`
	Group         string             `json:"group,omitempty"`
}

// Group is a subtotal bucket inside a category. Named groups merge every
// asset sharing that name; an ungrouped asset forms its own singleton group
// and is never merged with other ungrouped assets.
type Group struct {
	Name     string      `json:"name,omitempty"`
	Subtotal float64     `json:"subtotal"`
	Assets   []AssetLine `json:"assets"`
}

// Section is one category's slice of the dashboard, ordered for display.
type Section struct {
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	IsLiability bool    `json:"is_liability"`
	Subtotal    float64 `json:"subtotal"`
	Groups      []Group `json:"groups"`

	// sortOrder carries the category's configured order for trailing empty
	// sections; it does not affect sections that hold assets.
	sortOrder int
}

// Result is the full valuation of the portfolio in the target currency.
type Result struct {
	Currency  string    `json:"currency"`
	Breakdown Breakdown `json:"breakdown"`
	Sections  []Section `json:"sections"`
	// DividerIndex is the index of the first liability section, marking
	// where the display divider goes. -1 when there are no liability
	// sections.
	DividerIndex int `json:"divider_index"`
}

// AssetValue converts a single asset's current value into the target currency.
func AssetValue(a *models.Asset, target string, rates currency.Rates) float64 {
	return currency.Convert(a.CurrentValue, a.Currency, target, rates)
}

// NetWorth computes only the breakdown, skipping the per-section work.
// Used by the history recorder and net-worth goals on every observed change.
func NetWorth(assets []models.Asset, categories []models.Category, target string, rates currency.Rates) Breakdown {
	liability := make(map[string]bool, len(categories))
	for _, c := range categories {
		liability[c.ID] = c.IsLiability
	}

	var b Breakdown
	for i := range assets {
		if assets[i].IsArchived {
			continue
		}
		v := AssetValue(&assets[i], target, rates)
		if liability[assets[i].CategoryID] {
			b.TotalLiabilities += v
		} else {
			b.TotalAssets += v
		}
	}
	b.NetWorth = b.TotalAssets - b.TotalLiabilities
	return b
}

// Compute aggregates the full per-section valuation for display.
// Archived assets are excluded from every aggregate. Categories without
// assets still appear, trailing their side ordered by configured sort order.
func Compute(assets []models.Asset, categories []models.Category, target string, rates currency.Rates) *Result {
	lines := make(map[string][]AssetLine)
	for i := range assets {
		a := &assets[i]
		if a.IsArchived {
			continue
		}
		lines[a.CategoryID] = append(lines[a.CategoryID], AssetLine{
			AssetID:       a.ID,
			Name:          a.Name,
			Value:         AssetValue(a, target, rates),
			OriginalValue: a.CurrentValue,
			Currency:      a.Currency,
			PriceSource:   a.PriceSource,
			Group:         a.Group,
		})
	}

	var sections []Section
	for _, c := range categories {
		sections = append(sections, buildSection(&c, lines[c.ID]))
		delete(lines, c.ID)
	}
	// Assets referencing a category that no longer exists get a synthetic
	// non-liability section so their value stays on the dashboard.
	orphanIDs := make([]string, 0, len(lines))
	for id := range lines {
		orphanIDs = append(orphanIDs, id)
	}
	sort.Strings(orphanIDs)
	for _, id := range orphanIDs {
		sections = append(sections, buildSection(&models.Category{ID: id, Name: unknownCategoryName}, lines[id]))
	}

	ordered, divider := orderSections(sections)

	result := &Result{
		Currency:     target,
		Sections:     ordered,
		DividerIndex: divider,
	}
	for _, s := range ordered {
		if s.IsLiability {
			result.Breakdown.TotalLiabilities += s.Subtotal
		} else {
			result.Breakdown.TotalAssets += s.Subtotal
		}
	}
	result.Breakdown.NetWorth = result.Breakdown.TotalAssets - result.Breakdown.TotalLiabilities
	return result
}

// buildSection groups a category's asset lines and computes its subtotal.
func buildSection(c *models.Category, assetLines []AssetLine) Section {
	named := make(map[string][]AssetLine)
	var singletons []AssetLine
	for _, line := range assetLines {
		if line.Group == "" {
			singletons = append(singletons, line)
		} else {
			named[line.Group] = append(named[line.Group], line)
		}
	}

	// Named groups come first, alphabetically; each ungrouped asset then
	// forms its own singleton group.
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	var groups []Group
	for _, name := range names {
		members := named[name]
		sort.SliceStable(members, func(i, j int) bool { return members[i].Value > members[j].Value })
		g := Group{Name: name, Assets: members}
		for _, line := range members {
			g.Subtotal += line.Value
		}
		groups = append(groups, g)
	}
	sort.SliceStable(singletons, func(i, j int) bool { return singletons[i].Value > singletons[j].Value })
	for _, line := range singletons {
		groups = append(groups, Group{Subtotal: line.Value, Assets: []AssetLine{line}})
	}

	section := Section{
		CategoryID:  c.ID,
		Name:        c.Name,
		Icon:        c.Icon,
		Color:       c.Color,
		IsLiability: c.IsLiability,
		sortOrder:   c.SortOrder,
	}
	for _, g := range groups {
		section.Subtotal += g.Subtotal
	}
	section.Groups = groups
	return section
}

// orderSections applies the display order: non-liability sections first,
// liability sections last. Within each side, sections holding assets come
// first ordered by descending subtotal, and empty sections trail ordered by
// their configured sort order.
func orderSections(sections []Section) ([]Section, int) {
	var assetsSide, liabilitySide []Section
	for _, s := range sections {
		if s.IsLiability {
			liabilitySide = append(liabilitySide, s)
		} else {
			assetsSide = append(assetsSide, s)
		}
	}

	sortSide(assetsSide)
	sortSide(liabilitySide)

	ordered := append(assetsSide, liabilitySide...)
	divider := -1
	if len(liabilitySide) > 0 {
		divider = len(assetsSide)
	}
	return ordered, divider
}

func sortSide(side []Section) {
	sort.SliceStable(side, func(i, j int) bool {
		iEmpty := len(side[i].Groups) == 0
		jEmpty := len(side[j].Groups) == 0
		if iEmpty != jEmpty {
			return !iEmpty
		}
		if iEmpty {
			return side[i].sortOrder < side[j].sortOrder
		}
		return side[i].Subtotal > side[j].Subtotal
	})
}
