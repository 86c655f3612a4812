package scheduler

import (
	"sort"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// RiskPriority returns a sort priority (lower = more urgent).
func RiskPriority(r domain.RiskLevel) int {
	switch r {
	case domain.RiskCritical:
		return 0
	case domain.RiskAtRisk:
		return 1
	default:
		return 2
	}
}

// UrgencyKey is the subset of an item report that decides attention order.
type UrgencyKey struct {
	ItemID     string
	Risk       domain.RiskLevel
	PlannedEnd *time.Time
	Order      int
}

// SortByUrgency orders items by the deterministic attention rules:
// 1. Risk: critical > at_risk > on_track
// 2. Planned end: earliest first (nil last)
// 3. Chain order: ascending
// 4. Item ID: lexical ascending
func SortByUrgency[T any](items []T, key func(T) UrgencyKey) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])

		riskA, riskB := RiskPriority(a.Risk), RiskPriority(b.Risk)
		if riskA != riskB {
			return riskA < riskB
		}

		if (a.PlannedEnd == nil) != (b.PlannedEnd == nil) {
			return a.PlannedEnd != nil
		}
		if a.PlannedEnd != nil && b.PlannedEnd != nil && !a.PlannedEnd.Equal(*b.PlannedEnd) {
			return a.PlannedEnd.Before(*b.PlannedEnd)
		}

		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ItemID < b.ItemID
	})
}
