package scheduler

import (
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

type RiskInput struct {
	Today        time.Time
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	// ProgressPercent is the operator-reported completion, 0–100.
	ProgressPercent int
}

type RiskResult struct {
	Level domain.RiskLevel
	// WorkdaysLeft counts workdays from today through the planned end. Nil
	// when the item has no planned end.
	WorkdaysLeft *int
	// ElapsedPct is the share of the planned workdays already behind today.
	ElapsedPct float64
	// GapPct is ElapsedPct minus ProgressPercent; positive means behind.
	GapPct float64
}

const (
	atRiskGapPct   = 10.0
	criticalGapPct = 40.0
)

// ComputeRisk grades one item by comparing reported progress with the share
// of its planned workdays that has elapsed.
func ComputeRisk(input RiskInput, cal Calendar) RiskResult {
	if input.ProgressPercent >= 100 || input.PlannedEnd == nil {
		return RiskResult{Level: domain.RiskOnTrack}
	}

	today := domain.NormalizeDate(input.Today)
	end := domain.NormalizeDate(*input.PlannedEnd)
	left := CountWorkdays(today, end, cal)
	result := RiskResult{WorkdaysLeft: &left}

	// Past due
	if today.After(end) {
		result.Level = domain.RiskCritical
		result.ElapsedPct = 100
		result.GapPct = 100 - float64(input.ProgressPercent)
		return result
	}

	if input.PlannedStart != nil {
		start := domain.NormalizeDate(*input.PlannedStart)
		total := CountWorkdays(start, end, cal)
		if total > 0 && today.After(start) {
			done := CountWorkdays(start, today.AddDate(0, 0, -1), cal)
			result.ElapsedPct = float64(done) / float64(total) * 100
		}
	}
	result.GapPct = result.ElapsedPct - float64(input.ProgressPercent)

	switch {
	case result.GapPct > criticalGapPct:
		result.Level = domain.RiskCritical
	case result.GapPct > atRiskGapPct:
		result.Level = domain.RiskAtRisk
	case left <= 1 && input.ProgressPercent < 90:
		result.Level = domain.RiskAtRisk
	default:
		result.Level = domain.RiskOnTrack
	}
	return result
}
