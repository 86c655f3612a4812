package tracker

import (
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/scheduler"
)

// Assessment is the reporting view of one item as of a given day.
type Assessment struct {
	ItemID   string
	State    domain.ItemState
	Risk     domain.RiskLevel
	Overdue  bool
	Complete bool
	// SlipWorkdays is positive when the item finished (or is still running)
	// past its planned end and negative when it finished early.
	SlipWorkdays int
	WorkdaysLeft *int
}

// Assess derives the lifecycle state, risk and slip of item.
func Assess(item domain.ScheduleItem, progress *domain.ActualProgress, today time.Time, cal scheduler.Calendar) Assessment {
	today = domain.NormalizeDate(today)
	a := Assessment{
		ItemID:   item.ID,
		State:    stateOf(item, progress),
		Complete: IsComplete(progress),
		Risk:     domain.RiskOnTrack,
	}
	a.SlipWorkdays = slip(item, progress, today, cal)

	if a.State == domain.StateClosed || a.State == domain.StateUnscheduled {
		return a
	}

	a.Overdue = IsOverdue(item, progress, today)
	pct := 0
	if progress != nil {
		pct = progress.ProgressPercent
	}
	r := scheduler.ComputeRisk(scheduler.RiskInput{
		Today:           today,
		PlannedStart:    item.StartDate,
		PlannedEnd:      item.EndDate,
		ProgressPercent: pct,
	}, cal)
	a.Risk = r.Level
	a.WorkdaysLeft = r.WorkdaysLeft
	return a
}

func stateOf(item domain.ScheduleItem, progress *domain.ActualProgress) domain.ItemState {
	switch {
	case item.IsClosed():
		return domain.StateClosed
	case hasActuals(progress):
		return domain.StateTracked
	case item.StartDate != nil:
		return domain.StateScheduled
	default:
		return domain.StateUnscheduled
	}
}

func hasActuals(p *domain.ActualProgress) bool {
	return p != nil && (p.ActualStartDate != nil || p.ActualEndDate != nil || p.ProgressPercent > 0 || p.StatusNotes != "")
}

func slip(item domain.ScheduleItem, progress *domain.ActualProgress, today time.Time, cal scheduler.Calendar) int {
	if item.EndDate == nil {
		return 0
	}
	planned := domain.NormalizeDate(*item.EndDate)

	if progress != nil && progress.ActualEndDate != nil {
		actual := domain.NormalizeDate(*progress.ActualEndDate)
		switch {
		case actual.After(planned):
			return scheduler.CountWorkdays(planned.AddDate(0, 0, 1), actual, cal)
		case actual.Before(planned):
			return -scheduler.CountWorkdays(actual.AddDate(0, 0, 1), planned, cal)
		default:
			return 0
		}
	}
	if item.IsClosed() || IsComplete(progress) || !today.After(planned) {
		return 0
	}
	return scheduler.CountWorkdays(planned.AddDate(0, 0, 1), today, cal)
}
