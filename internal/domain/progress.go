package domain

import "time"

// ActualProgress records what really happened to a schedule item. It is an
// overlay keyed by item id and never feeds back into planned dates.
type ActualProgress struct {
	ItemID          string
	ActualStartDate *time.Time
	ActualEndDate   *time.Time
	ProgressPercent int
	StatusNotes     string
	UpdatedBy       string
	UpdatedAt       time.Time
}

// ProgressUpdate is the operator input for one progress record. Nil dates
// and notes keep the previously recorded value.
type ProgressUpdate struct {
	ActualStartDate *Nullable[time.Time]
	ActualEndDate   *Nullable[time.Time]
	ProgressPercent int
	StatusNotes     *string
	UpdatedBy       string
}

// Validate checks ActualProgress invariants.
func (p *ActualProgress) Validate() error {
	if p.ItemID == "" {
		return NewValidationError("item_id", "is required")
	}
	if p.ProgressPercent < 0 || p.ProgressPercent > 100 {
		return NewValidationError("progress_percent", "must be between 0 and 100, got %d", p.ProgressPercent)
	}
	if p.ActualStartDate != nil && p.ActualEndDate != nil && p.ActualEndDate.Before(*p.ActualStartDate) {
		return NewValidationError("actual_end_date", "%s is before actual start date %s",
			FormatDate(*p.ActualEndDate), FormatDate(*p.ActualStartDate))
	}
	return nil
}
