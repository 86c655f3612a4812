package domain

import "time"

// ScheduleItem is one work item's slot in a resource's fiscal-year chain.
type ScheduleItem struct {
	ID          string // opaque reference to the underlying work item
	ResourceKey string
	FiscalYear  int
	Title       string

	Order          int
	AssignmentType AssignmentType

	// Dates are calendar days at midnight UTC. For Auto items they are
	// always derived by recompute.
	StartDate          *time.Time
	DurationWorkdays   *int
	EndDate            *time.Time
	ExcludeNonWorkdays bool

	AssignedBy string
	AssignedAt time.Time
	ClosedAt   *time.Time
}

func (s *ScheduleItem) IsAuto() bool   { return s.AssignmentType == AssignAuto }
func (s *ScheduleItem) IsClosed() bool { return s.ClosedAt != nil }

// IsResolved reports whether both planned dates are known.
func (s *ScheduleItem) IsResolved() bool {
	return s.StartDate != nil && s.EndDate != nil
}

// Clone returns a deep copy; no pointer is shared with s.
func (s ScheduleItem) Clone() ScheduleItem {
	c := s
	c.StartDate = CloneTime(s.StartDate)
	c.DurationWorkdays = CloneInt(s.DurationWorkdays)
	c.EndDate = CloneTime(s.EndDate)
	c.ClosedAt = CloneTime(s.ClosedAt)
	return c
}

// Validate checks the item-level invariants that do not depend on the chain.
func (s *ScheduleItem) Validate() error {
	if s.ID == "" {
		return NewValidationError("id", "is required")
	}
	if !s.AssignmentType.Valid() {
		return NewValidationError("assignment_type", "invalid value %q (expected auto or manual)", s.AssignmentType)
	}
	if s.DurationWorkdays != nil && *s.DurationWorkdays <= 0 {
		return NewValidationError("duration_workdays", "must be positive, got %d", *s.DurationWorkdays)
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return NewValidationError("end_date", "%s is before start date %s", FormatDate(*s.EndDate), FormatDate(*s.StartDate))
	}
	return nil
}

// Nullable is a patch value that can either set or clear its target field.
// A nil *Nullable leaves the field untouched.
type Nullable[T any] struct {
	Value *T
}

// Set returns a patch value that assigns v.
func Set[T any](v T) *Nullable[T] {
	return &Nullable[T]{Value: &v}
}

// Clear returns a patch value that empties the field.
func Clear[T any]() *Nullable[T] {
	return &Nullable[T]{}
}

// ItemPatch is a partial edit of a schedule item.
type ItemPatch struct {
	AssignmentType     *AssignmentType
	DurationWorkdays   *Nullable[int]
	StartDate          *Nullable[time.Time]
	EndDate            *Nullable[time.Time]
	ExcludeNonWorkdays *bool
	AssignedBy         string
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.AssignmentType == nil && p.DurationWorkdays == nil && p.StartDate == nil &&
		p.EndDate == nil && p.ExcludeNonWorkdays == nil
}

// ApplyPatch merges p into the item. The end date of an Auto item is never
// user-set. On a Manual item, changing start or duration without also
// sending an end date clears the end so recompute derives it again.
func (s *ScheduleItem) ApplyPatch(p ItemPatch, now time.Time) error {
	next := s.Clone()

	if p.AssignmentType != nil {
		if !p.AssignmentType.Valid() {
			return NewValidationError("assignment_type", "invalid value %q (expected auto or manual)", *p.AssignmentType)
		}
		next.AssignmentType = *p.AssignmentType
	}
	if p.DurationWorkdays != nil {
		if v := p.DurationWorkdays.Value; v != nil && *v <= 0 {
			return NewValidationError("duration_workdays", "must be positive, got %d", *v)
		}
		next.DurationWorkdays = CloneInt(p.DurationWorkdays.Value)
	}
	if p.StartDate != nil {
		next.StartDate = normalizedPtr(p.StartDate.Value)
	}
	if p.EndDate != nil {
		if next.AssignmentType == AssignAuto && p.EndDate.Value != nil {
			return NewValidationError("end_date", "is derived for auto items and cannot be set")
		}
		next.EndDate = normalizedPtr(p.EndDate.Value)
	}
	next.ExcludeNonWorkdays = BoolFromPtrWithDefault(next.ExcludeNonWorkdays, p.ExcludeNonWorkdays)

	if next.AssignmentType == AssignManual && p.EndDate == nil &&
		(p.StartDate != nil || p.DurationWorkdays != nil) {
		next.EndDate = nil
	}

	if err := next.Validate(); err != nil {
		return err
	}

	next.AssignedBy = CoalesceStr(p.AssignedBy, s.AssignedBy)
	next.AssignedAt = now
	*s = next
	return nil
}

func normalizedPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := NormalizeDate(*t)
	return &d
}
