package domain

type AssignmentType string

const (
	AssignAuto   AssignmentType = "auto"
	AssignManual AssignmentType = "manual"
)

// Valid reports whether t is one of the known assignment strategies.
func (t AssignmentType) Valid() bool {
	return t == AssignAuto || t == AssignManual
}

type WorkItemStatus string

const (
	WorkItemPending    WorkItemStatus = "pending"
	WorkItemApproved   WorkItemStatus = "approved"
	WorkItemInProgress WorkItemStatus = "in_progress"
	WorkItemCompleted  WorkItemStatus = "completed"
	WorkItemWithdrawn  WorkItemStatus = "withdrawn"
)

// ValidWorkItemStatuses is the canonical set of accepted work item status strings.
var ValidWorkItemStatuses = map[string]bool{
	"pending": true, "approved": true, "in_progress": true,
	"completed": true, "withdrawn": true,
}

type RiskLevel string

const (
	RiskOnTrack  RiskLevel = "on_track"
	RiskAtRisk   RiskLevel = "at_risk"
	RiskCritical RiskLevel = "critical"
)

// ItemState is the lifecycle position of a schedule item as seen by reporting.
type ItemState string

const (
	StateUnscheduled ItemState = "unscheduled"
	StateScheduled   ItemState = "scheduled"
	StateTracked     ItemState = "tracked"
	StateClosed      ItemState = "closed"
)
