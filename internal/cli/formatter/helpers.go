package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(1, 2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// DateCell renders an optional YYYY-MM-DD date, dimming missing values.
func DateCell(d *string) string {
	if d == nil || *d == "" {
		return Dim("--")
	}
	return StyleFg.Render(*d)
}

// HumanDay renders a date relative to today for the nearest two weeks and
// as "Mon 2 Jan" otherwise.
func HumanDay(d, today time.Time) string {
	days := int(domain.NormalizeDate(d).Sub(domain.NormalizeDate(today)).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 0 && days < 14:
		return fmt.Sprintf("in %dd", days)
	case days < 0 && days > -14:
		return fmt.Sprintf("%dd ago", -days)
	default:
		return d.Format("Mon 2 Jan")
	}
}

// AssignmentBadge marks manual items, which the chain never moves.
func AssignmentBadge(assignment string) string {
	if domain.AssignmentType(assignment) == domain.AssignManual {
		return StylePurple.Render("manual")
	}
	return StyleBlue.Render("auto")
}

func WorkItemStatusPill(status domain.WorkItemStatus) string {
	switch status {
	case domain.WorkItemPending:
		return StyleYellow.Render("○ pending")
	case domain.WorkItemApproved:
		return StyleBlue.Render("● approved")
	case domain.WorkItemInProgress:
		return StyleGreen.Render("● in progress")
	case domain.WorkItemCompleted:
		return StyleDim.Render("✔ completed")
	case domain.WorkItemWithdrawn:
		return StyleDim.Render("✖ withdrawn")
	default:
		return StyleDim.Render(string(status))
	}
}

// TruncID shortens generated UUIDs to 8 characters; short ids pass through.
func TruncID(id string) string {
	if len(id) > 8 && strings.Count(id, "-") == 4 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Workdays renders an optional workday count as "5d".
func Workdays(n *int) string {
	if n == nil {
		return Dim("--")
	}
	return fmt.Sprintf("%dd", *n)
}
