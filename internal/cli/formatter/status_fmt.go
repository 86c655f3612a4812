package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timeline/internal/contract"
)

const statusProgressBarWidth = 10

// FormatStatus renders a chain status report, most urgent item first.
func FormatStatus(resp *contract.StatusResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n",
		Bold(fmt.Sprintf("%s · FY%d", resp.ResourceKey, resp.FiscalYear)),
		Dim("as of "+resp.AsOf))
	if !resp.HolidaysLoaded {
		b.WriteString(StyleYellow.Render("  no holidays loaded, weekends only") + "\n\n")
	}

	rows := make([][]string, 0, len(resp.Items))
	for _, st := range resp.Items {
		pct := 0
		if st.Progress != nil {
			pct = st.Progress.ProgressPercent
		}
		slip := Dim("--")
		if st.SlipWorkdays > 0 {
			slip = StyleRed.Render(fmt.Sprintf("+%dd", st.SlipWorkdays))
		}
		left := Dim("--")
		if st.WorkdaysLeft != nil {
			left = fmt.Sprintf("%dd", *st.WorkdaysLeft)
		}
		rows = append(rows, []string{
			TruncID(st.Item.ID),
			st.Item.Title,
			StatePill(st.State),
			RenderProgress(pct, statusProgressBarWidth),
			RiskIndicator(st.Risk),
			DateCell(st.Item.EndDate),
			left,
			slip,
		})
	}
	if len(rows) == 0 {
		b.WriteString(Dim("  nothing to report") + "\n")
	} else {
		b.WriteString(RenderTable([]string{"ID", "TITLE", "STATE", "PROGRESS", "RISK", "END", "LEFT", "SLIP"}, rows))
	}

	s := resp.Summary
	fmt.Fprintf(&b, "\n%s, %s, %s · %s, %s\n",
		StyleRed.Render(fmt.Sprintf("%d Critical", s.Critical)),
		StyleYellow.Render(fmt.Sprintf("%d At Risk", s.AtRisk)),
		StyleGreen.Render(fmt.Sprintf("%d On Track", s.OnTrack)),
		StyleRed.Render(fmt.Sprintf("%d Overdue", s.Overdue)),
		Dim(fmt.Sprintf("%d Complete", s.Complete)))

	return RenderBox("Status", b.String())
}

// FormatProgress renders one item's recorded progress.
func FormatProgress(p *contract.ProgressView) string {
	if p == nil {
		return Dim("No progress recorded.") + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Bold(p.ItemID), RenderProgress(p.ProgressPercent, 20))
	fmt.Fprintf(&b, "  started   %s\n", DateCell(p.ActualStartDate))
	fmt.Fprintf(&b, "  finished  %s\n", DateCell(p.ActualEndDate))
	if p.StatusNotes != "" {
		fmt.Fprintf(&b, "  notes     %s\n", p.StatusNotes)
	}
	if p.UpdatedBy != "" {
		fmt.Fprintf(&b, "  by        %s %s\n", p.UpdatedBy, Dim(p.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}
