package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/timeline/internal/contract"
)

// FormatChain renders a chain as a table in a titled box.
func FormatChain(view contract.ChainView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n",
		Bold(fmt.Sprintf("%s · FY%d", view.ResourceKey, view.FiscalYear)),
		Dim(fmt.Sprintf("version %d", view.Version)))

	if !view.HolidaysLoaded {
		b.WriteString(StyleYellow.Render(fmt.Sprintf("  no holidays loaded for FY%d, weekends only", view.FiscalYear)) + "\n\n")
	}
	if len(view.Items) == 0 {
		b.WriteString(Dim("  chain is empty") + "\n")
		return RenderBox("Chain", b.String())
	}
	b.WriteString(RenderTable(itemHeaders, itemRows(view.Items)))
	return RenderBox("Chain", b.String())
}

var itemHeaders = []string{"#", "ID", "TITLE", "TYPE", "START", "END", "WORKDAYS", "SKIP"}

func itemRows(items []contract.ScheduleItemView) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		skip := Dim("no")
		if it.ExcludeNonWorkdays {
			skip = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(it.Order),
			TruncID(it.ID),
			it.Title,
			AssignmentBadge(it.AssignmentType),
			DateCell(it.StartDate),
			DateCell(it.EndDate),
			Workdays(it.DurationWorkdays),
			skip,
		})
	}
	return rows
}

// FormatChainResult renders the chain after a change and lists the items
// whose dates moved.
func FormatChainResult(res contract.ChainResult) string {
	var b strings.Builder
	b.WriteString(FormatChain(res.Chain))
	b.WriteString("\n")
	b.WriteString(changedLine("moved", res.Changed))
	return b.String()
}

func FormatSyncResult(res contract.SyncResult) string {
	var b strings.Builder
	b.WriteString(FormatChain(res.Chain))
	b.WriteString("\n")
	b.WriteString(changedLine("appended", res.Appended))
	b.WriteString(changedLine("closed", res.Closed))
	b.WriteString(changedLine("moved", res.Changed))
	return b.String()
}

func changedLine(verb string, ids []string) string {
	if len(ids) == 0 {
		return Dim(fmt.Sprintf("0 items %s", verb)) + "\n"
	}
	noun := "items"
	if len(ids) == 1 {
		noun = "item"
	}
	return fmt.Sprintf("%s %s: %s\n", StyleGreen.Render(fmt.Sprintf("%d %s", len(ids), noun)), verb, strings.Join(ids, ", "))
}

// FormatHistory lists closed items, oldest first.
func FormatHistory(items []contract.ScheduleItemView) string {
	if len(items) == 0 {
		return Dim("No closed items.") + "\n"
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		closed := Dim("--")
		if it.ClosedAt != nil {
			closed = it.ClosedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{TruncID(it.ID), it.Title, DateCell(it.StartDate), DateCell(it.EndDate), closed})
	}
	return Header("History") + "\n" + RenderTable([]string{"ID", "TITLE", "START", "END", "CLOSED"}, rows)
}
