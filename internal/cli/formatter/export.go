package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/alexanderramin/timeline/internal/contract"
)

// ExportFormats lists the formats ExportChain accepts.
var ExportFormats = []string{"csv", "markdown", "html", "text"}

// ExportChain writes a chain in a plain, uncoloured format for other tools.
func ExportChain(w io.Writer, view contract.ChainView, format string) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s FY%d v%d", view.ResourceKey, view.FiscalYear, view.Version))
	tw.AppendHeader(table.Row{"Order", "ID", "Title", "Assignment", "Start", "End", "Workdays", "Exclude non-workdays", "Assigned by"})
	for _, it := range view.Items {
		tw.AppendRow(table.Row{
			it.Order,
			it.ID,
			it.Title,
			it.AssignmentType,
			deref(it.StartDate),
			deref(it.EndDate),
			derefInt(it.DurationWorkdays),
			it.ExcludeNonWorkdays,
			it.AssignedBy,
		})
	}

	switch strings.ToLower(format) {
	case "csv":
		// CSV consumers do not expect a title line.
		tw.SetTitle("")
		tw.RenderCSV()
	case "markdown", "md":
		tw.RenderMarkdown()
	case "html":
		tw.RenderHTML()
	case "text", "":
		tw.SetStyle(table.StyleLight)
		tw.Render()
	default:
		return fmt.Errorf("unknown export format %q (want one of %s)", format, strings.Join(ExportFormats, ", "))
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprint(*n)
}
