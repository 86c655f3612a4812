package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeline/internal/cli/formatter"
	"github.com/alexanderramin/timeline/internal/domain"
)

func newHolidayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "holiday",
		Aliases: []string{"holidays"},
		Short:   "Manage fiscal-year holiday calendars",
	}
	cmd.AddCommand(
		newHolidayImportCmd(app),
		newHolidayListCmd(app),
		newHolidayShowCmd(app),
	)
	return cmd
}

// holidayJSON is the --json shape of a holiday set.
type holidayJSON struct {
	FiscalYear int                `json:"fiscal_year"`
	Holidays   []holidayEntryJSON `json:"holidays"`
}

type holidayEntryJSON struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

func toHolidayJSON(set *domain.HolidaySet) holidayJSON {
	out := holidayJSON{FiscalYear: set.FiscalYear, Holidays: []holidayEntryJSON{}}
	for _, h := range set.Holidays() {
		out.Holidays = append(out.Holidays, holidayEntryJSON{Date: domain.FormatDate(h.Date), Name: h.Name})
	}
	return out
}

func newHolidayImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a fiscal year's holidays from a YAML or JSON file",
		Long: `Replace a fiscal year's holidays from a YAML or JSON file.

Chains are not recomputed automatically. Run "timeline chain recompute"
for every chain of that fiscal year afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := app.Holidays.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(cmd, toHolidayJSON(set), func() string {
				return fmt.Sprintf("Imported %d holidays for FY%d.\n%s\n",
					set.Len(), set.FiscalYear, formatter.Dim("Recompute affected chains to pick them up."))
			})
		},
	}
}

func newHolidayListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List fiscal years with a holiday calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			years, err := app.Holidays.ListYears(cmd.Context())
			if err != nil {
				return err
			}
			return app.render(cmd, years, func() string {
				if len(years) == 0 {
					return formatter.Dim("No holiday calendars loaded. Dates skip weekends only.") + "\n"
				}
				rows := make([][]string, 0, len(years))
				for _, y := range years {
					rows = append(rows, []string{strconv.Itoa(y)})
				}
				return formatter.RenderTable([]string{"FY"}, rows)
			})
		},
	}
}

func newHolidayShowCmd(app *App) *cobra.Command {
	var fy int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the holidays of a fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fy == 0 {
				fy = app.currentFiscalYear()
			}
			set, err := app.Holidays.Get(cmd.Context(), fy)
			if err != nil {
				return err
			}
			return app.render(cmd, toHolidayJSON(set), func() string {
				rows := make([][]string, 0, set.Len())
				for _, h := range set.Holidays() {
					rows = append(rows, []string{domain.FormatDate(h.Date), h.Date.Weekday().String()[:3], h.Name})
				}
				return formatter.Header(fmt.Sprintf("FY%d holidays", set.FiscalYear)) + "\n" +
					formatter.RenderTable([]string{"DATE", "DAY", "NAME"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&fy, "fy", 0, "Fiscal year (default: the current one)")
	return cmd
}
