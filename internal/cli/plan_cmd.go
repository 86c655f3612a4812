package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeline/internal/cli/formatter"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Seed work items and chains from plan files",
	}
	cmd.AddCommand(newPlanImportCmd(app))
	return cmd
}

func newPlanImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create the work items of a plan and append them to their chains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(cmd, res, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "Imported %d work items into %d chains.\n", res.WorkItemCount, len(res.Chains))
				for _, c := range res.Chains {
					fmt.Fprintf(&b, "  %s %s/FY%d  %s\n",
						formatter.StyleGreen.Render("✔"), c.ResourceKey, c.FiscalYear,
						formatter.Dim(fmt.Sprintf("%d items, version %d", len(c.Items), c.Version)))
				}
				return b.String()
			})
		},
	}
}
