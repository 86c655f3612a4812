package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeline/internal/cli/formatter"
	"github.com/alexanderramin/timeline/internal/contract"
)

// chainFlags are the flags naming one chain.
type chainFlags struct {
	resource string
	fy       int
	expected int64
}

func (f *chainFlags) register(cmd *cobra.Command, withVersion bool) {
	cmd.Flags().StringVarP(&f.resource, "resource", "r", "", "Resource key (crew, machine, estimator)")
	cmd.Flags().IntVar(&f.fy, "fy", 0, "Fiscal year (default: the current one)")
	if withVersion {
		cmd.Flags().Int64Var(&f.expected, "expected-version", 0, "Fail with a conflict unless the chain is at this version")
	}
	_ = cmd.MarkFlagRequired("resource")
}

func (f *chainFlags) ref(cmd *cobra.Command, app *App) contract.ChainRef {
	ref := contract.ChainRef{ResourceKey: f.resource, FiscalYear: f.fy}
	if ref.FiscalYear == 0 {
		ref.FiscalYear = app.currentFiscalYear()
	}
	if fl := cmd.Flags().Lookup("expected-version"); fl != nil && fl.Changed {
		v := f.expected
		ref.ExpectedVersion = &v
	}
	return ref
}

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Show and change schedule chains",
	}
	cmd.AddCommand(
		newChainListCmd(app),
		newChainShowCmd(app),
		newChainRecomputeCmd(app),
		newChainReorderCmd(app),
		newChainStartCmd(app),
		newChainEditCmd(app),
		newChainCloseCmd(app),
		newChainSyncCmd(app),
		newChainHistoryCmd(app),
		newChainExportCmd(app),
	)
	return cmd
}

func (a *App) renderResult(cmd *cobra.Command, res *contract.ChainResult) error {
	return a.render(cmd, res, func() string { return formatter.FormatChainResult(*res) })
}

func newChainListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := app.Schedule.ListChains(cmd.Context())
			if err != nil {
				return err
			}
			return app.render(cmd, keys, func() string {
				if len(keys) == 0 {
					return formatter.Dim("No chains yet.") + "\n"
				}
				rows := make([][]string, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, []string{k.ResourceKey, strconv.Itoa(k.FiscalYear)})
				}
				return formatter.RenderTable([]string{"RESOURCE", "FY"}, rows)
			})
		},
	}
}

func newChainShowCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a chain with its computed dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.Schedule.Show(cmd.Context(), f.ref(cmd, app))
			if err != nil {
				return err
			}
			return app.render(cmd, view, func() string { return formatter.FormatChain(*view) })
		},
	}
	f.register(cmd, false)
	return cmd
}

func newChainRecomputeCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute every date, e.g. after a holiday import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Schedule.Recompute(cmd.Context(), f.ref(cmd, app))
			if err != nil {
				return err
			}
			return app.renderResult(cmd, res)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newChainReorderCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "reorder <item-id> <new-index>",
		Short: "Move an item to a new position and cascade dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			res, err := app.Schedule.Reorder(cmd.Context(), contract.ReorderRequest{
				ChainRef: f.ref(cmd, app),
				ItemID:   args[0],
				NewIndex: idx,
			})
			if err != nil {
				return err
			}
			return app.renderResult(cmd, res)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newChainStartCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "start <YYYY-MM-DD>",
		Short: "Anchor the chain's first auto item on a start date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Schedule.ApplyCommonStart(cmd.Context(), contract.CommonStartRequest{
				ChainRef:  f.ref(cmd, app),
				StartDate: args[0],
			})
			if err != nil {
				return err
			}
			return app.renderResult(cmd, res)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newChainEditCmd(app *App) *cobra.Command {
	var (
		f             chainFlags
		assignment    string
		duration      int
		clearDuration bool
		start, end    string
		exclude       bool
		by            string
		interactive   bool
	)
	cmd := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Change one item and cascade the dates after it",
		Long: `Change one item and cascade the dates after it.

Only the flags you pass are changed. Pass an empty value to clear a date,
e.g. --start "". With --interactive a form is shown instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req := contract.EditItemRequest{ChainRef: f.ref(cmd, app), ItemID: args[0], AssignedBy: by}

			if interactive {
				r, err := app.editInteractively(ctx, req)
				if errors.Is(err, errEditCancelled) {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Edit cancelled."))
					return nil
				}
				if err != nil {
					return err
				}
				req = r
			} else {
				fl := cmd.Flags()
				if fl.Changed("assignment") {
					req.AssignmentType = &assignment
				}
				if fl.Changed("duration") {
					req.DurationWorkdays = &duration
				}
				req.ClearDuration = clearDuration
				if fl.Changed("start") {
					req.StartDate = &start
				}
				if fl.Changed("end") {
					req.EndDate = &end
				}
				if fl.Changed("exclude-non-workdays") {
					req.ExcludeNonWorkdays = &exclude
				}
			}

			res, err := app.Schedule.EditItem(ctx, req)
			if err != nil {
				return err
			}
			return app.renderResult(cmd, res)
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&assignment, "assignment", "", "auto or manual")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in workdays")
	cmd.Flags().BoolVar(&clearDuration, "clear-duration", false, "Unset the duration")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD, empty clears)")
	cmd.Flags().StringVar(&end, "end", "", "End date for manual items (YYYY-MM-DD, empty clears)")
	cmd.Flags().BoolVar(&exclude, "exclude-non-workdays", true, "Skip weekends and holidays when counting")
	cmd.Flags().StringVar(&by, "by", "", "Who made the change")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Edit in a form")
	cmd.MarkFlagsMutuallyExclusive("duration", "clear-duration")
	return cmd
}

func newChainCloseCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "close <item-id>",
		Short: "Close an item and move it to the chain's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Schedule.Close(cmd.Context(), contract.CloseItemRequest{ChainRef: f.ref(cmd, app), ItemID: args[0]})
			if err != nil {
				return err
			}
			return app.renderResult(cmd, res)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newChainSyncCmd(app *App) *cobra.Command {
	var (
		f        chainFlags
		duration int
		by       string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Append eligible work items and close withdrawn or completed ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := f.ref(cmd, app)
			req := contract.NewSyncRequest(ref.ResourceKey, ref.FiscalYear)
			req.ExpectedVersion = ref.ExpectedVersion
			if by != "" {
				req.AssignedBy = by
			}
			if cmd.Flags().Changed("default-duration") {
				req.DefaultDurationWorkdays = &duration
			} else if d := app.Config.Sync.DefaultDurationWorkdays; d > 0 {
				req.DefaultDurationWorkdays = &d
			}
			res, err := app.Schedule.Sync(cmd.Context(), req)
			if err != nil {
				return err
			}
			return app.render(cmd, res, func() string { return formatter.FormatSyncResult(*res) })
		},
	}
	f.register(cmd, true)
	cmd.Flags().IntVar(&duration, "default-duration", 0, "Workdays given to appended items (default from config)")
	cmd.Flags().StringVar(&by, "by", "", "Recorded as assigned_by on appended items")
	return cmd
}

func newChainHistoryCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List closed items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Schedule.History(cmd.Context(), f.ref(cmd, app))
			if err != nil {
				return err
			}
			return app.render(cmd, items, func() string { return formatter.FormatHistory(items) })
		},
	}
	f.register(cmd, false)
	return cmd
}

func newChainExportCmd(app *App) *cobra.Command {
	var (
		f      chainFlags
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a chain as CSV, Markdown, HTML or plain text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.Schedule.Show(cmd.Context(), f.ref(cmd, app))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return formatter.ExportChain(cmd.OutOrStdout(), *view, format)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := formatter.ExportChain(file, *view, format); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items to %s\n", len(view.Items), output)
			return nil
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, markdown, html or text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

// itemByID finds an item of a shown chain.
func itemByID(view *contract.ChainView, id string) (contract.ScheduleItemView, bool) {
	for _, it := range view.Items {
		if it.ID == id {
			return it, true
		}
	}
	return contract.ScheduleItemView{}, false
}
