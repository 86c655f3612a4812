package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeline/internal/cli/formatter"
	"github.com/alexanderramin/timeline/internal/contract"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Record actual progress and see how chains are tracking",
	}
	cmd.AddCommand(
		newProgressRecordCmd(app),
		newProgressShowCmd(app),
		newProgressStatusCmd(app),
	)
	return cmd
}

func newProgressRecordCmd(app *App) *cobra.Command {
	var (
		percent           int
		started, finished string
		notes, by         string
	)
	cmd := &cobra.Command{
		Use:   "record <item-id>",
		Short: "Record a progress update for an item",
		Long: `Record a progress update for an item.

Dates and notes you leave out keep their recorded value. Pass an empty
value to clear one, e.g. --finished "".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := contract.RecordProgressRequest{ItemID: args[0], ProgressPercent: percent, UpdatedBy: by}
			fl := cmd.Flags()
			if fl.Changed("started") {
				req.ActualStartDate = &started
			}
			if fl.Changed("finished") {
				req.ActualEndDate = &finished
			}
			if fl.Changed("notes") {
				req.StatusNotes = &notes
			}
			p, err := app.Progress.Record(cmd.Context(), req)
			if err != nil {
				return err
			}
			return app.render(cmd, p, func() string { return formatter.FormatProgress(p) })
		},
	}
	cmd.Flags().IntVarP(&percent, "percent", "p", 0, "Progress percent (0-100)")
	cmd.Flags().StringVar(&started, "started", "", "Actual start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&finished, "finished", "", "Actual end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "Status notes")
	cmd.Flags().StringVar(&by, "by", "", "Who reported the update")
	_ = cmd.MarkFlagRequired("percent")
	return cmd
}

func newProgressShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show the latest progress of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Progress.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(cmd, p, func() string { return formatter.FormatProgress(p) })
		},
	}
}

func newProgressStatusCmd(app *App) *cobra.Command {
	var (
		f       chainFlags
		asOf    string
		overdue bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Assess risk and slippage of every item in a chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := f.ref(cmd, app)
			req := contract.NewStatusRequest(ref.ResourceKey, ref.FiscalYear)
			if asOf != "" {
				req.AsOf = &asOf
			}
			req.OnlyOverdue = overdue
			resp, err := app.Progress.Status(cmd.Context(), req)
			if err != nil {
				return err
			}
			return app.render(cmd, resp, func() string { return formatter.FormatStatus(resp) })
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&asOf, "as-of", "", "Assess as of this day (default today)")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "Only list overdue items")
	return cmd
}
