package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeline/internal/cli/formatter"
	"github.com/alexanderramin/timeline/internal/domain"
)

func newWorkItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "work-item",
		Aliases: []string{"wi"},
		Short:   "Register work items and move them through their lifecycle",
	}
	cmd.AddCommand(
		newWorkItemAddCmd(app),
		newWorkItemStatusCmd(app),
		newWorkItemShowCmd(app),
		newWorkItemListCmd(app),
	)
	return cmd
}

// workItemJSON is the --json shape of a work item.
type workItemJSON struct {
	ID          string    `json:"id"`
	ResourceKey string    `json:"resource_key"`
	FiscalYear  int       `json:"fiscal_year"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Eligible    bool      `json:"eligible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toWorkItemJSON(w *domain.WorkItem) workItemJSON {
	return workItemJSON{
		ID:          w.ID,
		ResourceKey: w.ResourceKey,
		FiscalYear:  w.FiscalYear,
		Title:       w.Title,
		Status:      string(w.Status),
		Eligible:    w.IsEligible(),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func formatWorkItem(w *domain.WorkItem) string {
	body := fmt.Sprintf("%s %s\n%s %s/FY%d\n%s %s",
		formatter.Dim("ID"), w.ID,
		formatter.Dim("Chain"), w.ResourceKey, w.FiscalYear,
		formatter.Dim("Status"), formatter.WorkItemStatusPill(w.Status))
	return formatter.RenderBox(w.Title, body) + "\n"
}

func newWorkItemAddCmd(app *App) *cobra.Command {
	var (
		f      chainFlags
		id     string
		title  string
		status string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a work item for a resource's fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := f.ref(cmd, app)
			w := &domain.WorkItem{
				ID:          id,
				ResourceKey: ref.ResourceKey,
				FiscalYear:  ref.FiscalYear,
				Title:       title,
				Status:      domain.WorkItemStatus(status),
			}
			if err := app.WorkItems.Create(cmd.Context(), w); err != nil {
				return err
			}
			return app.render(cmd, toWorkItemJSON(w), func() string {
				return fmt.Sprintf("Created work item %s (%s).\n", formatter.TruncID(w.ID), w.Title)
			})
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&id, "id", "", "Work item id (default: a new UUID)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title")
	cmd.Flags().StringVar(&status, "status", "", "pending, approved, in_progress, completed or withdrawn (default approved)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newWorkItemStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a work item's status",
		Long: `Change a work item's status.

Completed and withdrawn items leave their chain on the next sync.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.WorkItems.UpdateStatus(ctx, args[0], domain.WorkItemStatus(args[1])); err != nil {
				return err
			}
			w, err := app.WorkItems.GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			return app.render(cmd, toWorkItemJSON(w), func() string {
				return fmt.Sprintf("Work item %s is now %s.\n", formatter.TruncID(w.ID), formatter.WorkItemStatusPill(w.Status))
			})
		},
	}
}

func newWorkItemShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := app.WorkItems.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(cmd, toWorkItemJSON(w), func() string { return formatWorkItem(w) })
		},
	}
}

func newWorkItemListCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the eligible work items of a resource's fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := f.ref(cmd, app)
			items, err := app.WorkItems.ListEligible(cmd.Context(), ref.ResourceKey, ref.FiscalYear)
			if err != nil {
				return err
			}
			out := make([]workItemJSON, 0, len(items))
			for _, w := range items {
				out = append(out, toWorkItemJSON(w))
			}
			return app.render(cmd, out, func() string {
				if len(items) == 0 {
					return formatter.Dim("No eligible work items.") + "\n"
				}
				rows := make([][]string, 0, len(items))
				for i, w := range items {
					rows = append(rows, []string{strconv.Itoa(i + 1), formatter.TruncID(w.ID), w.Title, formatter.WorkItemStatusPill(w.Status)})
				}
				return formatter.RenderTable([]string{"#", "ID", "TITLE", "STATUS"}, rows)
			})
		},
	}
	f.register(cmd, false)
	return cmd
}
