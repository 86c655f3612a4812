package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/alexanderramin/timeline/internal/cli/formatter"
	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
)

// errEditCancelled is returned when the user leaves the edit form.
var errEditCancelled = errors.New("edit cancelled")

// timelineHuhTheme paints the edit form in the board palette. Focused
// fields use the header accent and everything else is dimmed.
func timelineHuhTheme() *huh.Theme {
	accent := formatter.StyleHeader
	dim := formatter.StyleDim
	t := huh.ThemeBase()

	f := &t.Focused
	f.Title, f.Description = accent, dim
	f.SelectSelector, f.SelectedOption, f.UnselectedOption = accent.UnsetBold(), formatter.StyleGreen, formatter.StyleFg
	f.TextInput.Cursor, f.TextInput.Prompt, f.TextInput.Placeholder = accent.UnsetBold(), accent.UnsetBold(), dim
	f.FocusedButton = formatter.StyleFg.Background(formatter.ColorHeader).Padding(0, 1)
	f.BlurredButton = dim.Padding(0, 1)

	t.Blurred.Title, t.Blurred.SelectedOption, t.Blurred.TextInput.Text = dim, dim, dim
	return t
}

// editValues backs the fields of the edit form. Blank strings mean unset.
type editValues struct {
	Assignment string
	Duration   string
	Start      string
	End        string
	Exclude    bool
}

func editValuesOf(it contract.ScheduleItemView) editValues {
	v := editValues{Assignment: it.AssignmentType, Exclude: it.ExcludeNonWorkdays}
	if it.DurationWorkdays != nil {
		v.Duration = strconv.Itoa(*it.DurationWorkdays)
	}
	if it.StartDate != nil {
		v.Start = *it.StartDate
	}
	if it.EndDate != nil {
		v.End = *it.EndDate
	}
	return v
}

func newEditForm(title string, v *editValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Assignment").
				Description(title).
				Options(
					huh.NewOption("auto (follows the previous item)", string(domain.AssignAuto)),
					huh.NewOption("manual (pinned dates)", string(domain.AssignManual)),
				).
				Value(&v.Assignment),
			huh.NewInput().
				Title("Duration (workdays, blank for none)").
				Placeholder("5").
				Value(&v.Duration).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Start (YYYY-MM-DD, blank for none)").
				Placeholder("2024-01-08").
				Value(&v.Start).
				Validate(validateOptionalDate),
			huh.NewInput().
				Title("End (YYYY-MM-DD, manual items only)").
				Value(&v.End).
				Validate(validateOptionalDate),
			huh.NewConfirm().
				Title("Skip weekends and holidays?").
				Value(&v.Exclude),
		),
	).WithTheme(timelineHuhTheme()).WithShowHelp(false)
}

// apply fills req with the fields that differ from the current item.
func (v editValues) apply(req contract.EditItemRequest, current contract.ScheduleItemView) (contract.EditItemRequest, error) {
	if v.Assignment != current.AssignmentType {
		a := v.Assignment
		req.AssignmentType = &a
	}

	dur := strings.TrimSpace(v.Duration)
	switch {
	case dur == "" && current.DurationWorkdays != nil:
		req.ClearDuration = true
	case dur != "":
		n, err := strconv.Atoi(dur)
		if err != nil {
			return req, domain.NewValidationError("duration_workdays", "not a number: %q", dur)
		}
		if current.DurationWorkdays == nil || *current.DurationWorkdays != n {
			req.DurationWorkdays = &n
		}
	}

	if s := strings.TrimSpace(v.Start); s != deref(current.StartDate) {
		req.StartDate = &s
	}
	if s := strings.TrimSpace(v.End); s != deref(current.EndDate) {
		req.EndDate = &s
	}
	if v.Exclude != current.ExcludeNonWorkdays {
		e := v.Exclude
		req.ExcludeNonWorkdays = &e
	}
	return req, nil
}

// editInteractively shows the item's current values in a form and turns
// the answers into an edit request.
func (a *App) editInteractively(ctx context.Context, req contract.EditItemRequest) (contract.EditItemRequest, error) {
	if !a.interactive() {
		return req, domain.NewValidationError("interactive", "--interactive needs a terminal")
	}
	view, err := a.Schedule.Show(ctx, req.ChainRef)
	if err != nil {
		return req, err
	}
	current, ok := itemByID(view, req.ItemID)
	if !ok {
		return req, fmt.Errorf("item %s in chain %s/%d: %w", req.ItemID, view.ResourceKey, view.FiscalYear, domain.ErrNotFound)
	}
	if req.ExpectedVersion == nil {
		v := view.Version
		req.ExpectedVersion = &v
	}

	values := editValuesOf(current)
	title := current.ID
	if current.Title != "" {
		title = current.Title
	}
	if err := a.runForm(newEditForm(title, &values)); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return req, errEditCancelled
		}
		return req, err
	}
	return values.apply(req, current)
}

func (a *App) runForm(f *huh.Form) error {
	if a.RunForm != nil {
		return a.RunForm(f)
	}
	return f.Run()
}

func validatePositiveInt(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := domain.ParseDate("date", s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
