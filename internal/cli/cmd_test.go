package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/timeline/internal/config"
	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/metrics"
	"github.com/alexanderramin/timeline/internal/service"
	"github.com/alexanderramin/timeline/internal/testutil"
)

// testApp wires a full App backed by an in-memory DB. Fiscal years follow
// the calendar year and the clock sits in FY2024.
func testApp(t *testing.T) *App {
	t.Helper()
	uow := testutil.NewTestUoW(testutil.NewTestDB(t))
	return &App{
		Schedule:  service.NewScheduleService(uow, time.January),
		Progress:  service.NewProgressService(uow, time.January),
		Holidays:  service.NewHolidayService(uow, time.January),
		WorkItems: service.NewWorkItemService(uow),
		Import:    service.NewImportService(uow, time.January),
		Now:       func() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) },
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	return executeCmdContext(t, context.Background(), app, args...)
}

func executeCmdContext(t *testing.T, ctx context.Context, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

var chainArgs = []string{"-r", "crew-a", "--fy", "2024"}

func withChain(args ...string) []string {
	return append(args, chainArgs...)
}

// seedChain registers work items a, b and c, syncs them into crew-a's
// FY2024 chain with five workdays each and anchors the chain on Monday
// 2024-01-01.
func seedChain(t *testing.T, app *App) contract.ChainResult {
	t.Helper()
	for _, id := range []string{"a", "b", "c"} {
		_, err := executeCmd(t, app, withChain("work-item", "add", "--id", id, "--title", "Task "+id)...)
		require.NoError(t, err)
	}
	out, err := executeCmd(t, app, withChain("--json", "chain", "sync")...)
	require.NoError(t, err)
	synced := decodeOutput[contract.SyncResult](t, out)
	require.Equal(t, []string{"a", "b", "c"}, synced.Appended)

	out, err = executeCmd(t, app, withChain("--json", "chain", "start", "2024-01-01")...)
	require.NoError(t, err)
	return decodeOutput[contract.ChainResult](t, out)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestChainCmd_SyncStartShow(t *testing.T) {
	app := testApp(t)
	res := seedChain(t, app)

	require.Len(t, res.Chain.Items, 3)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, res.Changed)
	assert.Equal(t, "2024-01-05", *res.Chain.Items[0].EndDate)
	assert.Equal(t, "2024-01-08", *res.Chain.Items[1].StartDate)
	assert.Equal(t, "2024-01-19", *res.Chain.Items[2].EndDate)

	out, err := executeCmd(t, app, withChain("chain", "show")...)
	require.NoError(t, err)
	assert.Contains(t, out, "crew-a · FY2024")
	assert.Contains(t, out, "Task b")
	assert.Contains(t, out, "2024-01-19")
	assert.Contains(t, out, "weekends only")
}

func TestChainCmd_DefaultsToCurrentFiscalYear(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, "--json", "chain", "show", "-r", "crew-a")
	require.NoError(t, err)
	view := decodeOutput[contract.ChainView](t, out)
	assert.Equal(t, 2024, view.FiscalYear)
	assert.Len(t, view.Items, 3)
}

func TestChainCmd_ShowUnknownChainIsEmpty(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "chain", "show", "-r", "nobody", "--fy", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "chain is empty")
}

func TestChainCmd_List(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "chain", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No chains yet.")

	seedChain(t, app)
	out, err = executeCmd(t, app, "chain", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "crew-a")
	assert.Contains(t, out, "2024")
}

func TestChainCmd_ReorderCascades(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, withChain("--json", "chain", "reorder", "c", "0")...)
	require.NoError(t, err)
	res := decodeOutput[contract.ChainResult](t, out)
	require.Len(t, res.Chain.Items, 3)
	assert.Equal(t, "c", res.Chain.Items[0].ID)
	assert.Equal(t, "2024-01-15", *res.Chain.Items[0].StartDate)
	assert.Equal(t, "a", res.Chain.Items[1].ID)
	assert.Equal(t, "2024-01-22", *res.Chain.Items[1].StartDate)

	out, err = executeCmd(t, app, withChain("chain", "reorder", "c", "2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "items moved")
}

func TestChainCmd_Errors(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{"stale version", withChain("chain", "recompute", "--expected-version", "99"), domain.ErrConflict, ""},
		{"index out of range", withChain("chain", "reorder", "a", "7"), domain.ErrInvalidIndex, ""},
		{"unknown item", withChain("chain", "close", "ghost"), domain.ErrNotFound, ""},
		{"negative fiscal year", []string{"chain", "show", "-r", "crew-a", "--fy=-1"}, domain.ErrValidation, ""},
		{"bad start date", withChain("chain", "start", "01/01/2024"), domain.ErrValidation, ""},
		{"index not a number", withChain("chain", "reorder", "a", "first"), nil, "invalid index"},
		{"missing resource", []string{"chain", "show"}, nil, "resource"},
		{"bad export format", withChain("chain", "export", "--format", "pdf"), nil, "unknown export format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCmd(t, app, tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestChainCmd_ExpectedVersionMatches(t *testing.T) {
	app := testApp(t)
	res := seedChain(t, app)

	_, err := executeCmd(t, app, withChain("chain", "reorder", "b", "0",
		"--expected-version", strconv.FormatInt(res.Chain.Version, 10))...)
	require.NoError(t, err)
}

func TestChainCmd_EditPinsManualItem(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, withChain("--json", "chain", "edit", "b",
		"--assignment", "manual", "--start", "2024-01-10", "--end", "2024-01-12", "--by", "planner")...)
	require.NoError(t, err)
	res := decodeOutput[contract.ChainResult](t, out)

	b := res.Chain.Items[1]
	assert.Equal(t, "manual", b.AssignmentType)
	assert.Equal(t, "2024-01-10", *b.StartDate)
	assert.Equal(t, "2024-01-12", *b.EndDate)
	assert.Equal(t, "planner", b.AssignedBy)
	assert.Equal(t, "2024-01-15", *res.Chain.Items[2].StartDate, "c follows the pinned item")

	_, err = executeCmd(t, app, withChain("chain", "edit", "c")...)
	require.ErrorIs(t, err, domain.ErrValidation, "an edit without fields is rejected")
}

func TestChainCmd_EditDurationCascades(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, withChain("--json", "chain", "edit", "a", "--duration", "2")...)
	require.NoError(t, err)
	res := decodeOutput[contract.ChainResult](t, out)
	assert.Equal(t, "2024-01-02", *res.Chain.Items[0].EndDate)
	assert.Equal(t, "2024-01-03", *res.Chain.Items[1].StartDate)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, res.Changed)
}

func TestChainCmd_CloseAndHistory(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, withChain("--json", "chain", "close", "a")...)
	require.NoError(t, err)
	res := decodeOutput[contract.ChainResult](t, out)
	require.Len(t, res.Chain.Items, 2)
	assert.Equal(t, "b", res.Chain.Items[0].ID)

	out, err = executeCmd(t, app, withChain("--json", "chain", "history")...)
	require.NoError(t, err)
	closed := decodeOutput[[]contract.ScheduleItemView](t, out)
	require.Len(t, closed, 1)
	assert.Equal(t, "a", closed[0].ID)
	assert.NotNil(t, closed[0].ClosedAt)
}

func TestChainCmd_SyncClosesWithdrawnItems(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, "work-item", "status", "b", "withdrawn")
	require.NoError(t, err)
	assert.Contains(t, out, "withdrawn")

	out, err = executeCmd(t, app, withChain("--json", "chain", "sync")...)
	require.NoError(t, err)
	res := decodeOutput[contract.SyncResult](t, out)
	assert.Equal(t, []string{"b"}, res.Closed)
	assert.Empty(t, res.Appended)
	require.Len(t, res.Chain.Items, 2)
	assert.Equal(t, "c", res.Chain.Items[1].ID)
}

func TestChainCmd_Export(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, withChain("chain", "export")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, out)
	assert.Contains(t, strings.ToLower(lines[0]), "start")
	assert.Contains(t, lines[1], "2024-01-01")

	path := filepath.Join(t.TempDir(), "chain.md")
	out, err = executeCmd(t, app, withChain("chain", "export", "--format", "markdown", "--output", path)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 3 items")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "|")
	assert.Contains(t, string(data), "2024-01-19")
}

func TestHolidayCmd_ImportShiftsDatesOnRecompute(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	file := writeFile(t, "fy2024.yaml", `fiscal_year: 2024
holidays:
  - date: "2024-01-03"
    name: Bridge day
`)
	out, err := executeCmd(t, app, "holiday", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 holidays for FY2024")

	out, err = executeCmd(t, app, "--json", "holiday", "list")
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, decodeOutput[[]int](t, out))

	out, err = executeCmd(t, app, "holiday", "show", "--fy", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Bridge day")
	assert.Contains(t, out, "Wed")

	out, err = executeCmd(t, app, withChain("--json", "chain", "recompute")...)
	require.NoError(t, err)
	res := decodeOutput[contract.ChainResult](t, out)
	assert.True(t, res.Chain.HolidaysLoaded)
	assert.Equal(t, "2024-01-08", *res.Chain.Items[0].EndDate)
	assert.Equal(t, "2024-01-09", *res.Chain.Items[1].StartDate)
}

func TestHolidayCmd_Errors(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "holiday", "show", "--fy", "2030")
	require.ErrorIs(t, err, domain.ErrNotFound)

	file := writeFile(t, "bad.yaml", `fiscal_year: 2024
holidays:
  - date: "2025-01-01"
`)
	_, err = executeCmd(t, app, "holiday", "import", file)
	require.ErrorIs(t, err, domain.ErrValidation)

	out, err := executeCmd(t, app, "holiday", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "weekends only")
}

func TestProgressCmd_RecordAndStatus(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	out, err := executeCmd(t, app, "progress", "record", "b", "--percent", "20", "--started", "2024-01-08", "--notes", "forms up")
	require.NoError(t, err)
	assert.Contains(t, out, "20%")

	out, err = executeCmd(t, app, "--json", "progress", "show", "b")
	require.NoError(t, err)
	p := decodeOutput[contract.ProgressView](t, out)
	assert.Equal(t, 20, p.ProgressPercent)
	assert.Equal(t, "2024-01-08", *p.ActualStartDate)
	assert.Equal(t, "forms up", p.StatusNotes)

	out, err = executeCmd(t, app, withChain("--json", "progress", "status", "--as-of", "2024-01-10")...)
	require.NoError(t, err)
	resp := decodeOutput[contract.StatusResponse](t, out)
	assert.Equal(t, contract.StatusSummary{Total: 3, OnTrack: 1, AtRisk: 1, Critical: 1, Overdue: 1}, resp.Summary)
	assert.Equal(t, "a", resp.Items[0].Item.ID, "most urgent first")

	out, err = executeCmd(t, app, withChain("progress", "status", "--as-of", "2024-01-10", "--overdue")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Task a")
	assert.NotContains(t, out, "Task c")
}

func TestProgressCmd_RecordValidation(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)

	_, err := executeCmd(t, app, "progress", "record", "a", "--percent", "120")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = executeCmd(t, app, "progress", "record", "ghost", "--percent", "10")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = executeCmd(t, app, "progress", "record", "a")
	require.Error(t, err, "--percent is required")
}

func TestWorkItemCmd_AddShowList(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, withChain("--json", "work-item", "add", "--title", "  Rebar survey  ")...)
	require.NoError(t, err)
	w := decodeOutput[workItemJSON](t, out)
	assert.Len(t, w.ID, 36, "a UUID is generated")
	assert.Equal(t, "Rebar survey", w.Title)
	assert.Equal(t, "approved", w.Status)
	assert.True(t, w.Eligible)

	out, err = executeCmd(t, app, "work-item", "show", w.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Rebar survey")
	assert.Contains(t, out, "crew-a/FY2024")

	out, err = executeCmd(t, app, withChain("wi", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Rebar survey")

	_, err = executeCmd(t, app, withChain("work-item", "add", "--title", "x", "--status", "parked")...)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = executeCmd(t, app, "work-item", "status", w.ID, "parked")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestPlanCmd_Import(t *testing.T) {
	app := testApp(t)
	file := writeFile(t, "plan.yaml", `fiscal_year: 2024
assigned_by: planner
defaults:
  duration_workdays: 3
resources:
  - resource_key: crew-p
    common_start: "2024-01-01"
    items:
      - id: p1
        title: Survey
      - id: p2
        title: Pour
`)
	out, err := executeCmd(t, app, "plan", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 work items into 1 chains")

	out, err = executeCmd(t, app, "--json", "chain", "show", "-r", "crew-p", "--fy", "2024")
	require.NoError(t, err)
	view := decodeOutput[contract.ChainView](t, out)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "2024-01-03", *view.Items[0].EndDate)
	assert.Equal(t, "2024-01-04", *view.Items[1].StartDate)
	assert.Equal(t, "planner", view.Items[1].AssignedBy)

	_, err = executeCmd(t, app, "plan", "import", file)
	require.Error(t, err, "importing the same ids twice is refused")
}

func TestChainCmd_EditInteractive(t *testing.T) {
	t.Run("needs a terminal", func(t *testing.T) {
		app := testApp(t)
		seedChain(t, app)
		_, err := executeCmd(t, app, withChain("chain", "edit", "b", "-i")...)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("cancelled form changes nothing", func(t *testing.T) {
		app := testApp(t)
		seedChain(t, app)
		app.IsInteractive = func() bool { return true }
		app.RunForm = func(*huh.Form) error { return huh.ErrUserAborted }

		out, err := executeCmd(t, app, withChain("chain", "edit", "b", "-i")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Edit cancelled.")
	})

	t.Run("unchanged answers are rejected", func(t *testing.T) {
		app := testApp(t)
		seedChain(t, app)
		app.IsInteractive = func() bool { return true }
		ran := false
		app.RunForm = func(*huh.Form) error { ran = true; return nil }

		_, err := executeCmd(t, app, withChain("chain", "edit", "b", "-i")...)
		assert.True(t, ran)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown item", func(t *testing.T) {
		app := testApp(t)
		seedChain(t, app)
		app.IsInteractive = func() bool { return true }
		app.RunForm = func(*huh.Form) error { return errors.New("form must not run") }

		_, err := executeCmd(t, app, withChain("chain", "edit", "ghost", "-i")...)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEditValues_Apply(t *testing.T) {
	start, end := "2024-01-08", "2024-01-12"
	current := contract.ScheduleItemView{
		ID: "b", AssignmentType: "auto", StartDate: &start, EndDate: &end,
		DurationWorkdays: testutil.IntPtr(5), ExcludeNonWorkdays: true,
	}

	v := editValuesOf(current)
	req, err := v.apply(contract.EditItemRequest{ItemID: "b"}, current)
	require.NoError(t, err)
	patch, err := req.ToPatch()
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty(), "unchanged values produce an empty patch")

	v.Assignment = "manual"
	v.Duration = ""
	v.Start = "2024-01-09"
	v.Exclude = false
	req, err = v.apply(contract.EditItemRequest{ItemID: "b"}, current)
	require.NoError(t, err)
	assert.Equal(t, "manual", *req.AssignmentType)
	assert.True(t, req.ClearDuration)
	assert.Equal(t, "2024-01-09", *req.StartDate)
	assert.Nil(t, req.EndDate)
	assert.False(t, *req.ExcludeNonWorkdays)

	v = editValuesOf(current)
	v.Duration = "7"
	req, err = v.apply(contract.EditItemRequest{ItemID: "b"}, current)
	require.NoError(t, err)
	assert.Equal(t, 7, *req.DurationWorkdays)
	assert.False(t, req.ClearDuration)

	v.Duration = "seven"
	_, err = v.apply(contract.EditItemRequest{ItemID: "b"}, current)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestFormValidators(t *testing.T) {
	assert.NoError(t, validatePositiveInt(""))
	assert.NoError(t, validatePositiveInt(" 3 "))
	assert.Error(t, validatePositiveInt("0"))
	assert.Error(t, validatePositiveInt("abc"))

	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2024-02-29"))
	assert.Error(t, validateOptionalDate("2023-02-29"))
	assert.Error(t, validateOptionalDate("29/02/2024"))
}

func TestServeCmd_StopsWithContext(t *testing.T) {
	app := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := executeCmdContext(t, ctx, app, "serve", "--addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "Serving timeline API on http://127.0.0.1:")
}

func TestServeCmd_RejectsBadSyncSchedule(t *testing.T) {
	app := testApp(t)
	t.Setenv("TIMELINE_SYNC_SCHEDULE", "every tuesday")

	_, err := executeCmd(t, app, "serve", "--addr", "127.0.0.1:0")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAPIHandler_ServesMetrics(t *testing.T) {
	app := testApp(t)
	reg := prometheus.NewRegistry()
	app.Metrics = metrics.NewObserver(reg)
	app.Gatherer = reg

	srv := httptest.NewServer(app.apiHandler("/v1"))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "timeline_http_request_duration_seconds")
}

func TestRootCmd_JSONErrorsStayOnReturn(t *testing.T) {
	app := testApp(t)
	seedChain(t, app)
	out, err := executeCmd(t, app, withChain("--json", "chain", "close", "ghost")...)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, out, "errors are returned to main, not printed")
}

func TestRootCmd_RejectsBadFiscalStartMonth(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "--fiscal-start-month", "13", "chain", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fiscal_start_month")
}

func TestRootCmd_SetupRunsWithResolvedConfig(t *testing.T) {
	app := testApp(t)
	var got int
	app.Setup = func(cfg config.Config) error {
		got = int(cfg.FiscalStartMonth)
		return nil
	}
	_, err := executeCmd(t, app, "--fiscal-start-month", "7", "chain", "list")
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 2023, app.currentFiscalYear(), "Feb 2024 is in the July-start FY2023")
}
