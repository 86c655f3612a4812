package httpapi

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/service"
)

type ChainPath struct {
	ResourceKey string `path:"resource_key"`
	FiscalYear  int    `path:"fiscal_year"`
}

type chainResultOutput struct {
	Body contract.ChainResult
}

func chainResult(res *contract.ChainResult, err error) (*chainResultOutput, error) {
	if err != nil {
		return nil, handleError(err)
	}
	return &chainResultOutput{Body: *res}, nil
}

func registerChains(api huma.API, svc service.ScheduleService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-chains",
		Method:      http.MethodGet,
		Path:        "/chains",
		Summary:     "List chains",
		Tags:        []string{"chains"},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ChainKeyResponse
	}, error) {
		keys, err := svc.ListChains(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ChainKeyResponse
		}{Body: chainKeyResponses(keys)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-chain",
		Method:      http.MethodGet,
		Path:        "/chains/{resource_key}/{fiscal_year}",
		Summary:     "Show a chain",
		Tags:        []string{"chains"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, func(ctx context.Context, input *ChainPath) (*struct {
		Body contract.ChainView
	}, error) {
		view, err := svc.Show(ctx, chainRef(input.ResourceKey, input.FiscalYear, nil))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body contract.ChainView
		}{Body: *view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "recompute-chain",
		Method:      http.MethodPost,
		Path:        "/chains/{resource_key}/{fiscal_year}/recompute",
		Summary:     "Recompute every date of a chain",
		Tags:        []string{"chains"},
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *ChainPath) (*chainResultOutput, error) {
		return chainResult(svc.Recompute(ctx, chainRef(input.ResourceKey, input.FiscalYear, nil)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-chain-item",
		Method:      http.MethodPost,
		Path:        "/chains/{resource_key}/{fiscal_year}/reorder",
		Summary:     "Move an item to a new position",
		Tags:        []string{"chains"},
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ChainPath
		Body ReorderBody
	}) (*chainResultOutput, error) {
		return chainResult(svc.Reorder(ctx, contract.ReorderRequest{
			ChainRef: chainRef(input.ResourceKey, input.FiscalYear, input.Body.ExpectedVersion),
			ItemID:   input.Body.ItemID,
			NewIndex: input.Body.NewIndex,
		}))
	})

	huma.Register(api, huma.Operation{
		OperationID: "apply-common-start",
		Method:      http.MethodPost,
		Path:        "/chains/{resource_key}/{fiscal_year}/common-start",
		Summary:     "Anchor the chain on a start date",
		Tags:        []string{"chains"},
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ChainPath
		Body CommonStartBody
	}) (*chainResultOutput, error) {
		return chainResult(svc.ApplyCommonStart(ctx, contract.CommonStartRequest{
			ChainRef:  chainRef(input.ResourceKey, input.FiscalYear, input.Body.ExpectedVersion),
			StartDate: input.Body.StartDate,
		}))
	})

	huma.Register(api, huma.Operation{
		OperationID: "edit-chain-item",
		Method:      http.MethodPatch,
		Path:        "/chains/{resource_key}/{fiscal_year}/items/{item_id}",
		Summary:     "Edit one item and cascade the change",
		Tags:        []string{"chains"},
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ChainPath
		ItemID string `path:"item_id"`
		Body   EditItemBody
	}) (*chainResultOutput, error) {
		b := input.Body
		return chainResult(svc.EditItem(ctx, contract.EditItemRequest{
			ChainRef:           chainRef(input.ResourceKey, input.FiscalYear, b.ExpectedVersion),
			ItemID:             input.ItemID,
			AssignmentType:     b.AssignmentType,
			DurationWorkdays:   b.DurationWorkdays,
			ClearDuration:      b.ClearDuration,
			StartDate:          b.StartDate,
			EndDate:            b.EndDate,
			ExcludeNonWorkdays: b.ExcludeNonWorkdays,
			AssignedBy:         b.AssignedBy,
		}))
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-chain-item",
		Method:      http.MethodDelete,
		Path:        "/chains/{resource_key}/{fiscal_year}/items/{item_id}",
		Summary:     "Close an item and move it to history",
		Tags:        []string{"chains"},
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ChainPath
		ItemID          string `path:"item_id"`
		ExpectedVersion int64  `query:"expected_version" minimum:"0" doc:"Reject the close when the chain moved past this version; 0 skips the check"`
	}) (*chainResultOutput, error) {
		var expected *int64
		if input.ExpectedVersion > 0 {
			expected = &input.ExpectedVersion
		}
		return chainResult(svc.Close(ctx, contract.CloseItemRequest{
			ChainRef: chainRef(input.ResourceKey, input.FiscalYear, expected),
			ItemID:   input.ItemID,
		}))
	})

	huma.Register(api, huma.Operation{
		OperationID: "sync-chain",
		Method:      http.MethodPost,
		Path:        "/chains/{resource_key}/{fiscal_year}/sync",
		Summary:     "Reconcile a chain with its eligible work items",
		Tags:        []string{"chains"},
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ChainPath
		Body SyncBody `required:"false"`
	}) (*struct {
		Body contract.SyncResult
	}, error) {
		req := contract.NewSyncRequest(input.ResourceKey, input.FiscalYear)
		req.ExpectedVersion = input.Body.ExpectedVersion
		req.DefaultDurationWorkdays = input.Body.DefaultDurationWorkdays
		if input.Body.AssignedBy != "" {
			req.AssignedBy = input.Body.AssignedBy
		}
		res, err := svc.Sync(ctx, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body contract.SyncResult
		}{Body: *res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "chain-history",
		Method:      http.MethodGet,
		Path:        "/chains/{resource_key}/{fiscal_year}/history",
		Summary:     "List closed items",
		Tags:        []string{"chains"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, func(ctx context.Context, input *ChainPath) (*struct {
		Body []contract.ScheduleItemView
	}, error) {
		items, err := svc.History(ctx, chainRef(input.ResourceKey, input.FiscalYear, nil))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []contract.ScheduleItemView
		}{Body: items}, nil
	})
}
