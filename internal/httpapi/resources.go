package httpapi

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/service"
)

func registerProgress(api huma.API, svc service.ProgressService) {
	huma.Register(api, huma.Operation{
		OperationID: "record-progress",
		Method:      http.MethodPut,
		Path:        "/progress/{item_id}",
		Summary:     "Record actual progress for an item",
		Tags:        []string{"progress"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
		Body   ProgressBody
	}) (*struct {
		Body contract.ProgressView
	}, error) {
		view, err := svc.Record(ctx, contract.RecordProgressRequest{
			ItemID:          input.ItemID,
			ActualStartDate: input.Body.ActualStartDate,
			ActualEndDate:   input.Body.ActualEndDate,
			ProgressPercent: input.Body.ProgressPercent,
			StatusNotes:     input.Body.StatusNotes,
			UpdatedBy:       input.Body.UpdatedBy,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body contract.ProgressView
		}{Body: *view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-progress",
		Method:      http.MethodGet,
		Path:        "/progress/{item_id}",
		Summary:     "Show recorded progress",
		Tags:        []string{"progress"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
	}) (*struct {
		Body contract.ProgressView
	}, error) {
		view, err := svc.Get(ctx, input.ItemID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body contract.ProgressView
		}{Body: *view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "chain-status",
		Method:      http.MethodGet,
		Path:        "/chains/{resource_key}/{fiscal_year}/status",
		Summary:     "Assess every item of a chain, most urgent first",
		Tags:        []string{"progress"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ChainPath
		AsOf        string `query:"as_of" doc:"YYYY-MM-DD, defaults to today"`
		OnlyOverdue bool   `query:"only_overdue"`
	}) (*struct {
		Body contract.StatusResponse
	}, error) {
		req := contract.NewStatusRequest(input.ResourceKey, input.FiscalYear)
		req.OnlyOverdue = input.OnlyOverdue
		if input.AsOf != "" {
			req.AsOf = &input.AsOf
		}
		resp, err := svc.Status(ctx, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body contract.StatusResponse
		}{Body: *resp}, nil
	})
}

func registerHolidays(api huma.API, svc service.HolidayService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-holiday-years",
		Method:      http.MethodGet,
		Path:        "/holidays",
		Summary:     "List fiscal years with a loaded holiday set",
		Tags:        []string{"holidays"},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []int
	}, error) {
		years, err := svc.ListYears(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if years == nil {
			years = []int{}
		}
		return &struct {
			Body []int
		}{Body: years}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-holidays",
		Method:      http.MethodGet,
		Path:        "/holidays/{fiscal_year}",
		Summary:     "Show the holiday set of a fiscal year",
		Tags:        []string{"holidays"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		FiscalYear int `path:"fiscal_year"`
	}) (*struct {
		Body HolidaysResponse
	}, error) {
		set, err := svc.Get(ctx, input.FiscalYear)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HolidaysResponse
		}{Body: holidaysResponse(set)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "replace-holidays",
		Method:      http.MethodPut,
		Path:        "/holidays/{fiscal_year}",
		Summary:     "Replace the holiday set of a fiscal year",
		Tags:        []string{"holidays"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		FiscalYear int `path:"fiscal_year"`
		Body       HolidaysBody
	}) (*struct {
		Body HolidaysResponse
	}, error) {
		set, err := input.Body.toSet(input.FiscalYear)
		if err != nil {
			return nil, handleError(err)
		}
		if err := svc.Import(ctx, set); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HolidaysResponse
		}{Body: holidaysResponse(&set)}, nil
	})
}

func registerWorkItems(api huma.API, svc service.WorkItemService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-work-item",
		Method:        http.MethodPost,
		Path:          "/work-items",
		Summary:       "Register a work item",
		Tags:          []string{"work-items"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateWorkItemBody
	}) (*struct {
		Body WorkItemResponse
	}, error) {
		w := &domain.WorkItem{
			ID:          input.Body.ID,
			ResourceKey: input.Body.ResourceKey,
			FiscalYear:  input.Body.FiscalYear,
			Title:       input.Body.Title,
			Status:      domain.WorkItemStatus(input.Body.Status),
		}
		if err := svc.Create(ctx, w); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WorkItemResponse
		}{Body: workItemResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-work-item",
		Method:      http.MethodGet,
		Path:        "/work-items/{id}",
		Summary:     "Show a work item",
		Tags:        []string{"work-items"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body WorkItemResponse
	}, error) {
		w, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WorkItemResponse
		}{Body: workItemResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-work-item",
		Method:      http.MethodPatch,
		Path:        "/work-items/{id}",
		Summary:     "Change a work item's status",
		Tags:        []string{"work-items"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body UpdateWorkItemBody
	}) (*struct {
		Body WorkItemResponse
	}, error) {
		if err := svc.UpdateStatus(ctx, input.ID, domain.WorkItemStatus(input.Body.Status)); err != nil {
			return nil, handleError(err)
		}
		w, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WorkItemResponse
		}{Body: workItemResponse(w)}, nil
	})
}
