package service

import (
	"context"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/importer"
)

// ScheduleService runs the chain use cases. Each mutating call loads the
// chain and its holidays, applies one operation and saves the whole chain
// in a single transaction.
type ScheduleService interface {
	Show(ctx context.Context, ref contract.ChainRef) (*contract.ChainView, error)
	Recompute(ctx context.Context, ref contract.ChainRef) (*contract.ChainResult, error)
	Reorder(ctx context.Context, req contract.ReorderRequest) (*contract.ChainResult, error)
	ApplyCommonStart(ctx context.Context, req contract.CommonStartRequest) (*contract.ChainResult, error)
	EditItem(ctx context.Context, req contract.EditItemRequest) (*contract.ChainResult, error)
	Close(ctx context.Context, req contract.CloseItemRequest) (*contract.ChainResult, error)
	Sync(ctx context.Context, req contract.SyncRequest) (*contract.SyncResult, error)
	History(ctx context.Context, ref contract.ChainRef) ([]contract.ScheduleItemView, error)
	ListChains(ctx context.Context) ([]domain.ChainKey, error)
}

type ProgressService interface {
	Record(ctx context.Context, req contract.RecordProgressRequest) (*contract.ProgressView, error)
	Get(ctx context.Context, itemID string) (*contract.ProgressView, error)
	Status(ctx context.Context, req contract.StatusRequest) (*contract.StatusResponse, error)
}

type HolidayService interface {
	Import(ctx context.Context, set domain.HolidaySet) error
	ImportFile(ctx context.Context, path string) (*domain.HolidaySet, error)
	Get(ctx context.Context, fiscalYear int) (*domain.HolidaySet, error)
	ListYears(ctx context.Context) ([]int, error)
}

type WorkItemService interface {
	Create(ctx context.Context, w *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	ListEligible(ctx context.Context, resourceKey string, fiscalYear int) ([]*domain.WorkItem, error)
	UpdateStatus(ctx context.Context, id string, status domain.WorkItemStatus) error
	ListChainKeys(ctx context.Context) ([]domain.ChainKey, error)
}

// ImportResult holds the outcome of a plan import.
type ImportResult struct {
	Chains        []contract.ChainView `json:"chains"`
	WorkItemCount int                  `json:"work_item_count"`
	ItemCount     int                  `json:"item_count"`
}

type ImportService interface {
	ImportPlan(ctx context.Context, filePath string) (*ImportResult, error)
	ImportPlanFromFile(ctx context.Context, f *importer.PlanFile) (*ImportResult, error)
}
