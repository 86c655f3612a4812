package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// UseCaseEvent describes one finished service call.
type UseCaseEvent struct {
	Name      string
	StartedAt time.Time
	Duration  time.Duration
	Success   bool
	Err       error
	// Fields carries use-case specific context such as the chain key or
	// how many items moved.
	Fields map[string]any
}

type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger *slog.Logger
}

// NewLogUseCaseObserver logs every use case to w at info level and above.
func NewLogUseCaseObserver(w io.Writer) UseCaseObserver {
	return NewLeveledLogUseCaseObserver(w, slog.LevelInfo)
}

// NewLeveledLogUseCaseObserver logs successes at info. Caller mistakes
// (bad input, unknown ids, stale versions) log at warn and everything else
// at error. A nil writer disables logging.
func NewLeveledLogUseCaseObserver(w io.Writer, level slog.Level) UseCaseObserver {
	if w == nil {
		return NoopUseCaseObserver{}
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &logUseCaseObserver{logger: slog.New(h)}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	attrs := []slog.Attr{
		slog.String("use_case", event.Name),
		slog.Int64("duration_ms", event.Duration.Milliseconds()),
		slog.Bool("success", event.Success),
	}
	for _, k := range slices.Sorted(maps.Keys(event.Fields)) {
		attrs = append(attrs, slog.Any(k, event.Fields[k]))
	}
	level := slog.LevelInfo
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
		level = errorLevel(event.Err)
	}
	o.logger.LogAttrs(ctx, level, "service_use_case", attrs...)
}

func errorLevel(err error) slog.Level {
	for _, client := range []error{domain.ErrValidation, domain.ErrNotFound, domain.ErrInvalidIndex, domain.ErrConflict} {
		if errors.Is(err, client) {
			return slog.LevelWarn
		}
	}
	return slog.LevelError
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopUseCaseObserver{}
}
