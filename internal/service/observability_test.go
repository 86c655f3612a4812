package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestLogUseCaseObserver_Levels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"success", nil, "level=INFO"},
		{"validation", domain.NewValidationError("fy", "bad"), "level=WARN"},
		{"conflict", fmt.Errorf("save: %w", domain.ErrConflict), "level=WARN"},
		{"not found", domain.ErrNotFound, "level=WARN"},
		{"storage", fmt.Errorf("disk gone"), "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			obs := NewLogUseCaseObserver(&buf)
			obs.ObserveUseCase(context.Background(), UseCaseEvent{
				Name:    "chain.reorder",
				Success: tt.err == nil,
				Err:     tt.err,
				Fields:  map[string]any{"resource_key": "crew-a", "changed_count": 2},
			})
			out := buf.String()
			assert.Contains(t, out, tt.level)
			assert.Contains(t, out, "use_case=chain.reorder")
			assert.Less(t, bytes.Index(buf.Bytes(), []byte("changed_count=2")), bytes.Index(buf.Bytes(), []byte("resource_key=crew-a")))
		})
	}
}

func TestLogUseCaseObserver_NilWriter(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
}
