package service

import (
	"fmt"

	"github.com/alexanderramin/timeline/internal/domain"
)

// formatValidationErrors folds every error a file validator found into one
// validation error.
func formatValidationErrors(what string, errs []error) error {
	msg := fmt.Sprintf("%s validation failed (%d errors):", what, len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return domain.NewValidationError("", "%s", msg)
}
