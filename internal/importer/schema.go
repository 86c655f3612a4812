// Package importer reads holiday calendars and chain plans from YAML or JSON
// files.
package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HolidayFile is the file format for one fiscal year's holidays.
type HolidayFile struct {
	FiscalYear int            `json:"fiscal_year" yaml:"fiscal_year"`
	Holidays   []HolidayEntry `json:"holidays" yaml:"holidays"`
}

type HolidayEntry struct {
	Date string `json:"date" yaml:"date"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// PlanFile seeds work items and the chain of one or more resources.
type PlanFile struct {
	FiscalYear int            `json:"fiscal_year" yaml:"fiscal_year"`
	AssignedBy string         `json:"assigned_by,omitempty" yaml:"assigned_by,omitempty"`
	Defaults   *PlanDefaults  `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Resources  []ResourcePlan `json:"resources" yaml:"resources"`
}

// PlanDefaults cascade to every item that leaves the field unset.
type PlanDefaults struct {
	DurationWorkdays   *int  `json:"duration_workdays,omitempty" yaml:"duration_workdays,omitempty"`
	ExcludeNonWorkdays *bool `json:"exclude_non_workdays,omitempty" yaml:"exclude_non_workdays,omitempty"`
}

type ResourcePlan struct {
	ResourceKey string     `json:"resource_key" yaml:"resource_key"`
	CommonStart *string    `json:"common_start,omitempty" yaml:"common_start,omitempty"`
	Items       []PlanItem `json:"items" yaml:"items"`
}

// PlanItem is one chain entry. ID is optional; a fresh id is generated when
// it is blank.
type PlanItem struct {
	ID                 string  `json:"id,omitempty" yaml:"id,omitempty"`
	Title              string  `json:"title" yaml:"title"`
	Status             string  `json:"status,omitempty" yaml:"status,omitempty"`
	Assignment         string  `json:"assignment,omitempty" yaml:"assignment,omitempty"`
	DurationWorkdays   *int    `json:"duration_workdays,omitempty" yaml:"duration_workdays,omitempty"`
	StartDate          *string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate            *string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	ExcludeNonWorkdays *bool   `json:"exclude_non_workdays,omitempty" yaml:"exclude_non_workdays,omitempty"`
}

// LoadHolidayFile reads a holiday file. The format follows the extension:
// .json is JSON, anything else is YAML.
func LoadHolidayFile(path string) (*HolidayFile, error) {
	var f HolidayFile
	if err := decodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parsing holiday file: %w", err)
	}
	return &f, nil
}

// LoadPlanFile reads a plan file in YAML or JSON.
func LoadPlanFile(path string) (*PlanFile, error) {
	var f PlanFile
	if err := decodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	return &f, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}
