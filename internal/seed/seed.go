// Package seed loads helpdesk reference data from YAML into a store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

//go:embed default.yaml
var defaultDataset []byte

// ErrInvalidDataset wraps every validation problem found in a dataset.
var ErrInvalidDataset = errors.New("invalid seed dataset")

// Dataset is the YAML document. Categories, SLAs and profiles refer to
// departments and priorities by name.
type Dataset struct {
	Departments []Department `yaml:"departments"`
	Priorities  []Priority   `yaml:"priorities"`
	Categories  []Category   `yaml:"categories"`
	SLAs        []SLA        `yaml:"slas"`
	Profiles    []Profile    `yaml:"profiles"`
}

type Department struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Email       string `yaml:"email"`
	Active      *bool  `yaml:"active"`
}

type Priority struct {
	Name              string `yaml:"name"`
	Level             int    `yaml:"level"`
	ResponseTimeHours int    `yaml:"response_time_hours"`
	Color             string `yaml:"color"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Department  string `yaml:"department"`
	Active      *bool  `yaml:"active"`
}

type SLA struct {
	Name                string `yaml:"name"`
	Department          string `yaml:"department"`
	Priority            string `yaml:"priority"`
	ResponseTimeHours   int    `yaml:"response_time_hours"`
	ResolutionTimeHours int    `yaml:"resolution_time_hours"`
	Active              *bool  `yaml:"active"`
}

type Profile struct {
	UserID     string      `yaml:"user_id"`
	FullName   string      `yaml:"full_name"`
	Email      string      `yaml:"email"`
	Department string      `yaml:"department"`
	JobTitle   string      `yaml:"job_title"`
	Phone      string      `yaml:"phone"`
	Role       domain.Role `yaml:"role"`
}

// Summary counts the rows written per table.
type Summary struct {
	Departments int
	Priorities  int
	Categories  int
	SLAs        int
	Profiles    int
}

// Default returns the built-in demo dataset.
func Default() (*Dataset, error) {
	return Parse(defaultDataset)
}

// Load reads the dataset at path, or the built-in one when path is empty.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML dataset. Unknown keys are rejected.
func Parse(data []byte) (*Dataset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDataset)
		}
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks names are present and unique and that every reference
// resolves inside the dataset.
func (ds *Dataset) Validate() error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	departments := map[string]bool{}
	for i, dept := range ds.Departments {
		switch {
		case dept.Name == "":
			fail("departments[%d]: name required", i)
		case departments[dept.Name]:
			fail("departments[%d]: duplicate name %q", i, dept.Name)
		}
		departments[dept.Name] = true
	}

	priorities := map[string]bool{}
	levels := map[int]bool{}
	for i, priority := range ds.Priorities {
		switch {
		case priority.Name == "":
			fail("priorities[%d]: name required", i)
		case priorities[priority.Name]:
			fail("priorities[%d]: duplicate name %q", i, priority.Name)
		}
		if priority.Level < 1 {
			fail("priorities[%d]: level must be positive", i)
		} else if levels[priority.Level] {
			fail("priorities[%d]: duplicate level %d", i, priority.Level)
		}
		if priority.ResponseTimeHours < 0 {
			fail("priorities[%d]: response_time_hours must not be negative", i)
		}
		priorities[priority.Name] = true
		levels[priority.Level] = true
	}

	for i, category := range ds.Categories {
		if category.Name == "" {
			fail("categories[%d]: name required", i)
		}
		if !departments[category.Department] {
			fail("categories[%d]: unknown department %q", i, category.Department)
		}
	}

	for i, sla := range ds.SLAs {
		if sla.Name == "" {
			fail("slas[%d]: name required", i)
		}
		if !departments[sla.Department] {
			fail("slas[%d]: unknown department %q", i, sla.Department)
		}
		if !priorities[sla.Priority] {
			fail("slas[%d]: unknown priority %q", i, sla.Priority)
		}
	}

	users := map[string]bool{}
	for i, profile := range ds.Profiles {
		switch {
		case profile.UserID == "":
			fail("profiles[%d]: user_id required", i)
		case users[profile.UserID]:
			fail("profiles[%d]: duplicate user_id %q", i, profile.UserID)
		}
		users[profile.UserID] = true
		switch profile.Role {
		case "", domain.RoleSubmitter, domain.RoleAgent, domain.RoleSupervisor:
		default:
			fail("profiles[%d]: unknown role %q", i, profile.Role)
		}
		if profile.Department != "" && !departments[profile.Department] {
			fail("profiles[%d]: unknown department %q", i, profile.Department)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, errors.Join(problems...))
	}
	return nil
}

// Apply upserts the dataset in one transaction. Rows are matched on their
// natural keys, so running it twice leaves the store unchanged.
func Apply(ctx context.Context, store repository.Store, ds *Dataset) (Summary, error) {
	var summary Summary
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		summary = Summary{}
		departmentIDs := make(map[string]string, len(ds.Departments))
		for _, dept := range ds.Departments {
			row := &domain.Department{
				Name:        dept.Name,
				Description: dept.Description,
				Email:       dept.Email,
				IsActive:    active(dept.Active),
			}
			if err := tx.Departments().Upsert(ctx, row); err != nil {
				return fmt.Errorf("department %q: %w", dept.Name, err)
			}
			departmentIDs[dept.Name] = row.ID
			summary.Departments++
		}

		priorityIDs := make(map[string]string, len(ds.Priorities))
		for _, priority := range ds.Priorities {
			row := &domain.Priority{
				Name:              priority.Name,
				Level:             priority.Level,
				ResponseTimeHours: priority.ResponseTimeHours,
				Color:             priority.Color,
			}
			if err := tx.Priorities().Upsert(ctx, row); err != nil {
				return fmt.Errorf("priority %q: %w", priority.Name, err)
			}
			priorityIDs[priority.Name] = row.ID
			summary.Priorities++
		}

		for _, category := range ds.Categories {
			row := &domain.Category{
				Name:         category.Name,
				Description:  category.Description,
				DepartmentID: departmentIDs[category.Department],
				IsActive:     active(category.Active),
			}
			if err := tx.Categories().Upsert(ctx, row); err != nil {
				return fmt.Errorf("category %q: %w", category.Name, err)
			}
			summary.Categories++
		}

		for _, sla := range ds.SLAs {
			row := &domain.SLA{
				Name:                sla.Name,
				DepartmentID:        departmentIDs[sla.Department],
				PriorityID:          priorityIDs[sla.Priority],
				ResponseTimeHours:   sla.ResponseTimeHours,
				ResolutionTimeHours: sla.ResolutionTimeHours,
				IsActive:            active(sla.Active),
			}
			if err := tx.SLAs().Upsert(ctx, row); err != nil {
				return fmt.Errorf("sla %q: %w", sla.Name, err)
			}
			summary.SLAs++
		}

		for _, profile := range ds.Profiles {
			row := &domain.Profile{
				UserID:       profile.UserID,
				FullName:     profile.FullName,
				Email:        profile.Email,
				JobTitle:     profile.JobTitle,
				Phone:        profile.Phone,
				IsAgent:      profile.Role == domain.RoleAgent,
				IsSupervisor: profile.Role == domain.RoleSupervisor,
			}
			if profile.Department != "" {
				id := departmentIDs[profile.Department]
				row.DepartmentID = &id
			}
			if err := tx.Profiles().Upsert(ctx, row); err != nil {
				return fmt.Errorf("profile %q: %w", profile.UserID, err)
			}
			summary.Profiles++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func active(v *bool) bool {
	return v == nil || *v
}
