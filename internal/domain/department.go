package domain

import "time"

// Department represents a high-level organizational unit.
type Department struct {
	ID          string
	Name        string
	Description string
	Email       string
	IsActive    bool
	CreatedAt   time.Time
}

// Category classifies tickets within a single department.
type Category struct {
	ID           string
	Name         string
	Description  string
	DepartmentID string
	IsActive     bool
	CreatedAt    time.Time
}

// Priority carries the response target used to derive due dates.
type Priority struct {
	ID                string
	Name              string
	Level             int
	ResponseTimeHours int
	Color             string
}

// ResponseTime returns the response target as a duration.
func (p Priority) ResponseTime() time.Duration {
	return time.Duration(p.ResponseTimeHours) * time.Hour
}

// SLA links a department and priority to response and resolution targets.
type SLA struct {
	ID                  string
	Name                string
	DepartmentID        string
	PriorityID          string
	ResponseTimeHours   int
	ResolutionTimeHours int
	IsActive            bool
}
