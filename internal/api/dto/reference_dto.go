package dto

// DepartmentResponse is a department option.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// CategoryResponse is a category option.
type CategoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
	IsActive     bool   `json:"is_active"`
}

// PriorityResponse is a priority option.
type PriorityResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Level             int    `json:"level"`
	ResponseTimeHours int    `json:"response_time_hours"`
	Color             string `json:"color,omitempty"`
}

// SLAResponse is a service level target.
type SLAResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	DepartmentID        string `json:"department_id"`
	PriorityID          string `json:"priority_id"`
	ResponseTimeHours   int    `json:"response_time_hours"`
	ResolutionTimeHours int    `json:"resolution_time_hours"`
	IsActive            bool   `json:"is_active"`
}
