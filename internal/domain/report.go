package domain

import "time"

// GroupCount is one bucket of a grouped ticket count.
type GroupCount struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PriorityCount is a priority bucket, ordered by level.
type PriorityCount struct {
	GroupCount
	Level int `json:"level"`
}

// ReportStats is the rollup over a scoped, date bounded ticket set.
type ReportStats struct {
	DateFrom           time.Time       `json:"date_from"`
	DateTo             time.Time       `json:"date_to"`
	Total              int             `json:"total"`
	Resolved           int             `json:"resolved"`
	Closed             int             `json:"closed"`
	Overdue            int             `json:"overdue"`
	ResolutionRate     float64         `json:"resolution_rate"`
	AvgResolutionHours *float64        `json:"avg_resolution_hours"`
	ByDepartment       []GroupCount    `json:"by_department"`
	ByPriority         []PriorityCount `json:"by_priority"`
	ByStatus           []GroupCount    `json:"by_status"`
	TopAgents          []GroupCount    `json:"top_agents"`
}

// TicketStats are the dashboard counters over a principal's scope.
type TicketStats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
	Resolved   int `json:"resolved"`
	Overdue    int `json:"overdue"`
}
