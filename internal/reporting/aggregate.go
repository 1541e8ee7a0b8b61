// Package reporting computes rollup statistics over an already scoped
// ticket set.
package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const topAgentLimit = 10

// Lookups resolves ids to display labels.
type Lookups struct {
	Departments map[string]string
	Priorities  map[string]domain.Priority
	Users       map[string]string
}

func (l Lookups) department(id string) string {
	if name, ok := l.Departments[id]; ok {
		return name
	}
	return id
}

func (l Lookups) user(id string) string {
	if name, ok := l.Users[id]; ok && name != "" {
		return name
	}
	return id
}

// Aggregate computes ReportStats for tickets. The caller has already applied
// the scope and the created_at range.
func Aggregate(tickets []domain.Ticket, lookups Lookups, now time.Time) domain.ReportStats {
	stats := domain.ReportStats{
		Total:        len(tickets),
		ByDepartment: []domain.GroupCount{},
		ByPriority:   []domain.PriorityCount{},
		ByStatus:     []domain.GroupCount{},
		TopAgents:    []domain.GroupCount{},
	}

	byDepartment := map[string]int{}
	byPriority := map[string]int{}
	byStatus := map[string]int{}
	byAgent := map[string]int{}
	var resolutionTotal time.Duration
	var resolutionCount int

	for i := range tickets {
		ticket := &tickets[i]
		switch ticket.Status {
		case domain.TicketStatusResolved:
			stats.Resolved++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
		if isOverdue(ticket, now) {
			stats.Overdue++
		}

		finished := ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed
		if finished && ticket.ResolvedAt != nil {
			resolutionTotal += ticket.ResolvedAt.Sub(ticket.CreatedAt)
			resolutionCount++
		}
		if finished && ticket.AssigneeID != nil {
			byAgent[*ticket.AssigneeID]++
		}

		byDepartment[ticket.DepartmentID]++
		byPriority[ticket.PriorityID]++
		byStatus[string(ticket.Status)]++
	}

	if stats.Total > 0 {
		stats.ResolutionRate = round1(float64(stats.Resolved+stats.Closed) / float64(stats.Total) * 100)
	}
	if resolutionCount > 0 {
		avg := round1(resolutionTotal.Hours() / float64(resolutionCount))
		stats.AvgResolutionHours = &avg
	}

	for id, count := range byDepartment {
		stats.ByDepartment = append(stats.ByDepartment, domain.GroupCount{Key: id, Label: lookups.department(id), Count: count})
	}
	sortByCountDesc(stats.ByDepartment)

	for id, count := range byPriority {
		priority, ok := lookups.Priorities[id]
		label := id
		if ok {
			label = priority.Name
		}
		stats.ByPriority = append(stats.ByPriority, domain.PriorityCount{
			GroupCount: domain.GroupCount{Key: id, Label: label, Count: count},
			Level:      priority.Level,
		})
	}
	sort.Slice(stats.ByPriority, func(i, j int) bool {
		if stats.ByPriority[i].Level != stats.ByPriority[j].Level {
			return stats.ByPriority[i].Level < stats.ByPriority[j].Level
		}
		return stats.ByPriority[i].Key < stats.ByPriority[j].Key
	})

	for status, count := range byStatus {
		stats.ByStatus = append(stats.ByStatus, domain.GroupCount{Key: status, Label: domain.TicketStatus(status).Label(), Count: count})
	}
	sort.Slice(stats.ByStatus, func(i, j int) bool { return stats.ByStatus[i].Key < stats.ByStatus[j].Key })

	for id, count := range byAgent {
		stats.TopAgents = append(stats.TopAgents, domain.GroupCount{Key: id, Label: lookups.user(id), Count: count})
	}
	sortByCountDesc(stats.TopAgents)
	if len(stats.TopAgents) > topAgentLimit {
		stats.TopAgents = stats.TopAgents[:topAgentLimit]
	}

	return stats
}

// isOverdue matches the report definition: due before now while still open,
// in progress or pending.
func isOverdue(ticket *domain.Ticket, now time.Time) bool {
	if ticket.DueDate == nil || !ticket.DueDate.Before(now) {
		return false
	}
	for _, status := range domain.ActiveStatuses {
		if ticket.Status == status {
			return true
		}
	}
	return false
}

func sortByCountDesc(groups []domain.GroupCount) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Label < groups[j].Label
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
