package reporting

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrStr(s string) *string        { return &s }

func lookups() Lookups {
	return Lookups{
		Departments: map[string]string{"d-it": "IT Support", "d-hr": "HR"},
		Priorities: map[string]domain.Priority{
			"p-low":  {ID: "p-low", Name: "Low", Level: 1},
			"p-crit": {ID: "p-crit", Name: "Critical", Level: 4},
		},
		Users: map[string]string{"a1": "Ann Agent", "a2": "Ben Agent"},
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil, lookups(), now)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.ResolutionRate)
	assert.Nil(t, stats.AvgResolutionHours)
	assert.Empty(t, stats.ByDepartment)
	assert.NotNil(t, stats.ByDepartment)
	assert.Empty(t, stats.TopAgents)
}

func TestAggregateNoResolvedTickets(t *testing.T) {
	tickets := []domain.Ticket{
		{DepartmentID: "d-it", PriorityID: "p-low", Status: domain.TicketStatusOpen, CreatedAt: now.Add(-time.Hour)},
		{DepartmentID: "d-it", PriorityID: "p-low", Status: domain.TicketStatusCancelled, CreatedAt: now.Add(-time.Hour)},
	}
	stats := Aggregate(tickets, lookups(), now)

	assert.Equal(t, 2, stats.Total)
	assert.Zero(t, stats.ResolutionRate)
	assert.Nil(t, stats.AvgResolutionHours)
}

func TestAggregateRollups(t *testing.T) {
	created := now.Add(-48 * time.Hour)
	tickets := []domain.Ticket{
		{DepartmentID: "d-it", PriorityID: "p-crit", Status: domain.TicketStatusResolved, AssigneeID: ptrStr("a1"),
			CreatedAt: created, ResolvedAt: ptrTime(created.Add(3 * time.Hour))},
		{DepartmentID: "d-it", PriorityID: "p-crit", Status: domain.TicketStatusClosed, AssigneeID: ptrStr("a1"),
			CreatedAt: created, ResolvedAt: ptrTime(created.Add(4 * time.Hour)), ClosedAt: ptrTime(created.Add(5 * time.Hour))},
		// Closed without ever being resolved: counts as closed, not in the average.
		{DepartmentID: "d-hr", PriorityID: "p-low", Status: domain.TicketStatusClosed, AssigneeID: ptrStr("a2"),
			CreatedAt: created, ClosedAt: ptrTime(created.Add(time.Hour))},
		// Reopened after resolution: resolved_at kept but excluded from the average.
		{DepartmentID: "d-it", PriorityID: "p-low", Status: domain.TicketStatusInProgress,
			CreatedAt: created, ResolvedAt: ptrTime(created.Add(100 * time.Hour)), DueDate: ptrTime(now.Add(-time.Minute))},
		{DepartmentID: "d-it", PriorityID: "p-low", Status: domain.TicketStatusPending,
			CreatedAt: created, DueDate: ptrTime(now.Add(time.Hour))},
		{DepartmentID: "d-hr", PriorityID: "p-low", Status: domain.TicketStatusCancelled,
			CreatedAt: created, DueDate: ptrTime(now.Add(-time.Hour))},
	}

	stats := Aggregate(tickets, lookups(), now)

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 2, stats.Closed)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 50.0, stats.ResolutionRate)
	require.NotNil(t, stats.AvgResolutionHours)
	assert.Equal(t, 3.5, *stats.AvgResolutionHours)

	assert.Equal(t, []domain.GroupCount{
		{Key: "d-it", Label: "IT Support", Count: 4},
		{Key: "d-hr", Label: "HR", Count: 2},
	}, stats.ByDepartment)

	require.Len(t, stats.ByPriority, 2)
	assert.Equal(t, "Low", stats.ByPriority[0].Label)
	assert.Equal(t, 1, stats.ByPriority[0].Level)
	assert.Equal(t, 4, stats.ByPriority[0].Count)
	assert.Equal(t, "Critical", stats.ByPriority[1].Label)

	statusKeys := make([]string, 0, len(stats.ByStatus))
	for _, group := range stats.ByStatus {
		statusKeys = append(statusKeys, group.Key)
	}
	assert.Equal(t, []string{"cancelled", "closed", "in_progress", "pending", "resolved"}, statusKeys)

	assert.Equal(t, []domain.GroupCount{
		{Key: "a1", Label: "Ann Agent", Count: 2},
		{Key: "a2", Label: "Ben Agent", Count: 1},
	}, stats.TopAgents)
}

func TestResolutionRateRounding(t *testing.T) {
	tickets := []domain.Ticket{
		{Status: domain.TicketStatusResolved},
		{Status: domain.TicketStatusOpen},
		{Status: domain.TicketStatusOpen},
	}
	assert.Equal(t, 33.3, Aggregate(tickets, Lookups{}, now).ResolutionRate)
}

func TestTopAgentsLimited(t *testing.T) {
	var tickets []domain.Ticket
	for i := 0; i < 12; i++ {
		agent := fmt.Sprintf("agent-%02d", i)
		for j := 0; j <= i; j++ {
			tickets = append(tickets, domain.Ticket{Status: domain.TicketStatusClosed, AssigneeID: ptrStr(agent)})
		}
	}
	stats := Aggregate(tickets, Lookups{}, now)

	require.Len(t, stats.TopAgents, 10)
	assert.Equal(t, "agent-11", stats.TopAgents[0].Key)
	assert.Equal(t, 12, stats.TopAgents[0].Count)
	assert.Equal(t, "agent-02", stats.TopAgents[9].Key)
}

func TestUnknownLabelsFallBackToIDs(t *testing.T) {
	stats := Aggregate([]domain.Ticket{{DepartmentID: "d-x", PriorityID: "p-x", Status: domain.TicketStatusOpen}}, Lookups{}, now)
	assert.Equal(t, "d-x", stats.ByDepartment[0].Label)
	assert.Equal(t, "p-x", stats.ByPriority[0].Label)
}
