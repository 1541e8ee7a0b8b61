package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

func seedTickets(t *testing.T, store *memory.Store, tickets ...*domain.Ticket) {
	t.Helper()
	for i, ticket := range tickets {
		ticket.TicketNumber = "TK0000000" + string(rune('0'+i))
		ticket.Status = domain.TicketStatusOpen
		ticket.CreatedAt = time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC)
		require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	}
}

func titles(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.Title)
	}
	return out
}

func TestAgentScopeScenario(t *testing.T) {
	store := memory.NewStore()
	agent := &domain.Principal{UserID: "agent-it", Role: domain.RoleAgent, DepartmentID: strPtr("d-it")}
	seedTickets(t, store,
		&domain.Ticket{Title: "A", SubmitterID: "u1", DepartmentID: "d-hr", AssigneeID: strPtr("agent-it")},
		&domain.Ticket{Title: "B", SubmitterID: "u1", DepartmentID: "d-it"},
		&domain.Ticket{Title: "C", SubmitterID: "u1", DepartmentID: "d-hr"},
		&domain.Ticket{Title: "D", SubmitterID: "u1", DepartmentID: "d-hr", AssigneeID: strPtr("agent-hr")},
	)

	tickets, err := store.Tickets().List(context.Background(), Scope(agent, repository.TicketQuery{}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, titles(tickets))
	for _, ticket := range tickets {
		if ticket.DepartmentID != "d-it" {
			assert.True(t, ticket.IsAssignedTo("agent-it"))
		}
	}
}

func TestScopeByRole(t *testing.T) {
	store := memory.NewStore()
	seedTickets(t, store,
		&domain.Ticket{Title: "mine", SubmitterID: "alice", DepartmentID: "d-hr"},
		&domain.Ticket{Title: "theirs", SubmitterID: "bob", DepartmentID: "d-it"},
	)
	ctx := context.Background()

	all, err := store.Tickets().List(ctx, Scope(supervisor, repository.TicketQuery{}))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := store.Tickets().List(ctx, Scope(submitter, repository.TicketQuery{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, titles(own))

	none, err := store.Tickets().List(ctx, Scope(nil, repository.TicketQuery{}))
	require.NoError(t, err)
	assert.Empty(t, none)

	noProfile := domain.NewPrincipal("bob", nil)
	theirs, err := store.Tickets().List(ctx, Scope(noProfile, repository.TicketQuery{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"theirs"}, titles(theirs))
}

func TestScopeKeepsFilters(t *testing.T) {
	base := repository.TicketQuery{}.WithStatuses(domain.TicketStatusOpen).WithSearch("vpn").WithPage(10, 20)
	scoped := Scope(itAgent, base)

	assert.Equal(t, repository.ScopeAgent, scoped.Scope.Kind)
	assert.Equal(t, "agent-it", scoped.Scope.UserID)
	assert.Equal(t, []domain.TicketStatus{domain.TicketStatusOpen}, scoped.Statuses)
	assert.Equal(t, "vpn", scoped.Search)
	assert.Equal(t, 10, scoped.Limit)
	assert.Equal(t, repository.ScopeNone, base.Scope.Kind)
}

func TestScopeOverridesCallerScope(t *testing.T) {
	widened := repository.TicketQuery{}.WithScope(repository.TicketScope{Kind: repository.ScopeAll})
	assert.Equal(t, repository.ScopeSubmitter, Scope(submitter, widened).Scope.Kind)
}

func TestReportScope(t *testing.T) {
	assert.Equal(t, repository.ScopeAll, ReportScope(supervisor, repository.TicketQuery{}).Scope.Kind)

	agentScope := ReportScope(itAgent, repository.TicketQuery{}).Scope
	assert.Equal(t, repository.ScopeDepartment, agentScope.Kind)
	assert.Equal(t, "d-it", *agentScope.DepartmentID)

	assigned := &domain.Ticket{DepartmentID: "d-hr", AssigneeID: strPtr("agent-it")}
	assert.False(t, ReportScope(itAgent, repository.TicketQuery{}).Matches(assigned))
	assert.False(t, ReportScope(agentNoDept, repository.TicketQuery{}).Matches(itTicket))
	assert.Equal(t, repository.ScopeNone, ReportScope(nil, repository.TicketQuery{}).Scope.Kind)
}
