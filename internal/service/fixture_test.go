package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/blob"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/ticketnumber"
)

const (
	deptIT      = "d-it"
	deptHR      = "d-hr"
	catHardware = "c-hardware"
	catRetired  = "c-retired"
	catPayroll  = "c-payroll"
	prioLow     = "p-low"
	prioCrit    = "p-critical"
)

var t0 = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

var errHistoryDown = errors.New("history unavailable")

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	evaluator  *access.Evaluator
	clock      *testClock
	machine    *lifecycle.Machine
	blobs      *blob.MemoryStore
	dispatcher events.Dispatcher
	published  []events.Event

	tickets *TicketService
	bulk    *BulkService

	supervisor *domain.Principal
	agentIT    *domain.Principal
	agentHR    *domain.Principal
	alice      *domain.Principal
	bob        *domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	seedReference(t, store)

	evaluator, err := access.NewEvaluator()
	require.NoError(t, err)

	f := &fixture{
		ctx:        ctx,
		store:      store,
		evaluator:  evaluator,
		clock:      &testClock{now: t0},
		blobs:      blob.NewMemoryStore(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	for _, eventType := range events.AllEventTypes {
		f.dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}
	f.machine = lifecycle.NewMachine(ticketnumber.NewGenerator(store.Tickets(), 100), f.clock.Now)
	f.tickets = f.ticketService(store, f.machine)
	f.bulk = NewBulkService(BulkDependencies{
		Store:      store,
		Evaluator:  evaluator,
		Machine:    f.machine,
		Dispatcher: f.dispatcher,
	})

	f.supervisor = f.principal(t, "sup")
	f.agentIT = f.principal(t, "agent-it")
	f.agentHR = f.principal(t, "agent-hr")
	f.alice = f.principal(t, "alice")
	f.bob = domain.NewPrincipal("bob", nil)
	return f
}

func (f *fixture) ticketService(store repository.Store, machine *lifecycle.Machine) *TicketService {
	return NewTicketService(TicketDependencies{
		Store:      store,
		Evaluator:  f.evaluator,
		Machine:    machine,
		Blobs:      f.blobs,
		Dispatcher: f.dispatcher,
		Config:     config.TicketsConfig{NumberMaxAttempts: 100, UpdateMaxRetries: 3},
	})
}

func (f *fixture) principal(t *testing.T, userID string) *domain.Principal {
	t.Helper()
	profile, err := f.store.Profiles().GetByUserID(f.ctx, userID)
	require.NoError(t, err)
	return domain.NewPrincipal(userID, profile)
}

func seedReference(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	it, hr := deptIT, deptHR

	for _, dept := range []domain.Department{
		{ID: deptIT, Name: "IT Support", IsActive: true},
		{ID: deptHR, Name: "HR", IsActive: true},
	} {
		dept := dept
		require.NoError(t, store.Departments().Upsert(ctx, &dept))
	}
	for _, category := range []domain.Category{
		{ID: catHardware, Name: "Hardware", DepartmentID: deptIT, IsActive: true},
		{ID: catRetired, Name: "Legacy Systems", DepartmentID: deptIT, IsActive: false},
		{ID: catPayroll, Name: "Payroll", DepartmentID: deptHR, IsActive: true},
	} {
		category := category
		require.NoError(t, store.Categories().Upsert(ctx, &category))
	}
	for _, priority := range []domain.Priority{
		{ID: prioLow, Name: "Low", Level: 1, ResponseTimeHours: 72},
		{ID: prioCrit, Name: "Critical", Level: 4, ResponseTimeHours: 6},
	} {
		priority := priority
		require.NoError(t, store.Priorities().Upsert(ctx, &priority))
	}
	for _, profile := range []domain.Profile{
		{UserID: "sup", FullName: "Sam Supervisor", IsSupervisor: true},
		{UserID: "agent-it", FullName: "Ann Agent", DepartmentID: &it, IsAgent: true},
		{UserID: "agent-hr", FullName: "Hal Agent", DepartmentID: &hr, IsAgent: true},
		{UserID: "alice", FullName: "Alice Submitter", DepartmentID: &it},
	} {
		profile := profile
		require.NoError(t, store.Profiles().Upsert(ctx, &profile))
	}
}

func (f *fixture) create(t *testing.T, by *domain.Principal, dept, category, priority string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, by, TicketCreateInput{
		Title:        "Printer jammed",
		Description:  "Third floor printer shows error 42",
		DepartmentID: dept,
		CategoryID:   category,
		PriorityID:   priority,
	})
	require.NoError(t, err)
	return ticket
}

// createAssigned stores a ticket submitted by alice and assigned to assignee.
func (f *fixture) createAssigned(t *testing.T, dept, category, assignee string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, f.supervisor, TicketCreateInput{
		Title:        "Access request",
		Description:  "Needs access",
		DepartmentID: dept,
		CategoryID:   category,
		PriorityID:   prioLow,
		SubmitterID:  "alice",
		AssigneeID:   &assignee,
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) reload(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Tickets().GetByID(f.ctx, id)
	require.NoError(t, err)
	return ticket
}

func (f *fixture) history(t *testing.T, id string) []domain.TicketHistory {
	t.Helper()
	history, err := f.store.History().ListByTicket(f.ctx, id, 0)
	require.NoError(t, err)
	return history
}

func ptr[T any](v T) *T { return &v }

// seqNumbers hands out fixed ticket numbers in order.
type seqNumbers struct {
	numbers []string
	calls   int
}

func (s *seqNumbers) Generate(context.Context) (string, error) {
	n := s.numbers[s.calls%len(s.numbers)]
	s.calls++
	return n, nil
}

type alwaysTaken struct{}

func (alwaysTaken) TicketNumberExists(context.Context, string) (bool, error) { return true, nil }

// flakyStore fails the first staleUpdates ticket updates with ErrStaleTicket
// and fails history writes once historyBudget writes have succeeded.
type flakyStore struct {
	repository.Store
	staleUpdates  *int
	historyBudget *int
}

func newFlakyStore(inner repository.Store, staleUpdates, historyBudget int) *flakyStore {
	return &flakyStore{Store: inner, staleUpdates: &staleUpdates, historyBudget: &historyBudget}
}

func (s *flakyStore) Tickets() repository.TicketRepository {
	return &flakyTickets{TicketRepository: s.Store.Tickets(), stale: s.staleUpdates}
}

func (s *flakyStore) History() repository.TicketHistoryRepository {
	return &flakyHistory{TicketHistoryRepository: s.Store.History(), budget: s.historyBudget}
}

func (s *flakyStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(&flakyStore{Store: tx, staleUpdates: s.staleUpdates, historyBudget: s.historyBudget})
	})
}

type flakyTickets struct {
	repository.TicketRepository
	stale *int
}

func (r *flakyTickets) Update(ctx context.Context, ticket *domain.Ticket, opts repository.UpdateOptions) error {
	if *r.stale > 0 {
		*r.stale--
		return repository.ErrStaleTicket
	}
	return r.TicketRepository.Update(ctx, ticket, opts)
}

type flakyHistory struct {
	repository.TicketHistoryRepository
	budget *int
}

func (r *flakyHistory) Create(ctx context.Context, history *domain.TicketHistory) error {
	if *r.budget < 0 {
		return r.TicketHistoryRepository.Create(ctx, history)
	}
	if *r.budget == 0 {
		return errHistoryDown
	}
	*r.budget--
	return r.TicketHistoryRepository.Create(ctx, history)
}
