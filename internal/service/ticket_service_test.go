package service

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/ticketnumber"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestCreateTicketAssignsNumberAndDueDate(t *testing.T) {
	f := newFixture(t)

	ticket := f.create(t, f.alice, deptIT, catHardware, prioCrit)

	assert.True(t, ticketnumber.Valid(ticket.TicketNumber), ticket.TicketNumber)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "alice", ticket.SubmitterID)
	assert.EqualValues(t, 1, ticket.Version)
	assert.True(t, t0.Equal(ticket.CreatedAt))
	require.NotNil(t, ticket.DueDate)
	assert.True(t, t0.Add(6*time.Hour).Equal(*ticket.DueDate))

	history := f.history(t, ticket.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryActionCreated, history[0].Action)
	assert.Equal(t, ticket.TicketNumber, history[0].NewValue)

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventTicketCreated, f.published[0].Type)
	payload, ok := f.published[0].Payload.(events.TicketCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, ticket.TicketNumber, payload.TicketNumber)
	assert.Equal(t, "2024-03-10T15:00:00Z", payload.DueDate)
}

func TestCreateTicketKeepsExplicitDueDate(t *testing.T) {
	f := newFixture(t)
	due := t0.Add(48 * time.Hour)

	ticket, err := f.tickets.CreateTicket(f.ctx, f.agentIT, TicketCreateInput{
		Title:        "Laptop order",
		Description:  "New starter on Monday",
		DepartmentID: deptIT,
		CategoryID:   catHardware,
		PriorityID:   prioCrit,
		Tags:         " laptop ,, onboarding ",
		DueDate:      &due,
	})
	require.NoError(t, err)
	assert.True(t, due.Equal(*ticket.DueDate))
	assert.Equal(t, "laptop, onboarding", ticket.Tags)
}

func TestCreateTicketRejectsCategoryOfAnotherDepartment(t *testing.T) {
	f := newFixture(t)

	_, err := f.tickets.CreateTicket(f.ctx, f.alice, TicketCreateInput{
		Title:        "Payslip missing",
		Description:  "March payslip not received",
		DepartmentID: deptIT,
		CategoryID:   catPayroll,
		PriorityID:   prioLow,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	count, err := f.store.Tickets().Count(f.ctx, repository.TicketQuery{}.WithScope(repository.TicketScope{Kind: repository.ScopeAll}))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateTicketValidatesInput(t *testing.T) {
	f := newFixture(t)
	base := TicketCreateInput{
		Title:        "Printer jammed",
		Description:  "Error 42",
		DepartmentID: deptIT,
		CategoryID:   catHardware,
		PriorityID:   prioLow,
	}

	cases := []struct {
		name   string
		mutate func(*TicketCreateInput)
		code   string
	}{
		{"blank title", func(in *TicketCreateInput) { in.Title = "   " }, apperrors.CodeValidation},
		{"long title", func(in *TicketCreateInput) { in.Title = string(bytes.Repeat([]byte("a"), 201)) }, apperrors.CodeValidation},
		{"missing description", func(in *TicketCreateInput) { in.Description = "" }, apperrors.CodeValidation},
		{"unknown department", func(in *TicketCreateInput) { in.DepartmentID = "d-missing" }, apperrors.CodeNotFound},
		{"unknown priority", func(in *TicketCreateInput) { in.PriorityID = "p-missing" }, apperrors.CodeNotFound},
		{"no priority", func(in *TicketCreateInput) { in.PriorityID = "" }, apperrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, err := f.tickets.CreateTicket(f.ctx, f.alice, input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tc.code), err.Error())
		})
	}
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	f := newFixture(t)
	input := TicketCreateInput{
		Title:        strings.Repeat("ж", 150),
		Description:  "Принтер не печатает",
		DepartmentID: deptIT,
		CategoryID:   catHardware,
		PriorityID:   prioLow,
		Tags:         strings.Repeat("т", 200),
	}
	ticket, err := f.tickets.CreateTicket(f.ctx, f.alice, input)
	require.NoError(t, err)
	assert.Equal(t, input.Title, ticket.Title)

	input.Title = strings.Repeat("ж", 201)
	_, err = f.tickets.CreateTicket(f.ctx, f.alice, input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	filename := strings.Repeat("ф", 200) + ".png"
	attachment, err := f.tickets.AddAttachment(f.ctx, f.alice, ticket.ID, filename, []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, filename, attachment.Filename)

	_, err = f.tickets.AddAttachment(f.ctx, f.alice, ticket.ID, strings.Repeat("ф", 252)+".png", []byte("png"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCreateTicketOnBehalfIsStaffOnly(t *testing.T) {
	f := newFixture(t)
	input := TicketCreateInput{
		Title:        "VPN down",
		Description:  "Cannot connect",
		DepartmentID: deptIT,
		CategoryID:   catHardware,
		PriorityID:   prioLow,
		SubmitterID:  "bob",
	}

	_, err := f.tickets.CreateTicket(f.ctx, f.alice, input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	assignee := "agent-it"
	_, err = f.tickets.CreateTicket(f.ctx, f.alice, TicketCreateInput{
		Title:        "VPN down",
		Description:  "Cannot connect",
		DepartmentID: deptIT,
		CategoryID:   catHardware,
		PriorityID:   prioLow,
		AssigneeID:   &assignee,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	ticket, err := f.tickets.CreateTicket(f.ctx, f.agentIT, input)
	require.NoError(t, err)
	assert.Equal(t, "bob", ticket.SubmitterID)
}

func TestCreateTicketRequiresAgentAssignee(t *testing.T) {
	f := newFixture(t)
	assignee := "alice"

	_, err := f.tickets.CreateTicket(f.ctx, f.supervisor, TicketCreateInput{
		Title:        "VPN down",
		Description:  "Cannot connect",
		DepartmentID: deptIT,
		CategoryID:   catHardware,
		PriorityID:   prioLow,
		AssigneeID:   &assignee,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCreateTicketAnonymousIsUnauthorized(t *testing.T) {
	f := newFixture(t)

	_, err := f.tickets.CreateTicket(f.ctx, nil, TicketCreateInput{Title: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestCreateTicketRetriesNumberTakenAtInsert(t *testing.T) {
	f := newFixture(t)
	numbers := &seqNumbers{numbers: []string{"TK00000001", "TK00000001", "TK00000002"}}
	svc := f.ticketService(f.store, lifecycle.NewMachine(numbers, f.clock.Now))

	first, err := svc.CreateTicket(f.ctx, f.alice, TicketCreateInput{
		Title: "First", Description: "one", DepartmentID: deptIT, CategoryID: catHardware, PriorityID: prioLow,
	})
	require.NoError(t, err)
	second, err := svc.CreateTicket(f.ctx, f.alice, TicketCreateInput{
		Title: "Second", Description: "two", DepartmentID: deptIT, CategoryID: catHardware, PriorityID: prioLow,
	})
	require.NoError(t, err)

	assert.Equal(t, "TK00000001", first.TicketNumber)
	assert.Equal(t, "TK00000002", second.TicketNumber)
	assert.Equal(t, 3, numbers.calls)
	assert.Len(t, f.history(t, second.ID), 1)
}

func TestCreateTicketReportsExhaustedNumbers(t *testing.T) {
	f := newFixture(t)
	machine := lifecycle.NewMachine(ticketnumber.NewGenerator(alwaysTaken{}, 3), f.clock.Now)
	svc := f.ticketService(f.store, machine)

	_, err := svc.CreateTicket(f.ctx, f.alice, TicketCreateInput{
		Title: "First", Description: "one", DepartmentID: deptIT, CategoryID: catHardware, PriorityID: prioLow,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGenerationExhausted))
}

func TestResolvedAtIsStampedOnce(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.agentIT, deptIT, catHardware, prioCrit)

	f.clock.Advance(3 * time.Hour)
	resolved, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusResolved),
	})
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	firstStamp := t0.Add(3 * time.Hour)
	assert.True(t, firstStamp.Equal(*resolved.ResolvedAt))

	f.clock.Advance(time.Hour)
	_, err = f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusInProgress),
	})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusResolved),
	})
	require.NoError(t, err)

	stored := f.reload(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusResolved, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
	assert.True(t, firstStamp.Equal(*stored.ResolvedAt))
	assert.EqualValues(t, 4, stored.Version)
}

func TestClosedAtIsStampedOnClose(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.agentIT, deptIT, catHardware, prioLow)

	f.clock.Advance(2 * time.Hour)
	closed, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusClosed),
	})
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, t0.Add(2*time.Hour).Equal(*closed.ClosedAt))
	assert.Nil(t, closed.ResolvedAt)
}

func TestPriorityChangeKeepsDueDate(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.agentIT, deptIT, catHardware, prioCrit)

	updated, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{PriorityID: ptr(prioLow)})
	require.NoError(t, err)
	assert.Equal(t, prioLow, updated.PriorityID)
	assert.True(t, t0.Add(6*time.Hour).Equal(*updated.DueDate))
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.agentIT, deptIT, catHardware, prioLow)

	_, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatus("escalated")),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Equal(t, domain.TicketStatusOpen, f.reload(t, ticket.ID).Status)
}

func TestSubmitterCannotChangeProtectedFields(t *testing.T) {
	f := newFixture(t)
	ticket := f.createAssigned(t, deptIT, catHardware, "agent-it")

	updated, err := f.tickets.UpdateTicket(f.ctx, f.alice, ticket.ID, TicketUpdateInput{Title: ptr("Printer jammed again")})
	require.NoError(t, err)
	assert.Equal(t, "Printer jammed again", updated.Title)

	protected := []TicketUpdateInput{
		{Status: ptr(domain.TicketStatusClosed)},
		{PriorityID: ptr(prioCrit)},
		{AssigneeID: ptr("agent-hr")},
		{Unassign: true},
		{Resolution: ptr("fixed it myself")},
		{DueDate: ptr(t0.Add(time.Hour))},
	}
	for _, input := range protected {
		_, err := f.tickets.UpdateTicket(f.ctx, f.alice, ticket.ID, input)
		assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
	}

	stored := f.reload(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	assert.Equal(t, prioLow, stored.PriorityID)
	require.NotNil(t, stored.AssigneeID)
	assert.Equal(t, "agent-it", *stored.AssigneeID)
}

func TestSubmitterMayEchoUnchangedProtectedFields(t *testing.T) {
	f := newFixture(t)
	ticket := f.createAssigned(t, deptIT, catHardware, "agent-it")

	updated, err := f.tickets.UpdateTicket(f.ctx, f.alice, ticket.ID, TicketUpdateInput{
		Title:      ptr("Access request for VPN"),
		Status:     ptr(ticket.Status),
		PriorityID: ptr(ticket.PriorityID),
		AssigneeID: ptr("agent-it"),
		Resolution: ptr(""),
		DueDate:    ptr(*ticket.DueDate),
	})
	require.NoError(t, err)
	assert.Equal(t, "Access request for VPN", updated.Title)

	history := f.history(t, ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, "title", history[0].FieldChanged)
}

func TestUpdateWritesHistoryPerChangedField(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioLow)
	f.published = nil

	_, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{
		Title:      ptr("Printer jammed"),
		PriorityID: ptr(prioCrit),
		AssigneeID: ptr("agent-it"),
	})
	require.NoError(t, err)

	history := f.history(t, ticket.ID)
	require.Len(t, history, 3)
	changed := map[string]domain.TicketHistory{}
	for _, row := range history[:2] {
		assert.Equal(t, domain.HistoryActionChanged, row.Action)
		assert.Equal(t, "agent-it", row.UserID)
		changed[row.FieldChanged] = row
	}
	assert.Equal(t, prioLow, changed["priority"].OldValue)
	assert.Equal(t, prioCrit, changed["priority"].NewValue)
	assert.Equal(t, "", changed["assigned_to"].OldValue)
	assert.Equal(t, "agent-it", changed["assigned_to"].NewValue)

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventTicketUpdated, f.published[0].Type)
}

func TestUpdateWithoutChangesIsSilent(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioLow)
	f.published = nil

	_, err := f.tickets.UpdateTicket(f.ctx, f.alice, ticket.ID, TicketUpdateInput{Title: ptr(ticket.Title)})
	require.NoError(t, err)
	assert.Len(t, f.history(t, ticket.ID), 1)
	assert.Empty(t, f.published)
}

func TestUpdateUnassignClearsAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.createAssigned(t, deptIT, catHardware, "agent-it")

	updated, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{
		AssigneeID: ptr("agent-hr"),
		Unassign:   true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)
}

func TestUpdateRejectsNonAgentAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioLow)

	_, err := f.tickets.UpdateTicket(f.ctx, f.supervisor, ticket.ID, TicketUpdateInput{AssigneeID: ptr("alice")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.UpdateTicket(f.ctx, f.supervisor, ticket.ID, TicketUpdateInput{AssigneeID: ptr("nobody")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateRetriesStaleVersion(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.agentIT, deptIT, catHardware, prioLow)
	svc := f.ticketService(newFlakyStore(f.store, 2, -1), f.machine)

	updated, err := svc.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{Title: ptr("Retried")})
	require.NoError(t, err)
	assert.Equal(t, "Retried", updated.Title)
	assert.EqualValues(t, 2, f.reload(t, ticket.ID).Version)
	assert.Len(t, f.history(t, ticket.ID), 2)
}

func TestUpdateReportsConcurrencyConflictWhenRetriesRunOut(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.agentIT, deptIT, catHardware, prioLow)
	svc := f.ticketService(newFlakyStore(f.store, 3, -1), f.machine)

	_, err := svc.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{Title: ptr("Lost")})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConcurrencyConflict))
	assert.Equal(t, ticket.Title, f.reload(t, ticket.ID).Title)
}

func TestTicketVisibility(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioLow)

	for _, p := range []*domain.Principal{f.alice, f.agentIT, f.supervisor} {
		_, err := f.tickets.GetTicket(f.ctx, p, ticket.ID)
		assert.NoError(t, err, p.UserID)
	}
	for _, p := range []*domain.Principal{f.bob, f.agentHR} {
		_, err := f.tickets.GetTicket(f.ctx, p, ticket.ID)
		assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied), p.UserID)

		_, err = f.tickets.UpdateTicket(f.ctx, p, ticket.ID, TicketUpdateInput{Title: ptr("hijacked")})
		assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied), p.UserID)

		_, err = f.tickets.AddComment(f.ctx, p, ticket.ID, "hello", false)
		assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied), p.UserID)
	}

	_, err := f.tickets.GetTicket(f.ctx, nil, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = f.tickets.GetTicket(f.ctx, f.supervisor, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAssignedAgentOutsideDepartmentCanWork(t *testing.T) {
	f := newFixture(t)
	ticket := f.createAssigned(t, deptIT, catHardware, "agent-hr")

	perms, err := f.tickets.Permissions(f.ctx, f.agentHR, ticket.ID)
	require.NoError(t, err)
	assert.True(t, perms.CanEdit)
	assert.True(t, perms.CanEditProtected)

	_, err = f.tickets.UpdateTicket(f.ctx, f.agentHR, ticket.ID, TicketUpdateInput{Status: ptr(domain.TicketStatusPending)})
	assert.NoError(t, err)

	perms, err = f.tickets.Permissions(f.ctx, f.alice, ticket.ID)
	require.NoError(t, err)
	assert.True(t, perms.CanEdit)
	assert.False(t, perms.CanEditProtected)
}

func TestCommentsAndInternalVisibility(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioLow)

	_, err := f.tickets.AddComment(f.ctx, f.alice, ticket.ID, "any update?", true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	_, err = f.tickets.AddComment(f.ctx, f.alice, ticket.ID, "   ", false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	public, err := f.tickets.AddComment(f.ctx, f.alice, ticket.ID, "any update?", false)
	require.NoError(t, err)
	assert.True(t, t0.Equal(public.CreatedAt))
	_, err = f.tickets.AddComment(f.ctx, f.agentIT, ticket.ID, "waiting on vendor", true)
	require.NoError(t, err)

	detail, err := f.tickets.GetTicket(f.ctx, f.alice, ticket.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "any update?", detail.Comments[0].Body)

	detail, err = f.tickets.GetTicket(f.ctx, f.agentIT, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 2)
	assert.Len(t, detail.History, 3)
	assert.Equal(t, domain.HistoryActionComment, detail.History[0].Action)
}

func TestCommentPreviewKeepsMultiByteText(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioLow)
	body := strings.Repeat("ж", 150)

	comment, err := f.tickets.AddComment(f.ctx, f.alice, ticket.ID, body, false)
	require.NoError(t, err)
	assert.Equal(t, body, comment.Body)

	history := f.history(t, ticket.ID)
	require.Len(t, history, 2)
	preview := history[0].NewValue
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, 100, utf8.RuneCountInString(preview))
	assert.Equal(t, strings.Repeat("ж", 97)+"...", preview)

	event := f.published[len(f.published)-1]
	payload, ok := event.Payload.(events.CommentAddedPayload)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(payload.BodyPreview))
	assert.Equal(t, 120, utf8.RuneCountInString(payload.BodyPreview))
}

func TestStringPreviewCountsCharacters(t *testing.T) {
	cases := []struct {
		body string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"  padded  ", 6, "padded"},
		{"абвгдеё", 7, "абвгдеё"},
		{"абвгдеё", 6, "абв..."},
		{"日本語テキスト", 2, "日本"},
	}
	for _, tc := range cases {
		got := stringPreview(tc.body, tc.max)
		assert.Equal(t, tc.want, got)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestAddAttachmentValidatesAndStoresContent(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioLow)

	_, err := f.tickets.AddAttachment(f.ctx, f.alice, ticket.ID, "setup.exe", []byte("MZ"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	tooBig := make([]byte, MaxAttachmentBytes+1)
	_, err = f.tickets.AddAttachment(f.ctx, f.alice, ticket.ID, "scan.pdf", tooBig)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.AddAttachment(f.ctx, f.agentHR, ticket.ID, "scan.pdf", []byte("%PDF"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	attachment, err := f.tickets.AddAttachment(f.ctx, f.alice, ticket.ID, "../../Error Log.PNG", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Error Log.PNG", attachment.Filename)
	assert.EqualValues(t, len("png-bytes"), attachment.SizeBytes)

	content, err := f.blobs.Get(f.ctx, attachment.BlobKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), content)

	history := f.history(t, ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, domain.HistoryActionAttachment, history[0].Action)
	assert.Equal(t, "Error Log.PNG", history[0].NewValue)
}

func TestListTicketsAppliesScope(t *testing.T) {
	f := newFixture(t)
	a := f.createAssigned(t, deptHR, catPayroll, "agent-it")
	f.clock.Advance(time.Minute)
	b := f.create(t, f.alice, deptIT, catHardware, prioLow)
	f.clock.Advance(time.Minute)
	f.createAssigned(t, deptHR, catPayroll, "agent-hr")

	page, err := f.tickets.ListTickets(f.ctx, f.agentIT, TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, b.ID, page.Items[0].ID)
	assert.Equal(t, a.ID, page.Items[1].ID)

	page, err = f.tickets.ListTickets(f.ctx, f.supervisor, TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = f.tickets.ListTickets(f.ctx, f.bob, TicketFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Items)

	page, err = f.tickets.ListTickets(f.ctx, nil, TicketFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestListTicketsFiltersAndPages(t *testing.T) {
	f := newFixture(t)
	var created []*domain.Ticket
	for i := 0; i < 5; i++ {
		created = append(created, f.create(t, f.alice, deptIT, catHardware, prioLow))
		f.clock.Advance(24 * time.Hour)
	}
	_, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, created[0].ID, TicketUpdateInput{Status: ptr(domain.TicketStatusResolved)})
	require.NoError(t, err)

	page, err := f.tickets.ListTickets(f.ctx, f.agentIT, TicketFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, created[2].ID, page.Items[0].ID)

	page, err = f.tickets.ListTickets(f.ctx, f.agentIT, TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusResolved}})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, created[0].ID, page.Items[0].ID)

	day := t0.Add(48 * time.Hour)
	page, err = f.tickets.ListTickets(f.ctx, f.agentIT, TicketFilter{DateFrom: &day, DateTo: &day})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, created[2].ID, page.Items[0].ID)

	page, err = f.tickets.ListTickets(f.ctx, f.agentIT, TicketFilter{Search: created[3].TicketNumber})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, created[3].ID, page.Items[0].ID)

	page, err = f.tickets.ListTickets(f.ctx, f.agentIT, TicketFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.PageSize)
}

func TestStatsCountsScopedTickets(t *testing.T) {
	f := newFixture(t)
	crit := f.create(t, f.alice, deptIT, catHardware, prioCrit)
	low := f.create(t, f.alice, deptIT, catHardware, prioLow)
	done := f.create(t, f.alice, deptIT, catHardware, prioCrit)
	f.createAssigned(t, deptHR, catPayroll, "agent-hr")

	_, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, low.ID, TicketUpdateInput{Status: ptr(domain.TicketStatusInProgress)})
	require.NoError(t, err)
	_, err = f.tickets.UpdateTicket(f.ctx, f.agentIT, done.ID, TicketUpdateInput{Status: ptr(domain.TicketStatusResolved)})
	require.NoError(t, err)

	f.clock.Advance(7 * time.Hour)
	stats, err := f.tickets.Stats(f.ctx, f.agentIT)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 1, stats.Overdue, "only %s is past due and active", crit.TicketNumber)

	stats, err = f.tickets.Stats(f.ctx, f.supervisor)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
}

func TestExportRowsFollowScope(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, f.alice, deptIT, catHardware, prioCrit)
	f.createAssigned(t, deptHR, catPayroll, "agent-hr")
	f.clock.Advance(90 * time.Minute)
	_, err := f.tickets.UpdateTicket(f.ctx, f.agentIT, ticket.ID, TicketUpdateInput{Status: ptr(domain.TicketStatusResolved)})
	require.NoError(t, err)

	_, err = f.tickets.Export(f.ctx, f.alice, nil, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	rows, err := f.tickets.Export(f.ctx, f.agentIT, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{
		ticket.TicketNumber, "Printer jammed", "Resolved", "Critical", "IT Support",
		"Hardware", "Alice Submitter", "Unassigned", "2024-03-10 09:00", "2024-03-10 10:30",
	}, rows[0].Record())
	assert.Len(t, ExportHeader, len(rows[0].Record()))

	rows, err = f.tickets.Export(f.ctx, f.supervisor, nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	nextDay := t0.AddDate(0, 0, 1)
	rows, err = f.tickets.Export(f.ctx, f.supervisor, &nextDay, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
