package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/blob"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/ticketnumber"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	// MaxAttachmentBytes caps a single upload at 5 MiB.
	MaxAttachmentBytes = 5 << 20
	maxTitleLength     = 200
	maxTagsLength      = 200
	maxFilenameLength  = 255
	detailHistoryLimit = 10
	defaultPageSize    = 20
	maxPageSize        = 100
)

var allowedExtensions = map[string]struct{}{
	"pdf": {}, "doc": {}, "docx": {}, "txt": {}, "jpg": {},
	"jpeg": {}, "png": {}, "gif": {}, "zip": {},
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	access     *access.Evaluator
	machine    *lifecycle.Machine
	blobs      blob.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.TicketsConfig
	loc        *time.Location
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Evaluator  *access.Evaluator
	Machine    *lifecycle.Machine
	Blobs      blob.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Config     config.TicketsConfig
	Location   *time.Location
}

// TicketCreateInput describes ticket creation payload. An empty SubmitterID
// means the caller.
type TicketCreateInput struct {
	Title        string
	Description  string
	DepartmentID string
	CategoryID   string
	PriorityID   string
	Tags         string
	SubmitterID  string
	AssigneeID   *string
	DueDate      *time.Time
}

// TicketUpdateInput carries the fields to change; nil means unchanged.
// Unassign clears the assignee and wins over AssigneeID.
type TicketUpdateInput struct {
	Title        *string
	Description  *string
	Tags         *string
	DepartmentID *string
	CategoryID   *string
	PriorityID   *string
	Status       *domain.TicketStatus
	AssigneeID   *string
	Unassign     bool
	Resolution   *string
	DueDate      *time.Time
}

// changesProtected reports whether applying in to current would alter a
// protected field. Values echoed back unchanged do not count.
func (in TicketUpdateInput) changesProtected(current *domain.Ticket) bool {
	switch {
	case in.Status != nil && *in.Status != current.Status:
		return true
	case in.PriorityID != nil && *in.PriorityID != current.PriorityID:
		return true
	case in.Unassign && current.AssigneeID != nil:
		return true
	case !in.Unassign && in.AssigneeID != nil && *in.AssigneeID != derefString(current.AssigneeID):
		return true
	case in.Resolution != nil && strings.TrimSpace(*in.Resolution) != current.Resolution:
		return true
	case in.DueDate != nil && (current.DueDate == nil || !in.DueDate.Equal(*current.DueDate)):
		return true
	}
	return false
}

// TicketFilter describes list filters. DateFrom and DateTo are calendar
// dates, both inclusive.
type TicketFilter struct {
	Statuses     []domain.TicketStatus
	PriorityID   *string
	DepartmentID *string
	CategoryID   *string
	AssigneeID   *string
	DateFrom     *time.Time
	DateTo       *time.Time
	Search       string
	Page         int
	PageSize     int
}

// TicketPage is one page of a scoped listing.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

// TicketDetail is a ticket with everything the caller may see about it.
type TicketDetail struct {
	Ticket      domain.Ticket
	Comments    []domain.TicketComment
	Attachments []domain.TicketAttachment
	History     []domain.TicketHistory
	Permissions access.TicketPermissions
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		store:      deps.Store,
		access:     deps.Evaluator,
		machine:    deps.Machine,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        deps.Config,
		loc:        deps.Location,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.cfg.NumberMaxAttempts <= 0 {
		svc.cfg.NumberMaxAttempts = ticketnumber.DefaultMaxAttempts
	}
	if svc.cfg.UpdateMaxRetries <= 0 {
		svc.cfg.UpdateMaxRetries = 3
	}
	if svc.machine == nil {
		svc.machine = lifecycle.NewMachine(ticketnumber.NewGenerator(deps.Store.Tickets(), svc.cfg.NumberMaxAttempts), nil)
	}
	return svc
}

// CreateTicket validates and stores a new ticket. A ticket number collision
// at insert time is retried with a fresh number.
func (s *TicketService) CreateTicket(ctx context.Context, principal *domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if principal == nil {
		return nil, denied(nil, "")
	}
	submitter := principal.UserID
	if input.SubmitterID != "" && input.SubmitterID != principal.UserID {
		if !s.access.CanCreateOnBehalf(principal) {
			return nil, denied(principal, "cannot create tickets for other users")
		}
		submitter = input.SubmitterID
	}
	if (input.AssigneeID != nil || input.DueDate != nil) && !s.access.CanCreateOnBehalf(principal) {
		return nil, denied(principal, "assignee and due date are staff only")
	}

	ticket := &domain.Ticket{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		SubmitterID:  submitter,
		DepartmentID: input.DepartmentID,
		CategoryID:   input.CategoryID,
		PriorityID:   input.PriorityID,
		Status:       domain.TicketStatusOpen,
		Tags:         normalizeTags(input.Tags),
		AssigneeID:   input.AssigneeID,
		DueDate:      input.DueDate,
	}
	if err := validateTicketText(ticket); err != nil {
		return nil, err
	}
	priority, err := s.validateReferences(ctx, s.store, ticket)
	if err != nil {
		return nil, err
	}
	if ticket.AssigneeID != nil {
		if err := validateAssignee(ctx, s.store, *ticket.AssigneeID); err != nil {
			return nil, err
		}
	}

	for attempt := 0; attempt < s.cfg.NumberMaxAttempts; attempt++ {
		ticket.TicketNumber = ""
		if err := s.machine.BeforeSave(ctx, ticket, priority); err != nil {
			if errors.Is(err, ticketnumber.ErrGenerationExhausted) {
				return nil, apperrors.NewGenerationExhausted(err)
			}
			return nil, err
		}
		err := s.store.WithinTx(ctx, func(tx repository.Store) error {
			if err := tx.Tickets().Create(ctx, ticket); err != nil {
				return err
			}
			return tx.History().Create(ctx, &domain.TicketHistory{
				TicketID:  ticket.ID,
				UserID:    principal.UserID,
				Action:    domain.HistoryActionCreated,
				NewValue:  ticket.TicketNumber,
				CreatedAt: ticket.CreatedAt,
			})
		})
		if errors.Is(err, repository.ErrDuplicateTicketNumber) {
			s.logger.Debug("ticket number taken at insert, retrying", zap.String("ticket_number", ticket.TicketNumber))
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("ticket created",
			zap.String("ticket_id", ticket.ID),
			zap.String("ticket_number", ticket.TicketNumber),
			zap.String("submitter_id", ticket.SubmitterID))
		publish(ctx, s.dispatcher, s.logger, events.Event{
			Type:     events.EventTicketCreated,
			TicketID: ticket.ID,
			Actor:    events.ActorFrom(principal),
			Payload: events.TicketCreatedPayload{
				TicketNumber: ticket.TicketNumber,
				DepartmentID: ticket.DepartmentID,
				PriorityID:   ticket.PriorityID,
				SubmitterID:  ticket.SubmitterID,
				DueDate:      formatTime(ticket.DueDate),
			},
		})
		return ticket, nil
	}
	return nil, apperrors.NewGenerationExhausted(ticketnumber.ErrGenerationExhausted)
}

// GetTicket returns the ticket with comments, attachments, recent history
// and the caller's permission flags.
func (s *TicketService) GetTicket(ctx context.Context, principal *domain.Principal, ticketID string) (*TicketDetail, error) {
	ticket, err := s.viewable(ctx, s.store, principal, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByTicket(ctx, ticket.ID, s.access.CanUseInternalComments(principal))
	if err != nil {
		return nil, err
	}
	attachments, err := s.store.Attachments().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.History().ListByTicket(ctx, ticket.ID, detailHistoryLimit)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{
		Ticket:      *ticket,
		Comments:    comments,
		Attachments: attachments,
		History:     history,
		Permissions: s.access.Permissions(principal, ticket),
	}, nil
}

// Permissions reports the caller's flags for one ticket.
func (s *TicketService) Permissions(ctx context.Context, principal *domain.Principal, ticketID string) (access.TicketPermissions, error) {
	ticket, err := s.viewable(ctx, s.store, principal, ticketID)
	if err != nil {
		return access.TicketPermissions{}, err
	}
	return s.access.Permissions(principal, ticket), nil
}

// ListTickets returns one page of the caller's scoped tickets plus the
// total match count.
func (s *TicketService) ListTickets(ctx context.Context, principal *domain.Principal, filter TicketFilter) (*TicketPage, error) {
	page, size := normalizePage(filter.Page, filter.PageSize)
	query := access.Scope(principal, s.filterQuery(filter))

	total, err := s.store.Tickets().Count(ctx, query)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Tickets().List(ctx, query.WithPage(size, (page-1)*size))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return &TicketPage{Items: items, Total: total, Page: page, PageSize: size}, nil
}

func (s *TicketService) filterQuery(filter TicketFilter) repository.TicketQuery {
	query := repository.TicketQuery{}
	if len(filter.Statuses) > 0 {
		query = query.WithStatuses(filter.Statuses...)
	}
	if filter.PriorityID != nil {
		query = query.WithPriority(*filter.PriorityID)
	}
	if filter.DepartmentID != nil {
		query = query.WithDepartment(*filter.DepartmentID)
	}
	if filter.CategoryID != nil {
		query = query.WithCategory(*filter.CategoryID)
	}
	if filter.AssigneeID != nil {
		query = query.WithAssignee(*filter.AssigneeID)
	}
	if filter.DateFrom != nil || filter.DateTo != nil {
		query = query.WithCreatedRange(dayRange(filter.DateFrom, filter.DateTo, s.loc))
	}
	if filter.Search != "" {
		query = query.WithSearch(filter.Search)
	}
	return query
}

// UpdateTicket applies input to the ticket. A lost optimistic race is retried
// against a fresh read; once retries run out ConcurrencyConflict is returned.
func (s *TicketService) UpdateTicket(ctx context.Context, principal *domain.Principal, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	var (
		updated *domain.Ticket
		changes []events.FieldChange
		lastErr error
	)
	for attempt := 0; attempt < s.cfg.UpdateMaxRetries; attempt++ {
		lastErr = s.store.WithinTx(ctx, func(tx repository.Store) error {
			var err error
			updated, changes, err = s.applyUpdate(ctx, tx, principal, ticketID, input)
			return err
		})
		if !errors.Is(lastErr, repository.ErrStaleTicket) {
			break
		}
		s.logger.Debug("stale ticket version, retrying update",
			zap.String("ticket_id", ticketID), zap.Int("attempt", attempt+1))
	}
	if errors.Is(lastErr, repository.ErrStaleTicket) {
		return nil, apperrors.NewConcurrencyConflict("ticket was modified concurrently", lastErr)
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if len(changes) > 0 {
		s.logger.Info("ticket updated", zap.String("ticket_id", updated.ID), zap.Int("changes", len(changes)))
		publish(ctx, s.dispatcher, s.logger, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: updated.ID,
			Actor:    events.ActorFrom(principal),
			Payload:  events.TicketUpdatedPayload{Changes: changes},
		})
	}
	return updated, nil
}

func (s *TicketService) applyUpdate(ctx context.Context, tx repository.Store, principal *domain.Principal, ticketID string, input TicketUpdateInput) (*domain.Ticket, []events.FieldChange, error) {
	current, err := s.viewable(ctx, tx, principal, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !s.access.CanEdit(principal, current) {
		return nil, nil, denied(principal, "cannot edit this ticket")
	}
	if input.changesProtected(current) && !s.access.CanEditProtected(principal, current) {
		return nil, nil, denied(principal, "status, priority, assignment, resolution and due date are staff only")
	}

	next := current.Clone()
	if input.Title != nil {
		next.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		next.Description = strings.TrimSpace(*input.Description)
	}
	if input.Tags != nil {
		next.Tags = normalizeTags(*input.Tags)
	}
	if input.DepartmentID != nil {
		next.DepartmentID = *input.DepartmentID
	}
	if input.CategoryID != nil {
		next.CategoryID = *input.CategoryID
	}
	if input.PriorityID != nil {
		next.PriorityID = *input.PriorityID
	}
	if input.Status != nil {
		next.Status = *input.Status
	}
	if input.Resolution != nil {
		next.Resolution = strings.TrimSpace(*input.Resolution)
	}
	if input.Unassign {
		next.AssigneeID = nil
	} else if input.AssigneeID != nil {
		assignee := *input.AssigneeID
		next.AssigneeID = &assignee
	}
	if input.DueDate != nil {
		due := *input.DueDate
		next.DueDate = &due
	}

	if err := lifecycle.ValidateStatus(next.Status); err != nil {
		return nil, nil, err
	}
	if err := validateTicketText(&next); err != nil {
		return nil, nil, err
	}
	priority, err := s.validateReferences(ctx, tx, &next)
	if err != nil {
		return nil, nil, err
	}
	if next.AssigneeID != nil && !current.IsAssignedTo(*next.AssigneeID) {
		if err := validateAssignee(ctx, tx, *next.AssigneeID); err != nil {
			return nil, nil, err
		}
	}

	if err := s.machine.BeforeSave(ctx, &next, priority); err != nil {
		return nil, nil, err
	}
	if err := tx.Tickets().Update(ctx, &next, repository.UpdateOptions{ForceDueDate: input.DueDate != nil}); err != nil {
		return nil, nil, err
	}

	changes := diffTickets(current, &next)
	for _, change := range changes {
		if err := tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:     next.ID,
			UserID:       principal.UserID,
			Action:       domain.HistoryActionChanged,
			FieldChanged: change.Field,
			OldValue:     change.OldValue,
			NewValue:     change.NewValue,
			CreatedAt:    next.UpdatedAt,
		}); err != nil {
			return nil, nil, err
		}
	}
	return &next, changes, nil
}

// AddComment appends a comment. Internal comments are staff only.
func (s *TicketService) AddComment(ctx context.Context, principal *domain.Principal, ticketID, body string, internal bool) (*domain.TicketComment, error) {
	ticket, err := s.viewable(ctx, s.store, principal, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanComment(principal, ticket) {
		return nil, denied(principal, "cannot comment on this ticket")
	}
	if internal && !s.access.CanUseInternalComments(principal) {
		return nil, denied(principal, "internal comments are staff only")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorID:   principal.UserID,
		Body:       body,
		IsInternal: internal,
		CreatedAt:  s.machine.Now(),
	}
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:  ticket.ID,
			UserID:    principal.UserID,
			Action:    domain.HistoryActionComment,
			NewValue:  stringPreview(body, 100),
			CreatedAt: comment.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(principal),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			IsInternal:  comment.IsInternal,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// AddAttachment checks size and extension, stores the content in the blob
// store and records the metadata.
func (s *TicketService) AddAttachment(ctx context.Context, principal *domain.Principal, ticketID, filename string, content []byte) (*domain.TicketAttachment, error) {
	ticket, err := s.viewable(ctx, s.store, principal, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanUpload(principal, ticket) {
		return nil, denied(principal, "cannot upload to this ticket")
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if err := validateAttachment(filename, int64(len(content))); err != nil {
		return nil, err
	}

	key := blob.Key(ticket.ID, content)
	if err := s.blobs.Put(ctx, key, content); err != nil {
		return nil, err
	}

	attachment := &domain.TicketAttachment{
		TicketID:   ticket.ID,
		BlobKey:    key,
		Filename:   filename,
		UploadedBy: principal.UserID,
		SizeBytes:  int64(len(content)),
		UploadedAt: s.machine.Now(),
	}
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Attachments().Create(ctx, attachment); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:  ticket.ID,
			UserID:    principal.UserID,
			Action:    domain.HistoryActionAttachment,
			NewValue:  filename,
			CreatedAt: attachment.UploadedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventAttachmentAdded,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(principal),
		Payload: events.AttachmentAddedPayload{
			AttachmentID: attachment.ID,
			Filename:     attachment.Filename,
			SizeBytes:    attachment.SizeBytes,
		},
	})
	return attachment, nil
}

// History returns the newest history entries of a visible ticket.
func (s *TicketService) History(ctx context.Context, principal *domain.Principal, ticketID string, limit int) ([]domain.TicketHistory, error) {
	ticket, err := s.viewable(ctx, s.store, principal, ticketID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.History().ListByTicket(ctx, ticket.ID, limit)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.TicketHistory{}
	}
	return history, nil
}

// Stats returns the dashboard counters over the caller's scope.
func (s *TicketService) Stats(ctx context.Context, principal *domain.Principal) (*domain.TicketStats, error) {
	base := access.Scope(principal, repository.TicketQuery{})
	count := func(q repository.TicketQuery) (int, error) {
		return s.store.Tickets().Count(ctx, q)
	}

	var stats domain.TicketStats
	var err error
	if stats.Total, err = count(base); err != nil {
		return nil, err
	}
	if stats.Open, err = count(base.WithStatuses(domain.TicketStatusOpen)); err != nil {
		return nil, err
	}
	if stats.InProgress, err = count(base.WithStatuses(domain.TicketStatusInProgress)); err != nil {
		return nil, err
	}
	if stats.Pending, err = count(base.WithStatuses(domain.TicketStatusPending)); err != nil {
		return nil, err
	}
	if stats.Resolved, err = count(base.WithStatuses(domain.TicketStatusResolved)); err != nil {
		return nil, err
	}
	overdue := base.WithStatuses(domain.ActiveStatuses...).WithDueBefore(s.machine.Now())
	if stats.Overdue, err = count(overdue); err != nil {
		return nil, err
	}
	return &stats, nil
}

// viewable loads a ticket and checks the caller may see it.
func (s *TicketService) viewable(ctx context.Context, store repository.Store, principal *domain.Principal, ticketID string) (*domain.Ticket, error) {
	if principal == nil {
		return nil, denied(nil, "")
	}
	ticket, err := store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupErr("ticket", ticketID, err)
	}
	if !s.access.CanView(principal, ticket) {
		return nil, denied(principal, "ticket is outside your scope")
	}
	return ticket, nil
}

// validateReferences checks department, category and priority exist, and
// that the category belongs to the department. It returns the priority.
func (s *TicketService) validateReferences(ctx context.Context, store repository.Store, ticket *domain.Ticket) (*domain.Priority, error) {
	if ticket.DepartmentID == "" || ticket.CategoryID == "" || ticket.PriorityID == "" {
		return nil, apperrors.NewValidationError("department, category and priority are required", nil)
	}
	if _, err := store.Departments().GetByID(ctx, ticket.DepartmentID); err != nil {
		return nil, lookupErr("department", ticket.DepartmentID, err)
	}
	category, err := store.Categories().GetByID(ctx, ticket.CategoryID)
	if err != nil {
		return nil, lookupErr("category", ticket.CategoryID, err)
	}
	if category.DepartmentID != ticket.DepartmentID {
		return nil, apperrors.NewValidationError("category does not belong to department", map[string]any{
			"category_id":   ticket.CategoryID,
			"department_id": ticket.DepartmentID,
		})
	}
	priority, err := store.Priorities().GetByID(ctx, ticket.PriorityID)
	if err != nil {
		return nil, lookupErr("priority", ticket.PriorityID, err)
	}
	return priority, nil
}

// validateAssignee requires an existing profile with the agent flag.
func validateAssignee(ctx context.Context, store repository.Store, userID string) error {
	profile, err := store.Profiles().GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewValidationError("assignee is not an agent", map[string]any{"assigned_to": userID})
	}
	if err != nil {
		return err
	}
	if !profile.IsAgent {
		return apperrors.NewValidationError("assignee is not an agent", map[string]any{"assigned_to": userID})
	}
	return nil
}

func validateTicketText(ticket *domain.Ticket) error {
	details := map[string]any{}
	if ticket.Title == "" {
		details["title"] = "required"
	} else if utf8.RuneCountInString(ticket.Title) > maxTitleLength {
		details["title"] = "too long"
	}
	if ticket.Description == "" {
		details["description"] = "required"
	}
	if utf8.RuneCountInString(ticket.Tags) > maxTagsLength {
		details["tags"] = "too long"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket fields", details)
	}
	return nil
}

func validateAttachment(filename string, size int64) error {
	if filename == "" || filename == "." || utf8.RuneCountInString(filename) > maxFilenameLength {
		return apperrors.NewValidationError("invalid filename", nil)
	}
	if size > MaxAttachmentBytes {
		return apperrors.NewValidationError("file exceeds 5 MiB", map[string]any{"size_bytes": size})
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return apperrors.NewValidationError("file type not allowed", map[string]any{"extension": ext})
	}
	return nil
}

func normalizeTags(raw string) string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, ", ")
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// diffTickets lists the tracked fields that differ between before and after.
func diffTickets(before, after *domain.Ticket) []events.FieldChange {
	var changes []events.FieldChange
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, events.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue})
		}
	}
	add("title", before.Title, after.Title)
	add("description", before.Description, after.Description)
	add("status", string(before.Status), string(after.Status))
	add("priority", before.PriorityID, after.PriorityID)
	add("assigned_to", derefString(before.AssigneeID), derefString(after.AssigneeID))
	add("department", before.DepartmentID, after.DepartmentID)
	add("category", before.CategoryID, after.CategoryID)
	add("resolution", before.Resolution, after.Resolution)
	add("tags", before.Tags, after.Tags)
	add("due_date", formatTime(before.DueDate), formatTime(after.DueDate))
	return changes
}
