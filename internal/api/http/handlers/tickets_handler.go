package handlers

import (
	"bytes"
	"encoding/csv"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const exportFilename = "tickets_export.csv"

// TicketsHandler serves the ticket endpoints for every role.
type TicketsHandler struct {
	service *service.TicketService
	loc     *time.Location
	now     func() time.Time
}

// NewTicketsHandler constructs handler. Date query values are read in loc.
func NewTicketsHandler(ticketService *service.TicketService, loc *time.Location) *TicketsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketsHandler{service: ticketService, loc: loc, now: time.Now}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), principal, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		CategoryID:   req.CategoryID,
		PriorityID:   req.PriorityID,
		Tags:         req.Tags,
		SubmitterID:  req.SubmitterID,
		AssigneeID:   req.AssignedTo,
		DueDate:      req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, h.ticketSummary(&page.Items[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Data: items,
		Meta: dto.PageMeta{Total: page.Total, Page: page.Page, PageSize: page.PageSize},
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketDetail(detail)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), principal, c.Params("id"), service.TicketUpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Tags:         req.Tags,
		DepartmentID: req.DepartmentID,
		CategoryID:   req.CategoryID,
		PriorityID:   req.PriorityID,
		Status:       req.Status,
		AssigneeID:   req.AssignedTo,
		Unassign:     req.Unassign,
		Resolution:   req.Resolution,
		DueDate:      req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketSummary(ticket)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), principal, c.Params("id"), parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(history)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), principal, c.Params("id"), req.Body, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// AddAttachment POST /tickets/:id/attachments with multipart field "file".
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	if header.Size > service.MaxAttachmentBytes {
		return apperrors.NewValidationError("file exceeds 5 MiB", map[string]any{"size_bytes": header.Size})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, service.MaxAttachmentBytes+1))
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	attachment, err := h.service.AddAttachment(c.UserContext(), principal, c.Params("id"), header.Filename, content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Export GET /tickets/export streams the scoped tickets as CSV.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	from, err := parseDate(c, "date_from", h.loc)
	if err != nil {
		return err
	}
	to, err := parseDate(c, "date_to", h.loc)
	if err != nil {
		return err
	}
	rows, err := h.service.Export(c.UserContext(), principal, from, to)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(service.ExportHeader); err != nil {
		return apperrors.NewInternalError(err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+exportFilename+`"`)
	return c.Send(buf.Bytes())
}

func (h *TicketsHandler) parseFilter(c *fiber.Ctx) (service.TicketFilter, error) {
	filter := service.TicketFilter{
		PriorityID:   optionalQuery(c, "priority_id"),
		DepartmentID: optionalQuery(c, "department_id"),
		CategoryID:   optionalQuery(c, "category_id"),
		AssigneeID:   optionalQuery(c, "assigned_to"),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         parseInt(c.Query("page"), 1),
		PageSize:     parseInt(c.Query("page_size"), 20),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			if status := strings.TrimSpace(part); status != "" {
				filter.Statuses = append(filter.Statuses, domain.TicketStatus(status))
			}
		}
	}
	var err error
	if filter.DateFrom, err = parseDate(c, "date_from", h.loc); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDate(c, "date_to", h.loc); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *TicketsHandler) ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	tags := ticket.TagList()
	if tags == nil {
		tags = []string{}
	}
	return dto.TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Title:        ticket.Title,
		Status:       ticket.Status,
		StatusLabel:  ticket.Status.Label(),
		PriorityID:   ticket.PriorityID,
		DepartmentID: ticket.DepartmentID,
		CategoryID:   ticket.CategoryID,
		SubmitterID:  ticket.SubmitterID,
		AssignedTo:   ticket.AssigneeID,
		Tags:         tags,
		DueDate:      ticket.DueDate,
		IsOverdue:    ticket.IsOverdue(h.now()),
		Version:      ticket.Version,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func (h *TicketsHandler) ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i]))
	}
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for i := range detail.Attachments {
		attachments = append(attachments, attachmentResponse(&detail.Attachments[i]))
	}
	ticket := &detail.Ticket
	return dto.TicketDetailResponse{
		TicketSummary: h.ticketSummary(ticket),
		Description:   ticket.Description,
		Resolution:    ticket.Resolution,
		ResolvedAt:    ticket.ResolvedAt,
		ClosedAt:      ticket.ClosedAt,
		Comments:      comments,
		Attachments:   attachments,
		History:       historyResponses(detail.History),
		Permissions:   detail.Permissions,
	}
}

func commentResponse(comment *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		AuthorID:   comment.AuthorID,
		Body:       comment.Body,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}

func attachmentResponse(attachment *domain.TicketAttachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         attachment.ID,
		Filename:   attachment.Filename,
		SizeBytes:  attachment.SizeBytes,
		UploadedBy: attachment.UploadedBy,
		UploadedAt: attachment.UploadedAt,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:           entry.ID,
			UserID:       entry.UserID,
			Action:       entry.Action,
			FieldChanged: entry.FieldChanged,
			OldValue:     entry.OldValue,
			NewValue:     entry.NewValue,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return resp
}
