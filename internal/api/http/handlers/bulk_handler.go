package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// BulkHandler serves staff bulk actions.
type BulkHandler struct {
	bulk *service.BulkService
}

// NewBulkHandler constructs handler.
func NewBulkHandler(bulk *service.BulkService) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

// Apply POST /tickets/bulk.
func (h *BulkHandler) Apply(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req dto.BulkActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	action := service.BulkAction(strings.ToLower(strings.TrimSpace(req.Action)))
	affected, err := h.bulk.Apply(c.UserContext(), principal, service.BulkRequest{
		TicketIDs:  req.TicketIDs,
		Action:     action,
		AssigneeID: req.AssignedTo,
		Status:     req.Status,
		PriorityID: req.PriorityID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkActionResponse{Action: string(action), Affected: affected}})
}
