package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// ReferenceHandler serves the lookup tables behind ticket forms.
type ReferenceHandler struct {
	refs *service.ReferenceService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(refs *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

// Departments GET /departments. Pass all=true to include inactive ones.
func (h *ReferenceHandler) Departments(c *fiber.Ctx) error {
	departments, err := h.refs.Departments(c.UserContext(), c.Query("all") != "true")
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, 0, len(departments))
	for _, dept := range departments {
		resp = append(resp, dto.DepartmentResponse{
			ID:          dept.ID,
			Name:        dept.Name,
			Description: dept.Description,
			Email:       dept.Email,
			IsActive:    dept.IsActive,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Categories GET /departments/:id/categories?ticket_id=.
func (h *ReferenceHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.refs.Categories(c.UserContext(), c.Params("id"), c.Query("ticket_id"))
	if err != nil {
		return err
	}
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		resp = append(resp, dto.CategoryResponse{
			ID:           category.ID,
			Name:         category.Name,
			DepartmentID: category.DepartmentID,
			IsActive:     category.IsActive,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Priorities GET /priorities.
func (h *ReferenceHandler) Priorities(c *fiber.Ctx) error {
	priorities, err := h.refs.Priorities(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.PriorityResponse, 0, len(priorities))
	for _, priority := range priorities {
		resp = append(resp, dto.PriorityResponse{
			ID:                priority.ID,
			Name:              priority.Name,
			Level:             priority.Level,
			ResponseTimeHours: priority.ResponseTimeHours,
			Color:             priority.Color,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SLAs GET /slas.
func (h *ReferenceHandler) SLAs(c *fiber.Ctx) error {
	slas, err := h.refs.SLAs(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.SLAResponse, 0, len(slas))
	for _, sla := range slas {
		resp = append(resp, dto.SLAResponse{
			ID:                  sla.ID,
			Name:                sla.Name,
			DepartmentID:        sla.DepartmentID,
			PriorityID:          sla.PriorityID,
			ResponseTimeHours:   sla.ResponseTimeHours,
			ResolutionTimeHours: sla.ResolutionTimeHours,
			IsActive:            sla.IsActive,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}
