package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
)

// ReportsHandler serves aggregate statistics.
type ReportsHandler struct {
	reports *service.ReportService
	loc     *time.Location
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService, loc *time.Location) *ReportsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportsHandler{reports: reports, loc: loc}
}

// Report GET /reports?date_from=YYYY-MM-DD&date_to=YYYY-MM-DD.
func (h *ReportsHandler) Report(c *fiber.Ctx) error {
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
	stats, err := h.reports.Aggregate(c.UserContext(), principal, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
