package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"informeclaro/internal/service"
)

// ListReports returns the report ledger with limit & offset.
func ListReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

func GetReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rep)
	}
}

// ReportArchive redirects to a short-lived presigned URL of the archived PDF.
func ReportArchive(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.ArchiveURL(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}
