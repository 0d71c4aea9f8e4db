package handler

import (
	"time"

	"go-pos-kasir/internal/repository"
	"go-pos-kasir/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

func (h *ReportHandler) GetProductsSoldReport(c *fiber.Ctx) error {
	var filters repository.ReportFilters

	if start := c.Query("start_date"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid start_date, use YYYY-MM-DD"})
		}
		filters.StartDate = &t
	}
	if end := c.Query("end_date"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid end_date, use YYYY-MM-DD"})
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		filters.EndDate = &t
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := parseUUID(categoryID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid category_id"})
		}
		filters.CategoryID = &id
	}
	if productID := c.Query("product_id"); productID != "" {
		id, err := parseUUID(productID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid product_id"})
		}
		filters.ProductID = &id
	}
	filters.Barcode = c.Query("barcode")

	report, err := h.service.GetProductsSoldReport(filters)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) GetCurrentStockModalReport(c *fiber.Ctx) error {
	report, err := h.service.GetCurrentStockModalReport()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
