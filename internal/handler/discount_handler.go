package handler

import (
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
	"go-pos-kasir/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DiscountHandler struct {
	service service.DiscountService
}

func NewDiscountHandler(s service.DiscountService) *DiscountHandler {
	return &DiscountHandler{service: s}
}

func (h *DiscountHandler) CreateDiscount(c *fiber.Ctx) error {
	var req service.CreateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	discount, err := h.service.CreateDiscount(&req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Discount created", "data": discount})
}

func (h *DiscountHandler) UpdateDiscount(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid discount ID"})
	}

	var req service.UpdateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	discount, err := h.service.UpdateDiscount(id, &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Discount updated", "data": discount})
}

func (h *DiscountHandler) DeleteDiscount(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid discount ID"})
	}

	if err := h.service.DeleteDiscount(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Discount deleted"})
}

func (h *DiscountHandler) GetDiscounts(c *fiber.Ctx) error {
	var filters repository.DiscountFilters
	if isActive := c.Query("is_active"); isActive != "" {
		active := isActive == "true"
		filters.IsActive = &active
	}
	filters.Type = model.DiscountType(c.Query("type"))
	filters.AppliesTo = model.DiscountScope(c.Query("applies_to"))

	discounts, err := h.service.GetAllDiscounts(filters)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(discounts)
}

func (h *DiscountHandler) GetDiscount(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid discount ID"})
	}

	discount, err := h.service.GetDiscountByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(discount)
}
