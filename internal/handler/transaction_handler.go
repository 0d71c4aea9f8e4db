package handler

import (
	"time"

	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
	"go-pos-kasir/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(s service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	cashierID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid cashier identity"})
	}

	transaction, err := h.service.CreateTransaction(&req, cashierID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Transaction created", "data": transaction})
}

func (h *TransactionHandler) CompletePayment(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	var body struct {
		PaymentMethod *model.PaymentMethod `json:"payment_method"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}

	transaction, err := h.service.CompleteTransactionPayment(id, body.PaymentMethod)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Payment completed", "data": transaction})
}

func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	var filters repository.TransactionFilters

	if cashier := c.Query("cashier_id"); cashier != "" {
		id, err := parseUUID(cashier)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid cashier_id"})
		}
		filters.CashierID = &id
	}
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
		// Inclusive day boundary
		t = t.Add(24*time.Hour - time.Nanosecond)
		filters.EndDate = &t
	}

	transactions, err := h.service.GetAllTransactions(filters)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	transaction, err := h.service.GetTransactionByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transaction)
}
