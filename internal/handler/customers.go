package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// CustomersHandler handles customer endpoints
type CustomersHandler struct {
	customerService *service.CustomerService
	logger          *zap.Logger
}

// NewCustomersHandler creates a new customers handler
func NewCustomersHandler(customerService *service.CustomerService, logger *zap.Logger) *CustomersHandler {
	return &CustomersHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// ListCustomers handles GET /v1/tenants/:tenantId/customers
func (h *CustomersHandler) ListCustomers(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.CustomerFilter{
		TenantID: tenantID,
	}

	if email := c.Query("email"); email != "" {
		filter.Email = &email
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}
	if archived := c.Query("archived"); archived != "" {
		v := archived == "true"
		filter.Archived = &v
	}

	p := ParsePagination(c, 100)

	list, err := h.customerService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list customers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list customers",
		})
	}

	return c.JSON(list)
}

// GetCustomer handles GET /v1/tenants/:tenantId/customers/:customerId
func (h *CustomersHandler) GetCustomer(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	customerID, err := uuid.Parse(c.Params("customerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid customer ID",
		})
	}

	customer, err := h.customerService.Get(c.Context(), tenantID, customerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Customer not found",
			})
		}
		h.logger.Error("failed to get customer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get customer",
		})
	}

	return c.JSON(customer)
}

// CreateCustomer handles POST /v1/tenants/:tenantId/customers
func (h *CustomersHandler) CreateCustomer(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.CustomerInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	if input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "email is required",
		})
	}

	customer, err := h.customerService.Create(c.Context(), tenantID, &input)
	if err != nil {
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": "A customer with this email already exists",
			})
		}
		h.logger.Error("failed to create customer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to create customer",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(customer)
}

// UpdateCustomer handles PATCH /v1/tenants/:tenantId/customers/:customerId
func (h *CustomersHandler) UpdateCustomer(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	customerID, err := uuid.Parse(c.Params("customerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid customer ID",
		})
	}

	var input domain.CustomerUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	customer, err := h.customerService.Update(c.Context(), tenantID, customerID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Customer not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": "A customer with this email already exists",
			})
		}
		h.logger.Error("failed to update customer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update customer",
		})
	}

	return c.JSON(customer)
}

// ArchiveCustomer handles POST /v1/tenants/:tenantId/customers/:customerId/archive
func (h *CustomersHandler) ArchiveCustomer(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	customerID, err := uuid.Parse(c.Params("customerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid customer ID",
		})
	}

	customer, err := h.customerService.Archive(c.Context(), tenantID, customerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Customer not found",
			})
		}
		h.logger.Error("failed to archive customer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to archive customer",
		})
	}

	return c.JSON(customer)
}

// DeleteCustomer handles DELETE /v1/tenants/:tenantId/customers/:customerId
func (h *CustomersHandler) DeleteCustomer(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	customerID, err := uuid.Parse(c.Params("customerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid customer ID",
		})
	}

	if err := h.customerService.Delete(c.Context(), tenantID, customerID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Customer not found",
			})
		}
		if apperrors.IsConflict(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "Conflict",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to delete customer", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete customer",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
