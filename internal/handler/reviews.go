package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/middleware"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
	"github.com/printforge/printforge/api/internal/service"
)

// ReviewsHandler handles product review endpoints
type ReviewsHandler struct {
	reviewService *service.ReviewService
	authService   *service.AuthService
	logger        *zap.Logger
}

// NewReviewsHandler creates a new reviews handler
func NewReviewsHandler(reviewService *service.ReviewService, authService *service.AuthService, logger *zap.Logger) *ReviewsHandler {
	return &ReviewsHandler{
		reviewService: reviewService,
		authService:   authService,
		logger:        logger,
	}
}

// ListReviews handles GET /v1/tenants/:tenantId/reviews
func (h *ReviewsHandler) ListReviews(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	filter := &domain.ReviewFilter{
		TenantID: tenantID,
	}

	if productID := parseQueryUUID(c, "productId"); productID != nil {
		filter.ProductID = productID
	}
	if customerID := parseQueryUUID(c, "customerId"); customerID != nil {
		filter.CustomerID = customerID
	}
	if status := c.Query("status"); status != "" {
		s := domain.ReviewStatus(status)
		if !s.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid status",
			})
		}
		filter.Status = &s
	}
	if minRating := c.Query("minRating"); minRating != "" {
		v, err := strconv.Atoi(minRating)
		if err != nil || v < 1 || v > 5 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Bad Request",
				"message": "Invalid minRating, expected 1-5",
			})
		}
		filter.MinRating = &v
	}

	p := ParsePagination(c, 100)

	list, err := h.reviewService.List(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list reviews", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list reviews",
		})
	}

	return c.JSON(list)
}

// GetReview handles GET /v1/tenants/:tenantId/reviews/:reviewId
func (h *ReviewsHandler) GetReview(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	reviewID, err := uuid.Parse(c.Params("reviewId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid review ID",
		})
	}

	review, err := h.reviewService.Get(c.Context(), tenantID, reviewID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Review not found",
			})
		}
		h.logger.Error("failed to get review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get review",
		})
	}

	return c.JSON(review)
}

// SubmitReview handles POST /v1/tenants/:tenantId/reviews
func (h *ReviewsHandler) SubmitReview(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	var input domain.ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	review, err := h.reviewService.Submit(c.Context(), tenantID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": err.Error(),
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
				"message": "This customer has already reviewed this product",
			})
		}
		h.logger.Error("failed to submit review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to submit review",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(review)
}

// UpdateReview handles PATCH /v1/tenants/:tenantId/reviews/:reviewId
func (h *ReviewsHandler) UpdateReview(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	reviewID, err := uuid.Parse(c.Params("reviewId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid review ID",
		})
	}

	var input domain.ReviewUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	review, err := h.reviewService.Update(c.Context(), tenantID, reviewID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Review not found",
			})
		}
		if apperrors.IsValidation(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to update review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to update review",
		})
	}

	return c.JSON(review)
}

// PublishReview handles POST /v1/tenants/:tenantId/reviews/:reviewId/publish
func (h *ReviewsHandler) PublishReview(c *fiber.Ctx) error {
	return h.moderate(c, domain.ReviewStatusPublished, "publish")
}

// RejectReview handles POST /v1/tenants/:tenantId/reviews/:reviewId/reject
func (h *ReviewsHandler) RejectReview(c *fiber.Ctx) error {
	return h.moderate(c, domain.ReviewStatusRejected, "reject")
}

func (h *ReviewsHandler) moderate(c *fiber.Ctx, status domain.ReviewStatus, action string) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	reviewID, err := uuid.Parse(c.Params("reviewId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid review ID",
		})
	}

	actorID, email := h.actor(c)

	review, err := h.reviewService.Moderate(c.Context(), tenantID, reviewID, status, actorID, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Review not found",
			})
		}
		if apperrors.IsValidation(err) || apperrors.IsInvalidTransition(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Unprocessable Entity",
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to "+action+" review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to " + action + " review",
		})
	}

	return c.JSON(review)
}

// DeleteReview handles DELETE /v1/tenants/:tenantId/reviews/:reviewId
func (h *ReviewsHandler) DeleteReview(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	reviewID, err := uuid.Parse(c.Params("reviewId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid review ID",
		})
	}

	if err := h.reviewService.Delete(c.Context(), tenantID, reviewID); err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Review not found",
			})
		}
		h.logger.Error("failed to delete review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to delete review",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListPublicReviews handles GET /public/products/:productId/reviews
func (h *ReviewsHandler) ListPublicReviews(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid product ID",
		})
	}

	p := ParsePagination(c, 100)

	list, err := h.reviewService.ListPublished(c.Context(), tenantID, productID, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("failed to list published reviews", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to list reviews",
		})
	}

	return c.JSON(list)
}

// GetPublicReviewSummary handles GET /public/products/:productId/review-summary
func (h *ReviewsHandler) GetPublicReviewSummary(c *fiber.Ctx) error {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Tenant ID not found",
		})
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid product ID",
		})
	}

	summary, err := h.reviewService.Summary(c.Context(), tenantID, productID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Product not found",
			})
		}
		h.logger.Error("failed to get review summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to get review summary",
		})
	}

	return c.JSON(summary)
}

func (h *ReviewsHandler) actor(c *fiber.Ctx) (*uuid.UUID, string) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, ""
	}
	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return &userID, ""
	}
	return &userID, user.Email
}
