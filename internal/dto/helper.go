package dto

import (
	"github.com/gofiber/fiber/v2"

	"github.com/printforge/printforge/api/internal/validator"
)

// ParseAndValidate parses the request body into out and checks it against
// its validate tags. On failure it writes the error response itself and
// reports ok=false; the handler should return err without writing more.
// Unparseable bodies get a 400, bodies that fail validation get a 422.
func ParseAndValidate(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	if err := validator.Validate(out); err != nil {
		resp := fiber.Map{
			"error":   "Unprocessable Entity",
			"message": "Request validation failed",
		}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			resp["errors"] = verrs
		}
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}

	return true, nil
}
