package handlers

import (
	"errors"

	"guesstop/game"

	"github.com/gofiber/fiber/v2"
)

// fail maps the core error taxonomy onto HTTP statuses: missing records are
// 404, game-rule rejections 403, lost updates 409, grammar errors 422, and
// anything else propagates as 500.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, game.ErrAlreadyPlayed),
		errors.Is(err, game.ErrDuplicateAnswer),
		errors.Is(err, game.ErrExhausted),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrRoundFinished):
		status = fiber.StatusForbidden
	case errors.Is(err, game.ErrStateConflict):
		status = fiber.StatusConflict
	case errors.Is(err, game.ErrMalformedPattern):
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
