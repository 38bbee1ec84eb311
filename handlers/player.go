package handlers

import (
	"guesstop/services"
	"guesstop/storage"

	"github.com/gofiber/fiber/v2"
)

// PlayerHandler exposes player identity and rating over HTTP.
type PlayerHandler struct {
	Players *services.PlayerService
}

func SetupPlayerRoutes(app *fiber.App, players *services.PlayerService) {
	h := &PlayerHandler{Players: players}

	app.Post("/players", h.FindOrCreate)
	app.Get("/players", h.List)
	app.Put("/players/referrer", h.SetReferrer)
	app.Get("/rating", h.Rating)
}

type findOrCreateRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
}

// FindOrCreate looks a player up by telegram id, creating the record on
// first contact and refreshing username/name on every later one.
func (h *PlayerHandler) FindOrCreate(c *fiber.Ctx) error {
	var req findOrCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.TelegramID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "telegram_id is required"})
	}
	player, err := h.Players.FindOrCreate(req.TelegramID, req.Username, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(player)
}

func (h *PlayerHandler) List(c *fiber.Ctx) error {
	group := storage.PlayerGroup(c.Query("group", string(storage.PlayersAll)))
	players, err := h.Players.ListPlayers(group)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(players)
}

type setReferrerRequest struct {
	PlayerID   string `json:"player_id"`
	ReferrerID string `json:"referrer_id"`
}

func (h *PlayerHandler) SetReferrer(c *fiber.Ctx) error {
	var req setReferrerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Players.SetReferrer(req.PlayerID, req.ReferrerID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Rating returns the leaderboard head plus, when player_id is given, that
// player's own place on the ladder.
func (h *PlayerHandler) Rating(c *fiber.Ctx) error {
	count := c.QueryInt("count", 10)
	top, err := h.Players.TopPlayers(count)
	if err != nil {
		return fail(c, err)
	}
	resp := fiber.Map{"top": top}
	if playerID := c.Query("player_id"); playerID != "" {
		player, err := h.Players.GetPlayer(playerID)
		if err != nil {
			return fail(c, err)
		}
		position, err := h.Players.RatingPosition(player)
		if err != nil {
			return fail(c, err)
		}
		resp["position"] = position
	}
	return c.JSON(resp)
}
