package handlers

import (
	"time"

	"guesstop/services"

	"github.com/gofiber/fiber/v2"
)

// TopicHandler exposes topics, entity search and answer moderation.
type TopicHandler struct {
	Topics *services.TopicService
	Rounds *services.RoundService
}

func SetupTopicRoutes(app *fiber.App, topics *services.TopicService, rounds *services.RoundService) {
	h := &TopicHandler{Topics: topics, Rounds: rounds}

	app.Get("/topics/random", h.RandomTopics)
	app.Get("/topics/:id", h.GetTopic)
	app.Get("/entities", h.SearchEntities)
	app.Get("/answers/unbound", h.UnboundAnswers)
	app.Put("/answers", h.ModerateAnswer)
	app.Post("/answers/discard", h.DiscardAnswers)
}

func (h *TopicHandler) GetTopic(c *fiber.Ctx) error {
	topic, err := h.Topics.GetTopic(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(topic)
}

// RandomTopics draws the player's current topic offer. The draw is memoized
// on the player until a round starts, so a repeated request returns the same
// topics.
func (h *TopicHandler) RandomTopics(c *fiber.Ctx) error {
	playerID := c.Query("player_id")
	if playerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "player_id is required"})
	}
	topics, err := h.Topics.RandomTopics(playerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(topics)
}

func (h *TopicHandler) SearchEntities(c *fiber.Ctx) error {
	term := c.Query("term")
	if term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "term is required"})
	}
	entities, err := h.Topics.SearchEntities(term)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entities)
}

func (h *TopicHandler) UnboundAnswers(c *fiber.Ctx) error {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "since must be RFC 3339"})
		}
		since = &parsed
	}
	answers, err := h.Rounds.UnboundAnswers(since)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(answers)
}

// ModerateAnswer binds a pending answer to an entity: an existing ranking
// record, an existing entity joined to the topic on the fly, or a brand-new
// entity authored inline.
func (h *TopicHandler) ModerateAnswer(c *fiber.Ctx) error {
	var req services.ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.AnswerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "answer_id is required"})
	}
	if err := h.Topics.ModerateAnswer(req); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type discardRequest struct {
	IDs []string `json:"ids"`
}

func (h *TopicHandler) DiscardAnswers(c *fiber.Ctx) error {
	var req discardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if len(req.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ids is required"})
	}
	if err := h.Rounds.DiscardAnswers(req.IDs); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
