package handlers

import (
	"guesstop/game"
	"guesstop/services"

	"github.com/gofiber/fiber/v2"
)

// RoundHandler exposes the round lifecycle.
type RoundHandler struct {
	Rounds *services.RoundService
}

func SetupRoundRoutes(app *fiber.App, rounds *services.RoundService) {
	h := &RoundHandler{Rounds: rounds}

	app.Post("/rounds", h.CreateRound)
	app.Post("/rounds/answer", h.SubmitAnswer)
	app.Put("/rounds/feedback", h.AddFeedback)
	app.Post("/rounds/finish", h.Finish)
	app.Get("/rounds/unchecked", h.UncheckedRounds)
	app.Post("/rounds/checked", h.MarkChecked)
}

type createRoundRequest struct {
	Player1ID string `json:"player1_id"`
	Player2ID string `json:"player2_id"`
	TopicID   string `json:"topic_id"`
	HitsMode  bool   `json:"hits_mode"`
}

func (h *RoundHandler) CreateRound(c *fiber.Ctx) error {
	var req createRoundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Player1ID == "" || req.TopicID == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "player1_id and topic_id are required"})
	}
	round, err := h.Rounds.CreateRound(c.Context(), req.Player1ID, req.Player2ID, req.TopicID, req.HitsMode)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(round)
}

type submitAnswerRequest struct {
	RoundID  string `json:"round_id"`
	Side     int    `json:"side"`
	Answer   string `json:"answer"`
	EntityID string `json:"entity_id"`
}

// SubmitAnswer processes one submission, or a disambiguation follow-up when
// entity_id is set. On an ambiguous answer it returns the candidate entities
// and changes nothing. In a single-opponent round the system opponent's move
// follows in the same response, closing the exchange.
func (h *RoundHandler) SubmitAnswer(c *fiber.Ctx) error {
	var req submitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.RoundID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "round_id is required"})
	}
	side := game.Side1
	if req.Side == 2 {
		side = game.Side2
	}

	result, err := h.Rounds.SubmitAnswer(c.Context(), req.RoundID, side, req.Answer, req.EntityID)
	if err != nil {
		return fail(c, err)
	}
	resp := fiber.Map{
		"attempt":  result.Attempt,
		"skipped":  result.Skipped,
		"entities": result.Entities,
		"state":    result.State,
		"over":     result.Over,
	}
	if result.Ambiguous() {
		return c.JSON(resp)
	}

	if !result.State.Duel && !result.Over {
		opponent, err := h.Rounds.OpponentTurn(c.Context(), req.RoundID)
		if err != nil {
			return fail(c, err)
		}
		resp["attempt"] = opponent.Attempt
		resp["state"] = opponent.State
		resp["over"] = opponent.Over
		resp["opponent"] = opponent
	}
	return c.JSON(resp)
}

type feedbackRequest struct {
	RoundID  string `json:"round_id"`
	Side     int    `json:"side"`
	Feedback string `json:"feedback"`
}

func (h *RoundHandler) AddFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	side := game.Side1
	if req.Side == 2 {
		side = game.Side2
	}
	if err := h.Rounds.AddFeedback(req.RoundID, side, req.Feedback); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type finishRequest struct {
	RoundID   string `json:"round_id"`
	Score1    int    `json:"score1"`
	Score2    int    `json:"score2"`
	Hits1     int    `json:"hits1"`
	Hits2     int    `json:"hits2"`
	AbortSide int    `json:"abort_side"`
}

func (h *RoundHandler) Finish(c *fiber.Ctx) error {
	var req finishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	var abortSide game.Side
	switch req.AbortSide {
	case 1:
		abortSide = game.Side1
	case 2:
		abortSide = game.Side2
	}
	err := h.Rounds.Finish(c.Context(), req.RoundID, req.Score1, req.Score2, req.Hits1, req.Hits2, abortSide)
	if err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UncheckedRounds lists finished rounds awaiting moderation review.
func (h *RoundHandler) UncheckedRounds(c *fiber.Ctx) error {
	rounds, err := h.Rounds.UncheckedRounds()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rounds)
}

type checkRoundsRequest struct {
	IDs []string `json:"ids"`
}

func (h *RoundHandler) MarkChecked(c *fiber.Ctx) error {
	var req checkRoundsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if len(req.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ids is required"})
	}
	if err := h.Rounds.MarkChecked(req.IDs); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
