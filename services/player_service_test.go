package services

import (
	"errors"
	"testing"
	"time"

	"guesstop/game"
	"guesstop/models"
)

func TestFindOrCreate(t *testing.T) {
	f := newFixture(t)

	player, err := f.players.FindOrCreate(300, "vasya", "Вася")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if player.ID == "" || player.TelegramID != 300 {
		t.Fatalf("created player: %+v", player)
	}

	// a later contact refreshes identity instead of creating a duplicate
	again, err := f.players.FindOrCreate(300, "vasya_new", "Василий")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if again.ID != player.ID {
		t.Fatalf("duplicate player created: %s then %s", player.ID, again.ID)
	}
	if again.TelegramUsername != "vasya_new" || again.Name != "Василий" {
		t.Fatalf("identity not refreshed: %+v", again)
	}
	if len(f.store.players) != 3 {
		t.Fatalf("player count = %d, want 3", len(f.store.players))
	}
}

func TestSetReferrerOnce(t *testing.T) {
	f := newFixture(t)

	if err := f.players.SetReferrer("p1", "p2"); err != nil {
		t.Fatalf("set referrer: %v", err)
	}
	if got := f.store.players["p1"].ReferrerID; got == nil || *got != "p2" {
		t.Fatalf("referrer = %v, want p2", got)
	}
	// the binding is permanent
	if err := f.players.SetReferrer("p1", "p1"); err != nil {
		t.Fatalf("second set: %v", err)
	}
	if got := f.store.players["p1"].ReferrerID; *got != "p2" {
		t.Fatalf("referrer rebound to %v", got)
	}

	if err := f.players.SetReferrer("p2", "missing"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("unknown referrer: got %v, want ErrNotFound", err)
	}
}

func TestUpdateStatistics(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	earlier := now.Add(-time.Hour)

	f.store.rounds["r1"] = &models.Round{
		ID: "r1", Player1ID: "p1", TopicID: topicID,
		Score1: 30, Score2: 20, FinishedAt: &now,
	}
	f.store.rounds["r2"] = &models.Round{
		ID: "r2", Player1ID: "p1", TopicID: "t2",
		Score1: 10, Score2: 20, FinishedAt: &earlier,
	}

	if err := f.players.UpdateStatistics("p1"); err != nil {
		t.Fatalf("update: %v", err)
	}
	player := f.store.players["p1"]
	if player.Victories != 1 || player.Defeats != 1 || player.Draws != 0 {
		t.Fatalf("ledger: %d/%d/%d, want 1/1/0", player.Victories, player.Defeats, player.Draws)
	}
	if player.AverageScore != 20 {
		t.Fatalf("average = %d, want 20", player.AverageScore)
	}
	// both rounds finished today: (30+40) + 10 at full weight
	if player.Rating != 80 {
		t.Fatalf("rating = %d, want 80", player.Rating)
	}
	if player.BestRating != 80 {
		t.Fatalf("best rating = %d, want 80", player.BestRating)
	}

	// a losing streak lowers the rating but never the best-ever mark
	f.store.rounds["r1"].Score1 = 0
	if err := f.players.UpdateStatistics("p1"); err != nil {
		t.Fatalf("second update: %v", err)
	}
	player = f.store.players["p1"]
	if player.Rating != 10 {
		t.Fatalf("rating = %d, want 10", player.Rating)
	}
	if player.BestRating != 80 {
		t.Fatalf("best rating dropped to %d", player.BestRating)
	}
}

func TestUpdateStatisticsDuelLedger(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	// p1 wins as the owner, loses as the guest
	f.store.rounds["d1"] = &models.Round{
		ID: "d1", Player1ID: "p1", Player2ID: "p2", TopicID: topicID,
		Duel: true, Score1: 30, Score2: 10, FinishedAt: &now,
	}
	f.store.rounds["d2"] = &models.Round{
		ID: "d2", Player1ID: "p2", Player2ID: "p1", TopicID: "t2",
		Duel: true, Score1: 25, Score2: 5, FinishedAt: &now,
	}

	if err := f.players.UpdateStatistics("p1"); err != nil {
		t.Fatalf("update: %v", err)
	}
	player := f.store.players["p1"]
	if player.DuelVictories != 1 || player.DuelDefeats != 1 {
		t.Fatalf("duel ledger: %d/%d, want 1/1", player.DuelVictories, player.DuelDefeats)
	}
	// (30 + 40 victory bonus) + 5, no decay
	if player.DuelRating != 75 {
		t.Fatalf("duel rating = %d, want 75", player.DuelRating)
	}
	// duels stay out of the single-opponent ledger
	if player.Victories != 0 || player.Rating != 0 {
		t.Fatalf("duels leaked into the single ledger: %+v", player)
	}
}
