package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"guesstop/game"
	"guesstop/models"
)

func topicIDs(topics []models.Topic) []string {
	ids := make([]string, len(topics))
	for i := range topics {
		ids[i] = topics[i].ID
	}
	return ids
}

func TestRandomTopicsMemoized(t *testing.T) {
	f := newFixture(t)
	f.store.topics["t2"] = &models.Topic{ID: "t2", Title: "Столицы", Slug: "stolicy"}

	first, err := f.topics.RandomTopics("p1")
	if err != nil {
		t.Fatalf("first draw: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("draw size %d, want 2", len(first))
	}
	// asking again returns the identical offer
	second, err := f.topics.RandomTopics("p1")
	if err != nil {
		t.Fatalf("second draw: %v", err)
	}
	if !reflect.DeepEqual(topicIDs(first), topicIDs(second)) {
		t.Fatalf("offer changed between requests: %v then %v", topicIDs(first), topicIDs(second))
	}

	// a round start clears the memo and the played topic leaves the pool
	if _, err := f.rounds.CreateRound(context.Background(), "p1", "", topicID, false); err != nil {
		t.Fatalf("create round: %v", err)
	}
	third, err := f.topics.RandomTopics("p1")
	if err != nil {
		t.Fatalf("third draw: %v", err)
	}
	if len(third) != 1 || third[0].ID != "t2" {
		t.Fatalf("draw after playing t1: %v", topicIDs(third))
	}
}

func TestRandomTopicsExhausted(t *testing.T) {
	f := newFixture(t)
	if _, err := f.rounds.CreateRound(context.Background(), "p1", "", topicID, false); err != nil {
		t.Fatalf("create round: %v", err)
	}
	if _, err := f.topics.RandomTopics("p1"); !errors.Is(err, game.ErrExhausted) {
		t.Fatalf("got %v, want ErrExhausted", err)
	}
}

func TestGetTopicBySlugFallback(t *testing.T) {
	f := newFixture(t)
	topic, err := f.topics.GetTopic("domashnie-zhivotnye")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if topic.ID != topicID {
		t.Fatalf("got topic %s, want %s", topic.ID, topicID)
	}
	if _, err := f.topics.GetTopic("nothing"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCompileEntityMalformed(t *testing.T) {
	f := newFixture(t)
	entity, err := f.store.GetEntity("e1")
	if err != nil {
		t.Fatalf("get entity: %v", err)
	}
	if err := f.topics.CompileEntity(entity, "(кот"); !errors.Is(err, game.ErrMalformedPattern) {
		t.Fatalf("got %v, want ErrMalformedPattern", err)
	}
	// the previously published set is untouched
	if got := f.store.entities["e1"].Matches; got != "кот кошка зверь" {
		t.Fatalf("matches overwritten on failure: %q", got)
	}
}

func TestCompileEntity(t *testing.T) {
	f := newFixture(t)
	entity := &models.Entity{ID: "e9", Title: "Собака"}
	if err := f.topics.CompileEntity(entity, "собака / пес(а)"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []string{"пес", "песа", "собака"}
	if got := f.store.entities["e9"].MatchList(); !reflect.DeepEqual(got, want) {
		t.Fatalf("compiled matches %v, want %v", got, want)
	}
}

func TestRecomputePositions(t *testing.T) {
	f := newFixture(t)
	// хомяк overtakes everyone
	f.store.topicEntities[te3].AnswersCount = 50

	if err := f.topics.RecomputePositions(topicID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got := f.store.topicEntities[te3].Position; got != 1 {
		t.Fatalf("te3 position = %d, want 1", got)
	}
	if got := f.store.topicEntities[te1].Position; got != 2 {
		t.Fatalf("te1 position = %d, want 2", got)
	}

	pool, err := f.store.topics[topicID].DecodeOpponentAnswers()
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(pool) != 3 || pool[0].TopicEntityID != te3 || pool[0].Text != "Хомяк" {
		t.Fatalf("pool not in ranking order: %+v", pool)
	}
}

func TestModerateAnswerBindExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, err := f.rounds.CreateRound(ctx, "p1", "", topicID, false)
	if err != nil {
		t.Fatalf("create round: %v", err)
	}
	if _, err := f.rounds.SubmitAnswer(ctx, round.ID, game.Side1, "единорог", ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	pending, err := f.store.UnboundAnswers(nil)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending answers: %v %v", pending, err)
	}

	err = f.topics.ModerateAnswer(ModerationRequest{AnswerID: pending[0].ID, TopicEntityID: te3})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	bound, err := f.store.GetAnswer(pending[0].ID)
	if err != nil {
		t.Fatalf("get answer: %v", err)
	}
	if bound.TopicEntityID != te3 {
		t.Fatalf("answer bound to %q, want te3", bound.TopicEntityID)
	}
	if got := f.store.topicEntities[te3].AnswersCount; got != 2 {
		t.Fatalf("answers count = %d, want 2", got)
	}
	if remaining, _ := f.store.UnboundAnswers(nil); len(remaining) != 0 {
		t.Fatalf("answer still pending: %+v", remaining)
	}
}

func TestModerateAnswerNewEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	round, err := f.rounds.CreateRound(ctx, "p1", "", topicID, false)
	if err != nil {
		t.Fatalf("create round: %v", err)
	}
	if _, err := f.rounds.SubmitAnswer(ctx, round.ID, game.Side1, "попугай", ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	pending, _ := f.store.UnboundAnswers(nil)

	err = f.topics.ModerateAnswer(ModerationRequest{
		AnswerID:      pending[0].ID,
		EntityTitle:   "Попугай",
		EntityPattern: "попугаи / попугаичик",
	})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}

	entity, err := f.store.GetEntityByTitle("Попугай")
	if err != nil {
		t.Fatalf("new entity missing: %v", err)
	}
	tes, err := f.store.TopicEntities(topicID)
	if err != nil || len(tes) != 4 {
		t.Fatalf("topic entities after moderation: %d, %v", len(tes), err)
	}

	// the rebuilt dictionary recognizes the new spelling at once
	topic, _ := f.store.GetTopic(topicID)
	index, err := topic.DecodeMatches()
	if err != nil {
		t.Fatalf("decode matches: %v", err)
	}
	if got := index.Resolve("попугайчик"); len(got) != 1 || got[0] != entity.ID {
		t.Fatalf("Resolve after moderation = %v, want [%s]", got, entity.ID)
	}
}

func TestSearchEntities(t *testing.T) {
	f := newFixture(t)
	found, err := f.topics.SearchEntities("хом")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "e3" {
		t.Fatalf("search result: %+v", found)
	}
}
