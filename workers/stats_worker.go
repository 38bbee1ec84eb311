package workers

import (
	"time"

	"guesstop/services"
	"guesstop/storage"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StatsWorker periodically recomputes every player's ledgers and rating, so
// the time decay keeps biting even for players who stopped playing.
type StatsWorker struct {
	Players  *services.PlayerService
	Interval time.Duration
	Log      *zap.SugaredLogger

	sched gocron.Scheduler
}

func NewStatsWorker(players *services.PlayerService, interval time.Duration, log *zap.SugaredLogger) *StatsWorker {
	return &StatsWorker{Players: players, Interval: interval, Log: log}
}

// Start schedules the refresh job. Call Stop to shut the scheduler down.
func (w *StatsWorker) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(w.Interval),
		gocron.NewTask(w.refresh),
	); err != nil {
		return err
	}
	sched.Start()
	w.sched = sched
	w.Log.Infow("stats worker started", "interval", w.Interval)
	return nil
}

func (w *StatsWorker) Stop() {
	if w.sched != nil {
		if err := w.sched.Shutdown(); err != nil {
			w.Log.Warnw("stats worker shutdown failed", "error", err)
		}
	}
}

func (w *StatsWorker) refresh() {
	players, err := w.Players.ListPlayers(storage.PlayersAll)
	if err != nil {
		w.Log.Errorw("stats refresh: listing players failed", "error", err)
		return
	}
	var failed int
	for i := range players {
		if err := w.Players.UpdateStatistics(players[i].ID); err != nil {
			failed++
			w.Log.Warnw("stats refresh failed for player",
				"player", players[i].ID, "error", err)
		}
	}
	w.Log.Infow("stats refresh done", "players", len(players), "failed", failed)
}
