package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/cache"
	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/repository"
)

const (
	PersistPollTimeout = 1 * time.Second
	PersistMaxAttempts = 3
	PersistDrainWindow = 5 * time.Second
)

type persistPayload struct {
	RunID   string `json:"run_id"`
	Attempt int    `json:"attempt"`
}

// PersistQueue enqueues finished runs for the PersistWorker.
type PersistQueue struct {
	queue Queue
}

func NewPersistQueue(queue Queue) *PersistQueue {
	return &PersistQueue{queue: queue}
}

// Enqueue schedules the cached report of runID for persistence.
func (q *PersistQueue) Enqueue(ctx context.Context, runID string) error {
	raw, err := json.Marshal(persistPayload{RunID: runID})
	if err != nil {
		return err
	}
	return q.queue.Push(ctx, raw)
}

// PersistWorker moves cached reports into the report repository.
type PersistWorker struct {
	queue   Queue
	reports cache.ReportCache
	repo    repository.ReportRepository
	log     zerolog.Logger
}

func NewPersistWorker(queue Queue, reports cache.ReportCache, repo repository.ReportRepository, log zerolog.Logger) *PersistWorker {
	return &PersistWorker{
		queue:   queue,
		reports: reports,
		repo:    repo,
		log:     log.With().Str("component", "persist_worker").Logger(),
	}
}

// ─── Worker loop ─────────────────────────────────────────────────

// Start consumes the queue until ctx is cancelled, then drains whatever is
// still queued for up to PersistDrainWindow.
func (w *PersistWorker) Start(ctx context.Context) {
	w.log.Info().Msg("PersistWorker started")

	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("Shutdown requested. Draining queue...")
			w.drain()
			return
		}

		raw, err := w.queue.Pop(ctx, PersistPollTimeout)
		if err != nil {
			if !errors.Is(err, ErrQueueEmpty) && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Pop error")
			}
			continue
		}
		w.handle(ctx, raw)
	}
}

func (w *PersistWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), PersistDrainWindow)
	defer cancel()

	for ctx.Err() == nil {
		raw, err := w.queue.Pop(ctx, 10*time.Millisecond)
		if err != nil {
			return
		}
		w.handle(ctx, raw)
	}
}

// ─── Job handling ────────────────────────────────────────────────

func (w *PersistWorker) handle(ctx context.Context, raw []byte) {
	var p persistPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	err := w.persist(ctx, p.RunID)
	if err == nil {
		w.log.Info().Str("run_id", p.RunID).Msg("Report persisted")
		return
	}

	p.Attempt++
	if p.Attempt >= PersistMaxAttempts {
		w.log.Error().Err(err).Str("run_id", p.RunID).Int("attempts", p.Attempt).Msg("Giving up on report")
		return
	}

	w.log.Warn().Err(err).Str("run_id", p.RunID).Int("attempt", p.Attempt).Msg("Persist failed, requeueing")
	retry, _ := json.Marshal(p)
	if err := w.queue.Push(context.WithoutCancel(ctx), retry); err != nil {
		w.log.Error().Err(err).Str("run_id", p.RunID).Msg("Requeue failed")
	}
}

func (w *PersistWorker) persist(ctx context.Context, runID string) error {
	report, ok, err := w.reports.Get(ctx, config.CacheKey.ReportKey(runID))
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	if !ok {
		return fmt.Errorf("report %s no longer cached", runID)
	}
	return w.repo.Save(ctx, report)
}
