package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/rs/zerolog"
)

// ruleRevision is one queued materialization request. The revision ties
// the request to the state of the rule at enqueue time: a request whose
// revision is no longer the rule's latest is served by a newer request
// already behind it in the queue.
type ruleRevision struct {
	workspaceID int32
	ruleID      int32
	revision    uint64
}

// ScheduleWorker is a background worker that keeps materialized schedule
// rows current. It runs a full sweep on an interval and serves targeted
// per-rule requests in between, coalescing bursts of requests for the
// same rule down to the latest one.
type ScheduleWorker struct {
	scheduleService *ScheduleService
	logger          zerolog.Logger
	interval        time.Duration
	requests        chan ruleRevision
	stopCh          chan struct{}
	doneCh          chan struct{}
	mu              sync.Mutex
	running         bool
	revisions       map[int32]uint64
}

// ScheduleWorkerConfig holds configuration for the schedule worker
type ScheduleWorkerConfig struct {
	Interval  time.Duration // How often to run the full sweep
	QueueSize int           // Buffered per-rule sync requests
}

// DefaultScheduleWorkerConfig returns sensible defaults
func DefaultScheduleWorkerConfig() ScheduleWorkerConfig {
	return ScheduleWorkerConfig{
		Interval:  1 * time.Hour, // Sweep every hour
		QueueSize: 64,
	}
}

// NewScheduleWorker creates a new schedule worker
func NewScheduleWorker(
	scheduleService *ScheduleService,
	logger zerolog.Logger,
	config ScheduleWorkerConfig,
) *ScheduleWorker {
	if config.Interval <= 0 {
		config.Interval = 1 * time.Hour
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}

	return &ScheduleWorker{
		scheduleService: scheduleService,
		logger:          logger.With().Str("component", "schedule_worker").Logger(),
		interval:        config.Interval,
		requests:        make(chan ruleRevision, config.QueueSize),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
		revisions:       make(map[int32]uint64),
	}
}

// Enqueue requests an immediate materialization of one rule. Every call
// bumps the rule's revision, so of several queued requests for the same
// rule only the newest one performs work. Callers never block: when the
// queue is full the request is dropped and the periodic sweep covers the
// rule instead.
func (w *ScheduleWorker) Enqueue(workspaceID int32, ruleID int32) {
	w.mu.Lock()
	w.revisions[ruleID]++
	req := ruleRevision{workspaceID: workspaceID, ruleID: ruleID, revision: w.revisions[ruleID]}
	w.mu.Unlock()

	select {
	case w.requests <- req:
	default:
		w.logger.Debug().
			Int32("rule_id", ruleID).
			Msg("Request queue full, rule left to the periodic sweep")
	}
}

// Start begins the background schedule sync
func (w *ScheduleWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Int("queue_size", cap(w.requests)).
		Msg("Starting schedule worker")

	go w.run(ctx)
}

// Stop gracefully stops the schedule worker
func (w *ScheduleWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping schedule worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Schedule worker stopped")
}

// run is the main loop for the schedule worker
func (w *ScheduleWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Sweep immediately on startup
	w.sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.sweep()
		case req := <-w.requests:
			w.serve(req)
		}
	}
}

// sweep runs a full materialization pass over every active rule
func (w *ScheduleWorker) sweep() {
	if _, err := w.scheduleService.SyncAllActive(); err != nil {
		w.logger.Error().Err(err).Msg("Schedule sweep finished with errors")
	}
}

// serve rebuilds one requested rule's rows unless the request has been
// superseded by a newer revision for the same rule. Requests come from
// rule edits, so a full refresh is used: a diff keyed on dates would
// leave rows behind after a frequency or weekday change.
func (w *ScheduleWorker) serve(req ruleRevision) {
	w.mu.Lock()
	current := w.revisions[req.ruleID]
	w.mu.Unlock()

	if req.revision < current {
		w.logger.Debug().
			Int32("rule_id", req.ruleID).
			Uint64("revision", req.revision).
			Uint64("current", current).
			Msg("Discarding superseded sync request")
		return
	}

	if _, err := w.scheduleService.RefreshRule(req.workspaceID, req.ruleID); err != nil {
		// The rule may have been deleted between enqueue and serve
		if errors.Is(err, domain.ErrRuleNotFound) {
			return
		}
		w.logger.Error().
			Err(err).
			Int32("rule_id", req.ruleID).
			Int32("workspace_id", req.workspaceID).
			Msg("Failed to sync requested rule")
	}
}

// IsRunning returns whether the worker is currently running
func (w *ScheduleWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
