package service

import (
	"context"
	"testing"
	"time"

	"github.com/kassa-app/kassa-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func setupScheduleWorker() (*ScheduleWorker, *testutil.MockRuleRepository, *testutil.MockTransactionRepository) {
	ruleRepo := testutil.NewMockRuleRepository()
	transactionRepo := testutil.NewMockTransactionRepository()

	scheduleService := NewScheduleService(ruleRepo, transactionRepo, NewEntityLocks(), DefaultScheduleHorizonMonths)

	logger := zerolog.Nop() // Silent logger for tests

	config := ScheduleWorkerConfig{
		Interval:  100 * time.Millisecond, // Fast interval for testing
		QueueSize: 8,
	}

	worker := NewScheduleWorker(scheduleService, logger, config)
	return worker, ruleRepo, transactionRepo
}

func TestScheduleWorker_NewScheduleWorker(t *testing.T) {
	worker, _, _ := setupScheduleWorker()

	assert.NotNil(t, worker)
	assert.Equal(t, 100*time.Millisecond, worker.interval)
	assert.Equal(t, 8, cap(worker.requests))
	assert.False(t, worker.IsRunning())
}

func TestScheduleWorker_DefaultConfig(t *testing.T) {
	config := DefaultScheduleWorkerConfig()

	assert.Equal(t, 1*time.Hour, config.Interval)
	assert.Equal(t, 64, config.QueueSize)
}

func TestScheduleWorker_StartStop(t *testing.T) {
	worker, _, _ := setupScheduleWorker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the worker
	worker.Start(ctx)
	time.Sleep(50 * time.Millisecond) // Give it time to start

	assert.True(t, worker.IsRunning())

	// Stop the worker
	worker.Stop()

	assert.False(t, worker.IsRunning())
}

func TestScheduleWorker_StartTwice(t *testing.T) {
	worker, _, _ := setupScheduleWorker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the worker twice (should be idempotent)
	worker.Start(ctx)
	worker.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.True(t, worker.IsRunning())

	worker.Stop()
	assert.False(t, worker.IsRunning())
}

func TestScheduleWorker_StopWithoutStart(t *testing.T) {
	worker, _, _ := setupScheduleWorker()

	// Stop without starting should not panic
	worker.Stop()
	assert.False(t, worker.IsRunning())
}

func TestScheduleWorker_SweepOnStartup(t *testing.T) {
	worker, ruleRepo, transactionRepo := setupScheduleWorker()
	rule, _ := dailyRule(ruleRepo, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	rows, _ := transactionRepo.GetBySource(1, rule.ID)
	assert.Len(t, rows, 8, "startup sweep should materialize the rule")
}

func TestScheduleWorker_ServesEnqueuedRequest(t *testing.T) {
	worker, ruleRepo, transactionRepo := setupScheduleWorker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Startup sweep sees no rules; the rule arrives afterwards
	worker.Start(ctx)
	time.Sleep(10 * time.Millisecond)

	rule, _ := dailyRule(ruleRepo, 1)
	worker.Enqueue(1, rule.ID)
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	rows, _ := transactionRepo.GetBySource(1, rule.ID)
	assert.Len(t, rows, 8, "enqueued rule should be materialized without waiting for the sweep")
}

func TestScheduleWorker_ServeDiscardsSupersededRequest(t *testing.T) {
	worker, ruleRepo, transactionRepo := setupScheduleWorker()
	rule, _ := dailyRule(ruleRepo, 1)

	// Two requests for the same rule; only the newest may perform work
	worker.Enqueue(1, rule.ID)
	worker.Enqueue(1, rule.ID)

	first := <-worker.requests
	second := <-worker.requests
	assert.Less(t, first.revision, second.revision)

	worker.serve(first)
	rows, _ := transactionRepo.GetBySource(1, rule.ID)
	assert.Empty(t, rows, "superseded request must not materialize")

	worker.serve(second)
	rows, _ = transactionRepo.GetBySource(1, rule.ID)
	assert.Len(t, rows, 8)
}

func TestScheduleWorker_EnqueueNeverBlocks(t *testing.T) {
	worker, ruleRepo, _ := setupScheduleWorker()
	rule, _ := dailyRule(ruleRepo, 1)

	// Worker is not running, so nothing drains the queue
	for i := 0; i < 20; i++ {
		worker.Enqueue(1, rule.ID)
	}

	assert.Equal(t, 8, len(worker.requests), "overflow requests are dropped, not queued")
}

func TestScheduleWorker_ServeToleratesDeletedRule(t *testing.T) {
	worker, _, transactionRepo := setupScheduleWorker()

	// The rule vanished between enqueue and serve
	worker.serve(ruleRevision{workspaceID: 1, ruleID: 404, revision: 1})

	assert.Equal(t, 0, transactionRepo.Writes)
}

func TestScheduleWorker_ContextCancellation(t *testing.T) {
	worker, _, _ := setupScheduleWorker()

	ctx, cancel := context.WithCancel(context.Background())

	worker.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.True(t, worker.IsRunning())

	// Cancel the context
	cancel()
	time.Sleep(50 * time.Millisecond)

	// Worker should stop
	assert.False(t, worker.IsRunning())
}

func TestScheduleWorker_DefaultsForInvalidConfig(t *testing.T) {
	ruleRepo := testutil.NewMockRuleRepository()
	transactionRepo := testutil.NewMockTransactionRepository()

	scheduleService := NewScheduleService(ruleRepo, transactionRepo, NewEntityLocks(), DefaultScheduleHorizonMonths)
	logger := zerolog.Nop()

	// Config with invalid values
	config := ScheduleWorkerConfig{
		Interval:  0,  // Invalid
		QueueSize: -1, // Invalid
	}

	worker := NewScheduleWorker(scheduleService, logger, config)

	// Should use defaults
	assert.Equal(t, 1*time.Hour, worker.interval)
	assert.Equal(t, 64, cap(worker.requests))
}
