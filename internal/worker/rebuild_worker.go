package worker

// rebuild_worker.go
// Processes full-rebuild jobs from QueueRebuild: every member's weekly
// balances re-derived from the earliest record through the current week.
// Queued rather than inline so an admin triggering a rebuild over a large
// group does not hold an HTTP request open for the whole batch.

import (
	"context"
	"encoding/json"

	"messbill/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RebuildJobPayload is the job envelope sent to QueueRebuild.
type RebuildJobPayload struct {
	RequestedBy string `json:"requested_by"`
}

// BalanceRecalculator is the slice of the balance service the worker needs.
// Declared here to keep the dependency pointing worker ← service, not both ways.
type BalanceRecalculator interface {
	RecalculateAll(ctx context.Context) (*dto.RecalculationSummary, error)
}

type RebuildWorker struct {
	balances BalanceRecalculator
	rdb      *redis.Client
}

func NewRebuildWorker(balances BalanceRecalculator, rdb *redis.Client) *RebuildWorker {
	return &RebuildWorker{balances: balances, rdb: rdb}
}

// Process runs the rebuild to completion. The operation is deliberately not
// interrupted mid-way: a partial rebuild is only consistent up to the week
// it reached, so a failure lands in the DLQ for an operator to re-trigger.
func (w *RebuildWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload RebuildJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("rebuild_worker: invalid payload")
		return
	}

	summary, err := w.balances.RecalculateAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("rebuild_worker: rebuild failed")
		SendToDLQ(ctx, w.rdb, QueueRebuild, "rebuild", raw, err.Error(), 1)
		return
	}

	log.Info().
		Int("processed", summary.ProcessedCount).
		Strs("failed_users", summary.FailedUsers).
		Str("requested_by", payload.RequestedBy).
		Msg("rebuild_worker: full rebuild finished")
}
