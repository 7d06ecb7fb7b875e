package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringProcessor materializes due recurring series into concrete
// transactions. One pass per trigger; each series is its own unit of
// work, so a failure on one never rolls back the others.
type RecurringProcessor struct {
	store     SeriesStore
	publisher Publisher
}

func NewRecurringProcessor(store SeriesStore, publisher Publisher) *RecurringProcessor {
	return &RecurringProcessor{store: store, publisher: publisher}
}

// ProcessResult summarizes one materialization pass.
type ProcessResult struct {
	Processed   int // transactions generated
	Deactivated int // series expired and switched off
	Skipped     int // not due, or lost the marker race
}

// ProcessAll runs one pass over every active series.
//
// Per series: if the end date has passed, deactivate and move on. The
// candidate occurrence is NextDate(marker, frequency), or the start
// date for a series that never ran. A candidate on or before today is
// due: one transaction dated today is generated and the marker jumps to
// today. A multi-day gap therefore collapses to a single catch-up
// transaction; missed periods are not backfilled.
//
// Re-running within the same day is idempotent: an advanced marker
// pushes the next candidate past today, and the conditional marker
// update in the store closes the race between overlapping runs.
func (p *RecurringProcessor) ProcessAll(ctx context.Context, today time.Time) (ProcessResult, error) {
	if p.store == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}

	today = core.Midnight(today)

	series, err := p.store.ListActiveSeries(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("list active series: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring series",
		"total_active", len(series),
		"processing_date", today.Format("2006-01-02"))

	var result ProcessResult

	for _, s := range series {
		if !s.EndDate.IsZero() && today.After(core.Midnight(s.EndDate)) {
			if err := p.store.DeactivateSeries(ctx, s.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate expired series",
					"series_id", s.ID,
					"error", err)
				continue
			}
			result.Deactivated++
			slog.InfoContext(ctx, "Deactivated expired series",
				"series_id", s.ID,
				"end_date", s.EndDate.Format("2006-01-02"))
			continue
		}

		candidate := core.Midnight(s.StartDate)
		if !s.LastProcessed.IsZero() {
			candidate = core.NextDate(s.LastProcessed, s.Frequency)
		}

		if candidate.After(today) {
			result.Skipped++
			continue
		}

		generated, err := p.store.MaterializeSeries(ctx, s, today)
		if errors.Is(err, storage.ErrConflict) {
			// Another run (or an owner edit) moved the marker first.
			result.Skipped++
			slog.WarnContext(ctx, "Series marker moved concurrently, skipping",
				"series_id", s.ID)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize series",
				"series_id", s.ID,
				"error", err)
			continue
		}

		result.Processed++
		slog.InfoContext(ctx, "Materialized transaction from series",
			"series_id", s.ID,
			"transaction_id", generated.ID,
			"amount_cents", generated.Amount.Cents,
			"frequency", s.Frequency)

		if p.publisher != nil {
			if err := p.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(generated)); err != nil {
				slog.ErrorContext(ctx, "Failed to publish materialized transaction event",
					"transaction_id", generated.ID,
					"error", err)
			}
		}
	}

	slog.InfoContext(ctx, "Recurring series processing complete",
		"processed", result.Processed,
		"deactivated", result.Deactivated,
		"skipped", result.Skipped,
		"total_checked", len(series))

	return result, nil
}
