package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/agenterr"
	"aicoach/internal/repository"
	"aicoach/pkg/mq"
	"aicoach/pkg/trace"
)

// OutreachDrainer drains pending agent actions whose retry window has opened
// and publishes outreach.requested events for the worker.
type OutreachDrainer struct {
	actionRepo *repository.PendingActionRepository
	publisher  *mq.Publisher
	logger     *zap.Logger
	batchSize  int
	now        func() time.Time
}

func NewOutreachDrainer(
	actionRepo *repository.PendingActionRepository,
	publisher *mq.Publisher,
	batchSize int,
	logger *zap.Logger,
) *OutreachDrainer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutreachDrainer{
		actionRepo: actionRepo,
		publisher:  publisher,
		logger:     logger,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// Drain runs one pass over due pending actions.
func (d *OutreachDrainer) Drain(ctx context.Context) error {
	now := d.now()

	actions, err := d.actionRepo.ListDue(ctx, now, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to list due pending actions", zap.Error(err))
		return err
	}

	if len(actions) == 0 {
		d.logger.Debug("No due pending actions")
		return nil
	}

	drained := 0
	for _, action := range actions {
		// Exhausted rows are parked; the classifier already decided their
		// error code when the failure was recorded.
		if action.Attempts >= action.MaxAttempts {
			if err := d.actionRepo.MarkFailed(ctx, action.ID, action.ErrorCode, "retry attempts exhausted"); err != nil {
				continue
			}
			d.logger.Warn("Pending action exhausted retries",
				zap.Int("action_id", action.ID),
				zap.String("error_code", action.ErrorCode),
			)
			continue
		}

		traceID := trace.GenerateTraceID()
		payload := mqcontracts.OutreachRequestedPayload{
			PendingActionID: action.ID,
			UserID:          action.UserID,
			ActionType:      action.ActionType,
			Attempt:         action.Attempts + 1,
			TraceID:         traceID,
		}

		if err := d.publisher.PublishWithContext(trace.WithContext(ctx, traceID), "outreach.requested", payload); err != nil {
			d.logger.Error("Failed to publish outreach.requested",
				zap.Int("action_id", action.ID),
				zap.Error(err),
			)
			continue
		}

		// Backoff grows linearly with attempts, like the outbox dispatcher.
		nextAttempt := now.Add(time.Duration(action.Attempts+1) * 5 * time.Minute)
		if err := d.actionRepo.MarkDispatched(ctx, action.ID, nextAttempt); err != nil {
			continue
		}

		drained++
		d.logger.Info("Published outreach.requested",
			zap.Int("action_id", action.ID),
			zap.Int("attempt", action.Attempts+1),
		)
	}

	d.logger.Info("Outreach drain completed",
		zap.Int("due", len(actions)),
		zap.Int("drained", drained),
	)
	return nil
}

// RecordFailure classifies and records an agent action failure, deciding
// between scheduling a retry and parking the action.
func (d *OutreachDrainer) RecordFailure(ctx context.Context, actionID int, actionErr error) error {
	retryable, code := agenterr.ClassifyError(actionErr)
	classification := agenterr.Classify(code)

	if !retryable || !classification.Retryable {
		return d.actionRepo.MarkFailed(ctx, actionID, code, actionErr.Error())
	}

	nextAttempt := d.now().Add(5 * time.Minute)
	return d.actionRepo.ScheduleRetry(ctx, actionID, code, actionErr.Error(), nextAttempt)
}
