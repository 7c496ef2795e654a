// Package worker turns status change events into audit log rows.
package worker

import (
	"context"
	"errors"
	"fmt"

	"pamadmin/internal/amqp"
	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/storage"
)

// AuditRecorder is the write side of the audit log.
type AuditRecorder interface {
	RecordStatusChange(ctx context.Context, c storage.StatusChange) error
}

// Consumer delivers status change messages until ctx ends.
type Consumer interface {
	ConsumeStatusChanged(ctx context.Context, handler func(context.Context, *amqp.StatusChangedMessage) error) error
}

// AuditWorker writes every StatusChanged event to the audit log.
type AuditWorker struct {
	recorder AuditRecorder
	logger   *log.Logger
}

func NewAuditWorker(recorder AuditRecorder, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuditWorker{recorder: recorder, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleStatusChanged stores msg. Redelivered events are absorbed by the
// event id uniqueness of the audit log.
func (w *AuditWorker) HandleStatusChanged(ctx context.Context, msg *amqp.StatusChangedMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	err := w.recorder.RecordStatusChange(ctx, storage.StatusChange{
		EventID:   msg.EventID,
		UserID:    msg.UserID,
		Date:      core.WorkingDay(msg.Date),
		OldStatus: msg.OldStatus,
		NewStatus: msg.NewStatus,
		Reason:    msg.Reason,
		Actor:     msg.Actor,
		ChangedAt: msg.ChangedAt,
	})
	if err != nil {
		return fmt.Errorf("record status change %s: %w", msg.EventID, err)
	}

	w.logger.InfoContext(ctx, "Status change audited",
		log.FieldUserID, msg.UserID,
		log.FieldDate, msg.Date,
		log.FieldOldStatus, msg.OldStatus,
		log.FieldStatus, msg.NewStatus,
		log.FieldActor, msg.Actor)
	return nil
}

// Run consumes from c until ctx is cancelled. A cancelled context is a
// clean stop and returns nil.
func (w *AuditWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Audit worker started")
	err := c.ConsumeStatusChanged(ctx, w.HandleStatusChanged)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Audit worker stopped")
		return nil
	}
	return err
}

// InlinePublisher hands events straight to an AuditWorker. It stands in
// for the broker when AMQP is not configured.
type InlinePublisher struct {
	worker *AuditWorker
}

func NewInlinePublisher(w *AuditWorker) *InlinePublisher {
	return &InlinePublisher{worker: w}
}

func (p *InlinePublisher) PublishStatusChanged(ctx context.Context, msg *amqp.StatusChangedMessage) error {
	return p.worker.HandleStatusChanged(ctx, msg)
}
