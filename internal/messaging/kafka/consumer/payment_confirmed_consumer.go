package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-payroll/internal/events"
	"go-payroll/internal/payrollrun"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"
	"go-payroll/internal/payslip"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumePaymentConfirmations applies payment confirmations from the external
// payment executor: the run goes to PAID and its pending payslips follow.
func ConsumePaymentConfirmations(
	ctx context.Context,
	reader *kafkago.Reader,
	runService payrollrun.Service,
	payslipService payslip.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.payment_confirmed")
	log.Info("payment confirmation consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("payment confirmation consumer stopped")
				return
			}
			log.Error("fetch payment confirmation message failed", zap.Error(err))
			continue
		}

		var event events.PaymentConfirmedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode payment_confirmed event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		paidAt := event.PaidAt
		if paidAt.IsZero() {
			paidAt = time.Now().UTC()
		}

		_, err = runService.MarkPaid(ctx, event.EntityID, event.PayrollRunID, paidAt)
		if err != nil {
			// A redelivered confirmation finds the run already paid; that is
			// a no-op, not a failure.
			if errors.Is(err, payrollrunerrors.ErrTerminalStateViolation) {
				log.Warn("payroll run already paid, skipping",
					zap.String("payroll_run_id", event.PayrollRunID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("mark payroll run paid failed",
				zap.String("payroll_run_id", event.PayrollRunID),
				zap.String("entity_id", event.EntityID),
				zap.Error(err),
			)
			continue
		}

		if err := payslipService.MarkRunPaid(ctx, event.PayrollRunID, paidAt); err != nil {
			log.Error("mark payslips paid failed",
				zap.String("payroll_run_id", event.PayrollRunID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit payment confirmation message failed", zap.Error(err))
			continue
		}

		log.Info("payment confirmation applied",
			zap.String("payroll_run_id", event.PayrollRunID),
			zap.String("entity_id", event.EntityID),
		)
	}
}
