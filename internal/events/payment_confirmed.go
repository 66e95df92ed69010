package events

import "time"

const PaymentConfirmedTopic = "payroll.payment.confirmed.v1"

// PaymentConfirmedEvent is emitted by the external payment executor once funds
// for an approved run have been transferred. Consuming it marks the run and
// its payslips PAID.
type PaymentConfirmedEvent struct {
	EventType    string    `json:"event_type"`
	PayrollRunID string    `json:"payroll_run_id"`
	EntityID     string    `json:"entity_id"`
	PaidAt       time.Time `json:"paid_at"`
	OccurredAt   time.Time `json:"occurred_at"`
}
