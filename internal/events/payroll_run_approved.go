package events

import "time"

const PayrollRunApprovedTopic = "payroll.run.approved.v1"

// PayrollRunApprovedEvent tells downstream payment systems that a run cleared
// both approval gates and its payslips are ready for disbursement.
type PayrollRunApprovedEvent struct {
	EventType     string    `json:"event_type"`
	PayrollRunID  string    `json:"payroll_run_id"`
	RunNumber     string    `json:"run_number"`
	EntityID      string    `json:"entity_id"`
	Currency      string    `json:"currency"`
	EmployeeCount int       `json:"employee_count"`
	TotalNetPay   string    `json:"total_net_pay"`
	ApprovedAt    time.Time `json:"approved_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}
