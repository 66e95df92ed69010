package payslip

import (
	"encoding/json"
	"time"
)

type DisputeRequest struct {
	Reason    string `json:"reason" binding:"required"`
	DisputeID string `json:"dispute_id,omitempty"`
}

type PayslipResponse struct {
	ID            string            `json:"id"`
	PayrollRunID  string            `json:"payroll_run_id"`
	EmployeeID    string            `json:"employee_id"`
	PayrollPeriod string            `json:"payroll_period"`
	Currency      string            `json:"currency"`
	Earnings      EarningsDetails   `json:"earnings"`
	Deductions    DeductionsDetails `json:"deductions"`
	TotalGross    string            `json:"total_gross_salary"`
	TotalDeducted string            `json:"total_deductions"`
	NetPay        string            `json:"net_pay"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	HasDispute    bool              `json:"has_active_dispute"`
	CreatedAt     time.Time         `json:"created_at"`
}

func mapToResponse(slip *Payslip) (PayslipResponse, error) {
	var earnings EarningsDetails
	if len(slip.EarningsDetails) > 0 {
		if err := json.Unmarshal(slip.EarningsDetails, &earnings); err != nil {
			return PayslipResponse{}, err
		}
	}
	var deductions DeductionsDetails
	if len(slip.DeductionsDetails) > 0 {
		if err := json.Unmarshal(slip.DeductionsDetails, &deductions); err != nil {
			return PayslipResponse{}, err
		}
	}
	return PayslipResponse{
		ID:            slip.ID.String(),
		PayrollRunID:  slip.PayrollRunID.String(),
		EmployeeID:    slip.EmployeeID.String(),
		PayrollPeriod: slip.PayrollPeriod.Format("2006-01-02"),
		Currency:      slip.Currency,
		Earnings:      earnings,
		Deductions:    deductions,
		TotalGross:    slip.TotalGrossSalary.StringFixed(2),
		TotalDeducted: slip.TotalDeductions.StringFixed(2),
		NetPay:        slip.NetPay.StringFixed(2),
		PaymentStatus: slip.PaymentStatus,
		Status:        slip.Status,
		HasDispute:    slip.HasActiveDispute,
		CreatedAt:     slip.CreatedAt,
	}, nil
}

func mapToListResponse(slips []Payslip) ([]PayslipResponse, error) {
	out := make([]PayslipResponse, 0, len(slips))
	for i := range slips {
		resp, err := mapToResponse(&slips[i])
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}
