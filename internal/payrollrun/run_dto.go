package payrollrun

import "time"

type GenerateRunRequest struct {
	PayrollPeriod    string  `json:"payroll_period" binding:"required"` // YYYY-MM-DD, end of month
	EntityName       string  `json:"entity_name" binding:"required"`
	Currency         string  `json:"currency" binding:"required,len=3"`
	PayrollManagerID *string `json:"payroll_manager_id,omitempty"`
}

type ReviewInitiationRequest struct {
	Approved        bool    `json:"approved"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type SendForApprovalRequest struct {
	PayrollManagerID string `json:"payroll_manager_id" binding:"required"`
	FinanceStaffID   string `json:"finance_staff_id" binding:"required"`
}

type ApprovalDecisionRequest struct {
	Role     string  `json:"role" binding:"required"` // MANAGER or FINANCE
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason,omitempty"`
}

type ProrationRequest struct {
	EmployeeID       string `json:"employee_id" binding:"required"`
	BaseSalary       string `json:"base_salary" binding:"required"`
	StartDate        string `json:"start_date" binding:"required"`
	EndDate          string `json:"end_date" binding:"required"`
	PayrollPeriodEnd string `json:"payroll_period_end" binding:"required"`
}

type ProrationResponse struct {
	EmployeeID     string `json:"employee_id"`
	ProratedSalary string `json:"prorated_salary"`
	Applied        bool   `json:"applied"`
	DaysWorked     int    `json:"days_worked"`
	DaysInMonth    int    `json:"days_in_month"`
}

type PayrollRunResponse struct {
	ID               string     `json:"id"`
	RunNumber        string     `json:"run_number"`
	EntityID         string     `json:"entity_id"`
	EntityName       string     `json:"entity_name"`
	PayrollPeriod    string     `json:"payroll_period"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	InitiationStatus string     `json:"initiation_status"`
	EmployeeCount    int        `json:"employee_count"`
	ExceptionCount   int        `json:"exception_count"`
	TotalNetPay      string     `json:"total_net_pay"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	CreatedBy        string     `json:"created_by"`
	PayrollManagerID *string    `json:"payroll_manager_id,omitempty"`
	FinanceStaffID   *string    `json:"finance_staff_id,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type ComputationResponse struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	BaseSalary      string            `json:"base_salary"`
	ProratedSalary  *string           `json:"prorated_salary,omitempty"`
	GrossSalary     string            `json:"gross_salary"`
	TotalDeductions string            `json:"total_deductions"`
	NetPay          string            `json:"net_pay"`
	Detail          ComputationDetail `json:"detail"`
	Excluded        bool              `json:"excluded"`
	ExclusionReason *string           `json:"exclusion_reason,omitempty"`
}

func mapToResponse(run *PayrollRun) PayrollRunResponse {
	resp := PayrollRunResponse{
		ID:               run.ID.String(),
		RunNumber:        run.RunNumber,
		EntityID:         run.EntityID.String(),
		EntityName:       run.EntityName,
		PayrollPeriod:    run.PayrollPeriod.Format("2006-01-02"),
		Currency:         run.Currency,
		Status:           run.Status,
		InitiationStatus: run.InitiationStatus,
		EmployeeCount:    run.EmployeeCount,
		ExceptionCount:   run.ExceptionCount,
		TotalNetPay:      run.TotalNetPay.StringFixed(2),
		RejectionReason:  run.RejectionReason,
		CreatedBy:        run.CreatedBy.String(),
		ApprovedAt:       run.ApprovedAt,
		PaidAt:           run.PaidAt,
		CreatedAt:        run.CreatedAt,
	}
	if run.PayrollManagerID != nil {
		id := run.PayrollManagerID.String()
		resp.PayrollManagerID = &id
	}
	if run.FinanceStaffID != nil {
		id := run.FinanceStaffID.String()
		resp.FinanceStaffID = &id
	}
	return resp
}

func mapToListResponse(runs []PayrollRun) []PayrollRunResponse {
	out := make([]PayrollRunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, mapToResponse(&runs[i]))
	}
	return out
}

func mapComputationToResponse(c *EmployeeComputation) (ComputationResponse, error) {
	detail, err := c.Detail()
	if err != nil {
		return ComputationResponse{}, err
	}
	resp := ComputationResponse{
		ID:              c.ID.String(),
		EmployeeID:      c.EmployeeID.String(),
		BaseSalary:      c.BaseSalary.StringFixed(2),
		GrossSalary:     c.GrossSalary.StringFixed(2),
		TotalDeductions: c.TotalDeductions.StringFixed(2),
		NetPay:          c.NetPay.StringFixed(2),
		Detail:          detail,
		Excluded:        c.Excluded,
		ExclusionReason: c.ExclusionReason,
	}
	if c.ProratedSalary != nil {
		s := c.ProratedSalary.StringFixed(2)
		resp.ProratedSalary = &s
	}
	return resp, nil
}
