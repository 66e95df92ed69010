package irregularity

import "time"

type FlagExceptionRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Code       string  `json:"code" binding:"required"`
	Message    string  `json:"message" binding:"required"`
}

type ResolveExceptionRequest struct {
	Resolution string `json:"resolution" binding:"required"`
	ResolvedBy string `json:"-"`
}

type ExceptionResponse struct {
	ID           string     `json:"id"`
	PayrollRunID string     `json:"payroll_run_id"`
	EmployeeID   *string    `json:"employee_id,omitempty"`
	Code         string     `json:"code"`
	Message      string     `json:"message"`
	Source       string     `json:"source"`
	FlaggedAt    time.Time  `json:"flagged_at"`
	Resolved     bool       `json:"resolved"`
	Resolution   *string    `json:"resolution,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy   *string    `json:"resolved_by,omitempty"`
}

func mapToResponse(exc *PayrollException) ExceptionResponse {
	resp := ExceptionResponse{
		ID:           exc.ID.String(),
		PayrollRunID: exc.PayrollRunID.String(),
		Code:         exc.Code,
		Message:      exc.Message,
		Source:       exc.Source,
		FlaggedAt:    exc.FlaggedAt,
		Resolved:     exc.Resolved,
		Resolution:   exc.Resolution,
		ResolvedAt:   exc.ResolvedAt,
	}
	if exc.EmployeeID != nil {
		id := exc.EmployeeID.String()
		resp.EmployeeID = &id
	}
	if exc.ResolvedBy != nil {
		id := exc.ResolvedBy.String()
		resp.ResolvedBy = &id
	}
	return resp
}

func mapToListResponse(excs []PayrollException) []ExceptionResponse {
	out := make([]ExceptionResponse, 0, len(excs))
	for i := range excs {
		out = append(out, mapToResponse(&excs[i]))
	}
	return out
}
