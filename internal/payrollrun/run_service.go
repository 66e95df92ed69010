package payrollrun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-payroll/internal/approval"
	"go-payroll/internal/events"
	"go-payroll/internal/irregularity"
	"go-payroll/internal/messaging/kafka"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"
	"go-payroll/internal/proration"
	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/counter"
	"go-payroll/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const generationLockTTL = 10 * time.Minute

// Computer produces the full computation set for one entity and period.
type Computer interface {
	ComputeRun(ctx context.Context, entityID string, periodEnd time.Time) (BatchResult, error)
}

// PayslipWriter persists the payslip snapshots of an approved run inside the
// approval transaction.
type PayslipWriter interface {
	CreateForRun(ctx context.Context, tx *sql.Tx, run *PayrollRun, comps []EmployeeComputation) error
}

//go:generate mockgen -source=run_service.go -destination=mock/run_service_mock.go -package=mock
type Service interface {
	GenerateDraft(ctx context.Context, entityID, actorID string, req GenerateRunRequest) (PayrollRunResponse, error)
	Regenerate(ctx context.Context, entityID, actorID, runID string) (PayrollRunResponse, error)
	ReviewInitiation(ctx context.Context, entityID, reviewerID, runID string, req ReviewInitiationRequest) (PayrollRunResponse, error)
	SendForApproval(ctx context.Context, entityID, runID string, req SendForApprovalRequest) (PayrollRunResponse, error)
	RecordApprovalDecision(ctx context.Context, entityID, approverID, runID string, req ApprovalDecisionRequest) (PayrollRunResponse, error)
	MarkPaid(ctx context.Context, entityID, runID string, paidAt time.Time) (PayrollRunResponse, error)
	GetAll(ctx context.Context, entityID, status string, page, limit int) ([]PayrollRunResponse, int64, error)
	GetByID(ctx context.Context, entityID, runID string) (PayrollRunResponse, error)
	GetComputations(ctx context.Context, entityID, runID string) ([]ComputationResponse, error)
	CalculateProratedSalary(ctx context.Context, req ProrationRequest) (ProrationResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	engine     Computer
	approvals  approval.Repository
	exceptions irregularity.Service
	counters   counter.Repository
	payslips   PayslipWriter
	outbox     kafka.OutboxRepository
	rdb        *redis.Client
	prorator   *proration.Calculator
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	engine Computer,
	approvals approval.Repository,
	exceptions irregularity.Service,
	counters counter.Repository,
	payslips PayslipWriter,
	outbox kafka.OutboxRepository,
	rdb *redis.Client,
	prorator *proration.Calculator,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payrollrun.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.service")
	}
	return &service{
		db:         db,
		repo:       repo,
		engine:     engine,
		approvals:  approvals,
		exceptions: exceptions,
		counters:   counters,
		payslips:   payslips,
		outbox:     outbox,
		rdb:        rdb,
		prorator:   prorator,
		logger:     l,
	}
}

func (s *service) GenerateDraft(ctx context.Context, entityID, actorID string, req GenerateRunRequest) (PayrollRunResponse, error) {
	entityUUID, err := uuid.Parse(entityID)
	if err != nil {
		return PayrollRunResponse{}, apperror.InvalidField("entity id")
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return PayrollRunResponse{}, apperror.InvalidField("actor id")
	}
	period, err := parsePeriodEnd(req.PayrollPeriod)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	unlock, err := s.acquireGenerationLock(ctx, entityID, period)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer unlock()

	exists, err := s.repo.ExistsOpenForPeriod(ctx, entityID, period, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	if exists {
		return PayrollRunResponse{}, payrollrunerrors.ErrRunAlreadyExists
	}

	seq, err := s.counters.GetNextValue(ctx, entityID, counter.TypePayrollRun)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	result, err := s.engine.ComputeRun(ctx, entityID, period)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	run := &PayrollRun{
		ID:               uuid.New(),
		RunNumber:        fmt.Sprintf("PR-%s-%04d", period.Format("200601"), seq),
		EntityID:         entityUUID,
		EntityName:       req.EntityName,
		PayrollPeriod:    period,
		Currency:         req.Currency,
		Status:           StatusDraft,
		InitiationStatus: InitiationPending,
		EmployeeCount:    result.EmployeeCount,
		TotalNetPay:      result.TotalNetPay,
		CreatedBy:        actorUUID,
	}
	if req.PayrollManagerID != nil && *req.PayrollManagerID != "" {
		managerUUID, err := uuid.Parse(*req.PayrollManagerID)
		if err != nil {
			return PayrollRunResponse{}, payrollrunerrors.ErrMissingApprovers
		}
		run.PayrollManagerID = &managerUUID
	}

	if err := s.persistNewRun(ctx, run, result.Computations); err != nil {
		return PayrollRunResponse{}, err
	}

	exceptionCount, err := s.annotateRun(ctx, entityID, run, result)
	if err != nil {
		// The run itself landed; detection problems must not roll it back.
		s.logger.Warn("irregularity detection failed after generation",
			zap.String("payroll_run_id", run.ID.String()), zap.Error(err))
	} else {
		run.ExceptionCount = exceptionCount
		if err := s.repo.Update(ctx, run); err != nil {
			return PayrollRunResponse{}, err
		}
	}

	metrics.RunsGenerated.WithLabelValues(run.EntityName).Inc()
	s.logger.Info("draft payroll run generated",
		zap.String("payroll_run_id", run.ID.String()),
		zap.String("run_number", run.RunNumber),
		zap.Int("employees", run.EmployeeCount),
		zap.Int("excluded", result.ExcludedCount),
		zap.String("total_net_pay", run.TotalNetPay.StringFixed(2)),
	)
	return mapToResponse(run), nil
}

func (s *service) persistNewRun(ctx context.Context, run *PayrollRun, comps []EmployeeComputation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, run); err != nil {
		return err
	}
	for i := range comps {
		comps[i].PayrollRunID = run.ID
	}
	if err := qtx.InsertComputations(ctx, comps); err != nil {
		return err
	}
	return tx.Commit()
}

// annotateRun runs irregularity detection over the freshly persisted rows and
// records a run-level exception for every employee the engine had to exclude.
func (s *service) annotateRun(ctx context.Context, entityID string, run *PayrollRun, result BatchResult) (int, error) {
	views := make([]irregularity.ComputationView, 0, len(result.Computations))
	for _, c := range result.Computations {
		views = append(views, irregularity.ComputationView{
			EmployeeID:     c.EmployeeID,
			GrossSalary:    c.GrossSalary,
			NetPay:         c.NetPay,
			HasBankAccount: c.HasBankAccount,
			Excluded:       c.Excluded,
		})
	}

	flagged, err := s.exceptions.Detect(ctx, entityID, run.ID.String(), run.PayrollPeriod, views)
	if err != nil {
		return 0, err
	}
	count := len(flagged)

	for _, c := range result.Computations {
		if !c.Excluded {
			continue
		}
		reason := "excluded from totals"
		if c.ExclusionReason != nil {
			reason = *c.ExclusionReason
		}
		employeeID := c.EmployeeID.String()
		if _, err := s.exceptions.Flag(ctx, entityID, run.ID.String(), &irregularity.FlagExceptionRequest{
			EmployeeID: &employeeID,
			Code:       irregularity.CodeOther,
			Message:    fmt.Sprintf("employee excluded from run: %s", reason),
		}); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (s *service) Regenerate(ctx context.Context, entityID, actorID, runID string) (PayrollRunResponse, error) {
	run, err := s.findRun(ctx, entityID, runID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	if !IsEditable(run.Status) {
		if run.Status == StatusPaid {
			return PayrollRunResponse{}, payrollrunerrors.ErrTerminalStateViolation
		}
		return PayrollRunResponse{}, payrollrunerrors.ErrRunNotEditable
	}

	unlock, err := s.acquireGenerationLock(ctx, entityID, run.PayrollPeriod)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer unlock()

	result, err := s.engine.ComputeRun(ctx, entityID, run.PayrollPeriod)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	comps := result.Computations
	for i := range comps {
		comps[i].PayrollRunID = run.ID
	}
	if err := qtx.ReplaceComputations(ctx, runID, comps); err != nil {
		return PayrollRunResponse{}, err
	}
	if err := s.approvals.WithTx(tx).DeleteByRun(ctx, runID); err != nil {
		return PayrollRunResponse{}, err
	}

	run.Status = StatusDraft
	run.InitiationStatus = InitiationPending
	run.InitiationReviewerID = nil
	run.InitiationReviewedAt = nil
	run.RejectionReason = nil
	run.ApprovedAt = nil
	run.EmployeeCount = result.EmployeeCount
	run.TotalNetPay = result.TotalNetPay
	if err := qtx.Update(ctx, run); err != nil {
		return PayrollRunResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PayrollRunResponse{}, err
	}

	exceptionCount, err := s.annotateRun(ctx, entityID, run, result)
	if err != nil {
		s.logger.Warn("irregularity detection failed after regeneration",
			zap.String("payroll_run_id", runID), zap.Error(err))
	} else {
		run.ExceptionCount = exceptionCount
		if err := s.repo.Update(ctx, run); err != nil {
			return PayrollRunResponse{}, err
		}
	}

	s.logger.Info("payroll run regenerated",
		zap.String("payroll_run_id", runID),
		zap.String("actor_id", actorID),
	)
	return mapToResponse(run), nil
}

func (s *service) ReviewInitiation(ctx context.Context, entityID, reviewerID, runID string, req ReviewInitiationRequest) (PayrollRunResponse, error) {
	reviewerUUID, err := uuid.Parse(reviewerID)
	if err != nil {
		return PayrollRunResponse{}, apperror.InvalidField("reviewer id")
	}
	if !req.Approved && (req.RejectionReason == nil || *req.RejectionReason == "") {
		return PayrollRunResponse{}, payrollrunerrors.ErrRejectionReasonRequired
	}

	run, err := s.findRun(ctx, entityID, runID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	if run.Status != StatusDraft {
		return PayrollRunResponse{}, payrollrunerrors.ErrInvalidTransition
	}
	if run.InitiationStatus != InitiationPending {
		return PayrollRunResponse{}, payrollrunerrors.ErrInitiationAlreadyReviewed
	}

	now := time.Now().UTC()
	run.InitiationReviewerID = &reviewerUUID
	run.InitiationReviewedAt = &now
	if req.Approved {
		run.InitiationStatus = InitiationApproved
	} else {
		run.InitiationStatus = InitiationRejected
		run.RejectionReason = req.RejectionReason
	}
	if err := s.repo.Update(ctx, run); err != nil {
		return PayrollRunResponse{}, err
	}

	s.logger.Info("payroll initiation reviewed",
		zap.String("payroll_run_id", runID),
		zap.Bool("approved", req.Approved),
	)
	return mapToResponse(run), nil
}

func (s *service) SendForApproval(ctx context.Context, entityID, runID string, req SendForApprovalRequest) (PayrollRunResponse, error) {
	managerUUID, err := uuid.Parse(req.PayrollManagerID)
	if err != nil {
		return PayrollRunResponse{}, payrollrunerrors.ErrMissingApprovers
	}
	financeUUID, err := uuid.Parse(req.FinanceStaffID)
	if err != nil {
		return PayrollRunResponse{}, payrollrunerrors.ErrMissingApprovers
	}

	run, err := s.findRun(ctx, entityID, runID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	if run.InitiationStatus != InitiationApproved {
		return PayrollRunResponse{}, payrollrunerrors.ErrInitiationNotApproved
	}
	if err := ValidateTransition(run.Status, StatusUnderReview); err != nil {
		return PayrollRunResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	// Stale decisions from a previous review round must not count again.
	if err := s.approvals.WithTx(tx).DeleteByRun(ctx, runID); err != nil {
		return PayrollRunResponse{}, err
	}

	run.Status = StatusUnderReview
	run.PayrollManagerID = &managerUUID
	run.FinanceStaffID = &financeUUID
	run.RejectionReason = nil
	if err := s.repo.WithTx(tx).Update(ctx, run); err != nil {
		return PayrollRunResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PayrollRunResponse{}, err
	}

	s.logger.Info("payroll run sent for approval",
		zap.String("payroll_run_id", runID),
		zap.String("payroll_manager_id", req.PayrollManagerID),
		zap.String("finance_staff_id", req.FinanceStaffID),
	)
	return mapToResponse(run), nil
}

func (s *service) RecordApprovalDecision(ctx context.Context, entityID, approverID, runID string, req ApprovalDecisionRequest) (PayrollRunResponse, error) {
	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return PayrollRunResponse{}, apperror.InvalidField("approver id")
	}
	runUUID, err := uuid.Parse(runID)
	if err != nil {
		return PayrollRunResponse{}, payrollrunerrors.ErrInvalidRunID
	}
	if req.Role != approval.RoleManager && req.Role != approval.RoleFinance {
		return PayrollRunResponse{}, payrollrunerrors.ErrUnknownApproverRole
	}
	if !req.Approved && (req.Reason == nil || *req.Reason == "") {
		return PayrollRunResponse{}, payrollrunerrors.ErrRejectionReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	// The row lock serializes concurrent manager/finance submissions so the
	// combine step never loses an update.
	qtx := s.repo.WithTx(tx)
	run, err := qtx.FindByIDForUpdate(ctx, entityID, runID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	if run == nil {
		return PayrollRunResponse{}, payrollrunerrors.ErrRunNotFound
	}
	if run.Status == StatusPaid {
		return PayrollRunResponse{}, payrollrunerrors.ErrTerminalStateViolation
	}
	if run.Status != StatusUnderReview {
		return PayrollRunResponse{}, payrollrunerrors.ErrInvalidTransition
	}

	now := time.Now().UTC()
	state := approval.StateApproved
	if !req.Approved {
		state = approval.StateRejected
	}
	aqtx := s.approvals.WithTx(tx)
	if err := aqtx.Upsert(ctx, &approval.Decision{
		ID:           uuid.New(),
		PayrollRunID: runUUID,
		ApproverRole: req.Role,
		ApproverID:   approverUUID,
		State:        state,
		Reason:       req.Reason,
		DecidedAt:    &now,
	}); err != nil {
		return PayrollRunResponse{}, err
	}

	decisions, err := aqtx.FindByRun(ctx, runID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	manager := approval.Decision{State: approval.StatePending}
	finance := approval.Decision{State: approval.StatePending}
	for _, d := range decisions {
		switch d.ApproverRole {
		case approval.RoleManager:
			manager = d
		case approval.RoleFinance:
			finance = d
		}
	}

	outcome := approval.Combine(manager, finance)
	switch outcome.State {
	case approval.StateRejected:
		run.Status = StatusRejected
		run.RejectionReason = &outcome.Reason
	case approval.StateApproved:
		run.Status = StatusApproved
		run.ApprovedAt = &now
		if err := s.finalizeApproval(ctx, tx, run); err != nil {
			return PayrollRunResponse{}, err
		}
	}

	if err := qtx.Update(ctx, run); err != nil {
		return PayrollRunResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PayrollRunResponse{}, err
	}

	s.logger.Info("approval decision recorded",
		zap.String("payroll_run_id", runID),
		zap.String("role", req.Role),
		zap.Bool("approved", req.Approved),
		zap.String("run_status", run.Status),
	)
	return mapToResponse(run), nil
}

// finalizeApproval creates payslips and stages the approved event in the same
// transaction as the status flip, so either all of it lands or none does.
func (s *service) finalizeApproval(ctx context.Context, tx *sql.Tx, run *PayrollRun) error {
	comps, err := s.repo.ListComputations(ctx, run.ID.String())
	if err != nil {
		return err
	}
	if err := s.payslips.CreateForRun(ctx, tx, run, comps); err != nil {
		return err
	}

	payload, err := json.Marshal(events.PayrollRunApprovedEvent{
		EventType:     "payroll.run.approved",
		PayrollRunID:  run.ID.String(),
		RunNumber:     run.RunNumber,
		EntityID:      run.EntityID.String(),
		Currency:      run.Currency,
		EmployeeCount: run.EmployeeCount,
		TotalNetPay:   run.TotalNetPay.StringFixed(2),
		ApprovedAt:    *run.ApprovedAt,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll_run",
		AggregateID:   run.ID.String(),
		EventType:     "payroll.run.approved",
		Topic:         events.PayrollRunApprovedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) MarkPaid(ctx context.Context, entityID, runID string, paidAt time.Time) (PayrollRunResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	run, err := qtx.FindByIDForUpdate(ctx, entityID, runID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	if run == nil {
		return PayrollRunResponse{}, payrollrunerrors.ErrRunNotFound
	}
	if err := ValidateTransition(run.Status, StatusPaid); err != nil {
		return PayrollRunResponse{}, err
	}

	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	run.Status = StatusPaid
	run.PaidAt = &paidAt
	if err := qtx.Update(ctx, run); err != nil {
		return PayrollRunResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PayrollRunResponse{}, err
	}

	s.logger.Info("payroll run marked paid",
		zap.String("payroll_run_id", runID),
		zap.Time("paid_at", paidAt),
	)
	return mapToResponse(run), nil
}

func (s *service) GetAll(ctx context.Context, entityID, status string, page, limit int) ([]PayrollRunResponse, int64, error) {
	if status != "" && !IsKnownStatus(status) {
		return nil, 0, payrollrunerrors.ErrInvalidStatusFilter
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	runs, total, err := s.repo.FindAll(ctx, entityID, status, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(runs), total, nil
}

func (s *service) GetByID(ctx context.Context, entityID, runID string) (PayrollRunResponse, error) {
	run, err := s.findRun(ctx, entityID, runID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	return mapToResponse(run), nil
}

func (s *service) GetComputations(ctx context.Context, entityID, runID string) ([]ComputationResponse, error) {
	if _, err := s.findRun(ctx, entityID, runID); err != nil {
		return nil, err
	}
	comps, err := s.repo.ListComputations(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]ComputationResponse, 0, len(comps))
	for i := range comps {
		resp, err := mapComputationToResponse(&comps[i])
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *service) CalculateProratedSalary(ctx context.Context, req ProrationRequest) (ProrationResponse, error) {
	base, err := decimal.NewFromString(req.BaseSalary)
	if err != nil || !base.IsPositive() {
		return ProrationResponse{}, apperror.New(
			apperror.CodeInvalidInput, "base_salary must be a positive number", http.StatusBadRequest)
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return ProrationResponse{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return ProrationResponse{}, err
	}
	periodEnd, err := parseDate(req.PayrollPeriodEnd)
	if err != nil {
		return ProrationResponse{}, err
	}

	result, err := s.prorator.Prorate(base, start, end, periodEnd)
	if err != nil {
		if errors.Is(err, proration.ErrInvalidDateRange) {
			return ProrationResponse{}, apperror.Wrap(err,
				apperror.CodeInvalidInput, "invalid proration date range", http.StatusBadRequest)
		}
		return ProrationResponse{}, err
	}
	return ProrationResponse{
		EmployeeID:     req.EmployeeID,
		ProratedSalary: result.Amount.StringFixed(2),
		Applied:        result.Applied,
		DaysWorked:     result.DaysWorked,
		DaysInMonth:    result.DaysInMonth,
	}, nil
}

func (s *service) findRun(ctx context.Context, entityID, runID string) (*PayrollRun, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, payrollrunerrors.ErrInvalidRunID
	}
	run, err := s.repo.FindByID(ctx, entityID, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, payrollrunerrors.ErrRunNotFound
	}
	return run, nil
}

// acquireGenerationLock takes the per (entity, period) generation guard. The
// caller must invoke the returned release func.
func (s *service) acquireGenerationLock(ctx context.Context, entityID string, period time.Time) (func(), error) {
	key := fmt.Sprintf("payroll:generation:%s:%s", entityID, period.Format("2006-01"))
	ok, err := s.rdb.SetNX(ctx, key, "1", generationLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, payrollrunerrors.ErrDuplicateRunInProgress
	}
	return func() {
		_ = s.rdb.Del(context.WithoutCancel(ctx), key).Err()
	}, nil
}

func parsePeriodEnd(v string) (time.Time, error) {
	period, err := parseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	// Periods are anchored to the last day of a month.
	if period.AddDate(0, 0, 1).Day() != 1 {
		return time.Time{}, payrollrunerrors.ErrInvalidPeriod
	}
	return period, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, payrollrunerrors.ErrInvalidPeriod
	}
	return t, nil
}
