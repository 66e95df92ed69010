package irregularity

import (
	"context"
	"fmt"
	"time"

	irregularityerrors "go-payroll/internal/irregularity/errors"
	"go-payroll/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSpikeThreshold flags a gross salary that grew by more than 50%
// against the employee's previous finalized run.
var DefaultSpikeThreshold = decimal.NewFromFloat(1.50)

//go:generate mockgen -source=irregularity_service.go -destination=mock/irregularity_service_mock.go -package=mock
type Service interface {
	// Detect scans a run's computations and upserts auto-flagged exceptions.
	// Detection is idempotent: re-running it refreshes existing unresolved
	// flags rather than duplicating them.
	Detect(ctx context.Context, entityID, runID string, period time.Time, views []ComputationView) ([]PayrollException, error)
	Flag(ctx context.Context, entityID, runID string, req *FlagExceptionRequest) (*ExceptionResponse, error)
	Resolve(ctx context.Context, entityID, exceptionID string, req *ResolveExceptionRequest) (*ExceptionResponse, error)
	GetByRun(ctx context.Context, entityID, runID string) ([]ExceptionResponse, error)
}

type service struct {
	repo      Repository
	source    ComputationSource
	threshold decimal.Decimal
	logger    *zap.Logger
}

func NewService(repo Repository, source ComputationSource, logger ...*zap.Logger) Service {
	return NewServiceWithThreshold(repo, source, DefaultSpikeThreshold, logger...)
}

// NewServiceWithThreshold overrides the spike ratio, for deployments that tune
// it via PAYROLL_SPIKE_THRESHOLD.
func NewServiceWithThreshold(repo Repository, source ComputationSource, threshold decimal.Decimal, logger ...*zap.Logger) Service {
	l := zap.L().Named("irregularity.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("irregularity.service")
	}
	if !threshold.IsPositive() {
		threshold = DefaultSpikeThreshold
	}
	return &service{
		repo:      repo,
		source:    source,
		threshold: threshold,
		logger:    l,
	}
}

func (s *service) Detect(ctx context.Context, entityID, runID string, period time.Time, views []ComputationView) ([]PayrollException, error) {
	entityUUID, err := uuid.Parse(entityID)
	if err != nil {
		return nil, irregularityerrors.ErrRunNotFound
	}
	runUUID, err := uuid.Parse(runID)
	if err != nil {
		return nil, irregularityerrors.ErrRunNotFound
	}

	if views == nil {
		var runPeriod time.Time
		views, runPeriod, err = s.source.ListComputationViews(ctx, entityID, runID)
		if err != nil {
			return nil, err
		}
		// The standalone detect endpoint only knows the run id. Without the
		// run's period the prior-gross lookup has no cutoff and spike
		// detection would silently skip every employee.
		if period.IsZero() {
			period = runPeriod
		}
	}

	now := time.Now().UTC()
	var flagged []PayrollException
	for _, v := range views {
		if v.Excluded {
			continue
		}
		for _, exc := range s.inspect(ctx, entityUUID, runUUID, period, v, now) {
			if err := s.repo.UpsertAuto(ctx, &exc); err != nil {
				return nil, err
			}
			metrics.ExceptionsFlagged.WithLabelValues(exc.Code).Inc()
			flagged = append(flagged, exc)
		}
	}

	s.refreshRunExceptionCount(ctx, runID)

	s.logger.Info("detection pass finished",
		zap.String("payroll_run_id", runID),
		zap.Int("computations", len(views)),
		zap.Int("flagged", len(flagged)),
	)
	return flagged, nil
}

// refreshRunExceptionCount recomputes the unresolved tally stored on the run.
// The tally is denormalized display data, so a failed refresh is logged
// rather than failing the operation that triggered it.
func (s *service) refreshRunExceptionCount(ctx context.Context, runID string) {
	count, err := s.repo.CountUnresolvedByRun(ctx, runID)
	if err == nil {
		err = s.source.UpdateExceptionCount(ctx, runID, int(count))
	}
	if err != nil {
		s.logger.Warn("exception count refresh failed",
			zap.String("payroll_run_id", runID), zap.Error(err))
	}
}

func (s *service) inspect(ctx context.Context, entityID, runID uuid.UUID, period time.Time, v ComputationView, now time.Time) []PayrollException {
	var out []PayrollException
	employeeID := v.EmployeeID

	add := func(code, message string) {
		out = append(out, PayrollException{
			ID:           uuid.New(),
			EntityID:     entityID,
			PayrollRunID: runID,
			EmployeeID:   &employeeID,
			Code:         code,
			Message:      message,
			Source:       SourceAuto,
			FlaggedAt:    now,
		})
	}

	if v.NetPay.IsNegative() {
		add(CodeNegativeNetPay,
			fmt.Sprintf("net pay is negative (%s)", v.NetPay.StringFixed(2)))
	}
	if !v.HasBankAccount {
		add(CodeMissingBankAccount, "employee has no bank account on file")
	}

	prior, err := s.source.PriorGrossSalary(ctx, entityID.String(), employeeID, period)
	if err != nil {
		// Spike detection is best effort: a lookup failure must not sink the
		// whole pass.
		s.logger.Warn("prior gross lookup failed",
			zap.String("employee_id", employeeID.String()), zap.Error(err))
		return out
	}
	// First-ever run for the employee: no baseline, no spike flag.
	if prior != nil && prior.IsPositive() &&
		v.GrossSalary.GreaterThan(prior.Mul(s.threshold)) {
		add(CodeSalarySpike,
			fmt.Sprintf("gross salary %s exceeds %s times previous gross %s",
				v.GrossSalary.StringFixed(2), s.threshold.String(), prior.StringFixed(2)))
	}
	return out
}

func (s *service) Flag(ctx context.Context, entityID, runID string, req *FlagExceptionRequest) (*ExceptionResponse, error) {
	entityUUID, err := uuid.Parse(entityID)
	if err != nil {
		return nil, irregularityerrors.ErrRunNotFound
	}
	runUUID, err := uuid.Parse(runID)
	if err != nil {
		return nil, irregularityerrors.ErrRunNotFound
	}
	if !isValidCode(req.Code) {
		return nil, irregularityerrors.ErrInvalidExceptionCode
	}

	exc := &PayrollException{
		ID:           uuid.New(),
		EntityID:     entityUUID,
		PayrollRunID: runUUID,
		Code:         req.Code,
		Message:      req.Message,
		Source:       SourceManual,
		FlaggedAt:    time.Now().UTC(),
	}
	if req.EmployeeID != nil {
		employeeUUID, err := uuid.Parse(*req.EmployeeID)
		if err != nil {
			return nil, irregularityerrors.ErrInvalidExceptionCode
		}
		exc.EmployeeID = &employeeUUID
	}

	if err := s.repo.Create(ctx, exc); err != nil {
		return nil, err
	}
	s.refreshRunExceptionCount(ctx, runID)
	metrics.ExceptionsFlagged.WithLabelValues(exc.Code).Inc()
	resp := mapToResponse(exc)
	return &resp, nil
}

func (s *service) Resolve(ctx context.Context, entityID, exceptionID string, req *ResolveExceptionRequest) (*ExceptionResponse, error) {
	if req.Resolution == "" {
		return nil, irregularityerrors.ErrResolutionRequired
	}
	exc, err := s.repo.FindByID(ctx, entityID, exceptionID)
	if err != nil {
		return nil, err
	}
	if exc == nil {
		return nil, irregularityerrors.ErrExceptionNotFound
	}
	if exc.Resolved {
		return nil, irregularityerrors.ErrExceptionAlreadyResolved
	}

	now := time.Now().UTC()
	exc.Resolved = true
	exc.Resolution = &req.Resolution
	exc.ResolvedAt = &now
	if req.ResolvedBy != "" {
		if resolverUUID, err := uuid.Parse(req.ResolvedBy); err == nil {
			exc.ResolvedBy = &resolverUUID
		}
	}
	if err := s.repo.Update(ctx, exc); err != nil {
		return nil, err
	}
	s.refreshRunExceptionCount(ctx, exc.PayrollRunID.String())

	s.logger.Info("exception resolved",
		zap.String("exception_id", exceptionID),
		zap.String("code", exc.Code),
	)
	resp := mapToResponse(exc)
	return &resp, nil
}

func (s *service) GetByRun(ctx context.Context, entityID, runID string) ([]ExceptionResponse, error) {
	excs, err := s.repo.FindByRun(ctx, entityID, runID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(excs), nil
}

func isValidCode(code string) bool {
	switch code {
	case CodeNegativeNetPay, CodeMissingBankAccount, CodeSalarySpike, CodeOther:
		return true
	}
	return false
}
