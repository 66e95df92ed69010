package proration

import (
	"net/http"
	"time"

	"go-payroll/internal/shared/apperror"

	"github.com/shopspring/decimal"
)

var ErrInvalidDateRange = apperror.New(
	apperror.CodeInvalidInput,
	"invalid proration date range",
	http.StatusBadRequest,
)

// Config makes the payroll day conventions explicit instead of burying them
// as constants. DaysPerMonth is the fixed divisor for daily-rate penalties
// and unpaid leave; proration itself always uses the calendar month length.
type Config struct {
	DaysPerMonth       int
	StandardDailyHours int
}

func DefaultConfig() Config {
	return Config{
		DaysPerMonth:       30,
		StandardDailyHours: 8,
	}
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	if cfg.DaysPerMonth <= 0 {
		cfg.DaysPerMonth = 30
	}
	if cfg.StandardDailyHours <= 0 {
		cfg.StandardDailyHours = 8
	}
	return &Calculator{cfg: cfg}
}

// Result carries the prorated amount and whether proration actually applied.
// Applied is false when the employment spans the whole period, in which case
// Amount equals the base salary verbatim.
type Result struct {
	Amount      decimal.Decimal
	Applied     bool
	DaysWorked  int
	DaysInMonth int
}

// Prorate computes partial-period pay for an employment window inside the
// payroll month. startDate/endDate are the inclusive employment bounds;
// periodEnd is the closing date of the payroll period. The divisor is always
// the length of the calendar month containing periodEnd.
//
// proratedSalary = (baseSalary / daysInMonth) * daysWorked, rounded half-up
// to two decimal places.
func (c *Calculator) Prorate(baseSalary decimal.Decimal, startDate, endDate, periodEnd time.Time) (Result, error) {
	startDate = truncateToDay(startDate)
	endDate = truncateToDay(endDate)
	periodEnd = truncateToDay(periodEnd)

	if startDate.After(endDate) {
		return Result{}, ErrInvalidDateRange
	}
	if endDate.After(periodEnd) {
		return Result{}, ErrInvalidDateRange
	}

	periodStart := time.Date(periodEnd.Year(), periodEnd.Month(), 1, 0, 0, 0, 0, periodEnd.Location())
	// Day 0 of the next month normalizes to the last day of this one, so the
	// divisor stays the calendar month length even when periodEnd is not a
	// month-end date.
	daysInMonth := time.Date(periodEnd.Year(), periodEnd.Month()+1, 0, 0, 0, 0, 0, periodEnd.Location()).Day()

	workStart := startDate
	if periodStart.After(workStart) {
		workStart = periodStart
	}
	workEnd := endDate

	if workStart.After(workEnd) {
		return Result{Amount: decimal.Zero, Applied: true, DaysWorked: 0, DaysInMonth: daysInMonth}, nil
	}

	daysWorked := inclusiveDays(workStart, workEnd)

	if daysWorked >= daysInMonth {
		// Full coverage: no proration, the base salary passes through
		// untouched so the manual and automatic paths stay byte-identical.
		return Result{Amount: baseSalary, Applied: false, DaysWorked: daysWorked, DaysInMonth: daysInMonth}, nil
	}

	amount := baseSalary.
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Mul(decimal.NewFromInt(int64(daysWorked))).
		Round(2) // decimal.Round is half away from zero: round-half-up for pay

	return Result{Amount: amount, Applied: true, DaysWorked: daysWorked, DaysInMonth: daysInMonth}, nil
}

// DailyRate returns baseSalary / DaysPerMonth (fixed-day convention), rounded
// half-up to two decimals.
func (c *Calculator) DailyRate(baseSalary decimal.Decimal) decimal.Decimal {
	return baseSalary.Div(decimal.NewFromInt(int64(c.cfg.DaysPerMonth))).Round(2)
}

// HourlyRate returns DailyRate / StandardDailyHours, rounded half-up to two
// decimals.
func (c *Calculator) HourlyRate(baseSalary decimal.Decimal) decimal.Decimal {
	return c.DailyRate(baseSalary).
		Div(decimal.NewFromInt(int64(c.cfg.StandardDailyHours))).
		Round(2)
}

func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
