package app

import (
	"database/sql"
	"os"
	"path/filepath"
	"strconv"

	"go-payroll/internal/approval"
	"go-payroll/internal/attendance"
	"go-payroll/internal/auth"
	"go-payroll/internal/deduction"
	"go-payroll/internal/employee"
	"go-payroll/internal/irregularity"
	"go-payroll/internal/leave"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/payrollconfig"
	"go-payroll/internal/payrollrun"
	"go-payroll/internal/payslip"
	"go-payroll/internal/proration"
	"go-payroll/internal/rbac"
	"go-payroll/internal/rbac/infra"
	"go-payroll/internal/shared/counter"
	"go-payroll/internal/shared/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// modules holds the service layer shared by the API server and the
// background consumers.
type modules struct {
	rbacService      rbac.Service
	authService      auth.Service
	runService       payrollrun.Service
	exceptionService irregularity.Service
	payslipService   payslip.Service
}

func buildModules(db *sql.DB, gormDB *gorm.DB, rdb *redis.Client) (*modules, error) {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	configRepo := payrollconfig.NewRepository(gormDB)
	runRepo := payrollrun.NewRepository(gormDB)
	exceptionRepo := irregularity.NewRepository(gormDB)
	payslipRepo := payslip.NewRepository(gormDB)
	approvalRepo := approval.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return nil, err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Computation Core ---
	prorator := proration.NewCalculator(proration.DefaultConfig())
	deductions := deduction.NewAssembler(prorator)
	configService := payrollconfig.NewService(configRepo)
	workers, _ := strconv.Atoi(os.Getenv("PAYROLL_WORKERS"))
	engine := payrollrun.NewEngineWithWorkers(configService, employeeRepo, leaveRepo, attendanceRepo, prorator, deductions, workers)

	// --- Services ---
	authService := auth.NewService(authRepo)
	spikeThreshold := irregularity.DefaultSpikeThreshold
	if raw := os.Getenv("PAYROLL_SPIKE_THRESHOLD"); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil {
			spikeThreshold = parsed
		}
	}
	exceptionService := irregularity.NewServiceWithThreshold(exceptionRepo, runRepo, spikeThreshold)
	payslipService := payslip.NewService(payslipRepo)
	payslipAssembler := payslip.NewAssembler(payslipRepo)
	runService := payrollrun.NewService(
		db,
		runRepo,
		engine,
		approvalRepo,
		exceptionService,
		counterRepo,
		payslipAssembler,
		outboxRepo,
		rdb,
		prorator,
	)

	return &modules{
		rbacService:      rbacService,
		authService:      authService,
		runService:       runService,
		exceptionService: exceptionService,
		payslipService:   payslipService,
	}, nil
}

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	mods, err := buildModules(db, gormDB, rdb)
	if err != nil {
		return err
	}

	// --- Handlers ---
	authHandler := auth.NewHandler(mods.authService)
	runHandler := payrollrun.NewHandlerWithRedis(mods.runService, rdb)
	exceptionHandler := irregularity.NewHandler(mods.exceptionService)
	payslipHandler := payslip.NewHandler(mods.payslipService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		payrollrun.RegisterRoutes(api, runHandler, mods.rbacService, rdb)
		irregularity.RegisterRoutes(api, exceptionHandler, mods.rbacService)
		payslip.RegisterRoutes(api, payslipHandler, mods.rbacService)
	}

	router.GET("/metrics", metrics.Handler())

	return nil
}
