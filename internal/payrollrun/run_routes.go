package payrollrun

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	runs := r.Group("/payroll-runs")
	runs.Use(middleware.AuthMiddleware())
	{
		runs.GET("", middleware.RBACAuthorize(rbacService, "payroll-run", "read"), handler.GetAll)
		runs.GET("/:id", middleware.RBACAuthorize(rbacService, "payroll-run", "read"), handler.GetById)
		runs.GET("/:id/computations", middleware.RBACAuthorize(rbacService, "payroll-run", "read"), handler.GetComputations)
		if redisClient != nil {
			runs.POST(
				"",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "payroll-run", "generate"),
				handler.Generate,
			)
		} else {
			runs.POST("", middleware.RBACAuthorize(rbacService, "payroll-run", "generate"), handler.Generate)
		}
		runs.POST("/:id/regenerate", middleware.RBACAuthorize(rbacService, "payroll-run", "generate"), handler.Regenerate)
		runs.POST("/:id/review-initiation", middleware.RBACAuthorize(rbacService, "payroll-run", "review"), handler.ReviewInitiation)
		runs.POST("/:id/send-for-approval", middleware.RBACAuthorize(rbacService, "payroll-run", "review"), handler.SendForApproval)
		runs.POST("/:id/decisions", middleware.RBACAuthorize(rbacService, "payroll-run", "approve"), handler.RecordDecision)
		runs.POST("/:id/mark-paid", middleware.RBACAuthorize(rbacService, "payroll-run", "pay"), handler.MarkAsPaid)
	}

	proration := r.Group("/proration")
	proration.Use(middleware.AuthMiddleware())
	{
		proration.POST("/calculate", middleware.RBACAuthorize(rbacService, "payroll-run", "read"), handler.CalculateProration)
	}
}
