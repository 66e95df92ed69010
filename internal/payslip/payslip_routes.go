package payslip

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	payslips := r.Group("/employees/:employeeId/payslips")
	payslips.Use(middleware.AuthMiddleware())
	{
		payslips.GET("", middleware.RBACAuthorize(rbacService, "payslip", "read"), handler.GetByEmployee)
		payslips.GET("/:id", middleware.RBACAuthorize(rbacService, "payslip", "read"), handler.GetById)
		payslips.GET("/:id/download", middleware.RBACAuthorize(rbacService, "payslip", "read"), handler.Download)
		payslips.POST("/:id/dispute", middleware.RBACAuthorize(rbacService, "payslip", "read"), handler.FlagDispute)
	}
}
