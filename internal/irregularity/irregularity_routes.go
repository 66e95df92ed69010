package irregularity

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	runs := r.Group("/payroll-runs")
	runs.Use(middleware.AuthMiddleware())
	{
		runs.GET("/:id/exceptions", middleware.RBACAuthorize(rbacService, "exception", "read"), handler.GetByRun)
		runs.POST("/:id/exceptions/detect", middleware.RBACAuthorize(rbacService, "exception", "flag"), handler.Detect)
		runs.POST("/:id/exceptions", middleware.RBACAuthorize(rbacService, "exception", "flag"), handler.Flag)
		runs.PATCH("/:id/exceptions/:exceptionId/resolve", middleware.RBACAuthorize(rbacService, "exception", "resolve"), handler.Resolve)
	}
}
