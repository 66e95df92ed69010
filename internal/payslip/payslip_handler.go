package payslip

import (
	"fmt"
	"net/http"

	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) GetByEmployee(c *gin.Context) {
	entityID := c.GetString("entity_id")
	employeeID := c.Param("employeeId")

	resp, err := h.service.GetByEmployee(c.Request.Context(), entityID, employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	entityID := c.GetString("entity_id")
	employeeID := c.Param("employeeId")
	payslipID := c.Param("id")

	resp, err := h.service.GetByID(c.Request.Context(), entityID, employeeID, payslipID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Download(c *gin.Context) {
	entityID := c.GetString("entity_id")
	employeeID := c.Param("employeeId")
	payslipID := c.Param("id")

	pdf, err := h.service.RenderPDF(c.Request.Context(), entityID, employeeID, payslipID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s.pdf", payslipID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) FlagDispute(c *gin.Context) {
	entityID := c.GetString("entity_id")
	employeeID := c.Param("employeeId")
	payslipID := c.Param("id")

	var req DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.FlagDispute(c.Request.Context(), entityID, employeeID, payslipID, &req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
