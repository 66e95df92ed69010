package irregularity

import (
	"net/http"
	"time"

	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/contextutil"
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

func (h *Handler) GetByRun(c *gin.Context) {
	entityID := c.GetString("entity_id")
	runID := c.Param("id")

	resp, err := h.service.GetByRun(c.Request.Context(), entityID, runID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Detect(c *gin.Context) {
	entityID := c.GetString("entity_id")
	runID := c.Param("id")

	flagged, err := h.service.Detect(c.Request.Context(), entityID, runID, time.Time{}, nil)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapToListResponse(flagged), nil)
}

func (h *Handler) Flag(c *gin.Context) {
	entityID := c.GetString("entity_id")
	runID := c.Param("id")

	var req FlagExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Flag(c.Request.Context(), entityID, runID, &req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Resolve(c *gin.Context) {
	entityID := c.GetString("entity_id")
	exceptionID := c.Param("exceptionId")

	var req ResolveExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}
	req.ResolvedBy = contextutil.GetActorID(c.Request.Context())

	resp, err := h.service.Resolve(c.Request.Context(), entityID, exceptionID, &req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
