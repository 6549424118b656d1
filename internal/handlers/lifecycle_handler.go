package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/everkeep/lifecycle-management-api/internal/service"
	"github.com/everkeep/lifecycle-management-api/internal/utils"
)

// LifecycleHandler handles lifecycle-related HTTP requests
type LifecycleHandler struct {
	lifecycleService *service.LifecycleService
}

// NewLifecycleHandler creates a new lifecycle handler instance
func NewLifecycleHandler(lifecycleService *service.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{lifecycleService: lifecycleService}
}

// GetLifecycle handles GET /lifecycle/:creatorId
func (h *LifecycleHandler) GetLifecycle(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.lifecycleService.GetLifecycle(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}

// ReportDeath handles POST /lifecycle/:creatorId/report-death
func (h *LifecycleHandler) ReportDeath(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.lifecycleService.ReportDeath(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	if response.AlreadyReported {
		utils.SendOKResponse(c, response)
		return
	}
	utils.SendCreatedResponse(c, response)
}

// CancelDeathReport handles POST /lifecycle/:creatorId/cancel-death-report
func (h *LifecycleHandler) CancelDeathReport(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.lifecycleService.CancelDeathReport(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}

// GetAuditTrail handles GET /lifecycle/:creatorId/audit-log
func (h *LifecycleHandler) GetAuditTrail(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	entries, svcErr := h.lifecycleService.GetAuditTrail(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, gin.H{"creatorId": creatorID, "entries": entries})
}
