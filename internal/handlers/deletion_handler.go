package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/service"
	"github.com/everkeep/lifecycle-management-api/internal/utils"
)

// DeletionHandler handles deletion-consent HTTP requests
type DeletionHandler struct {
	deletionService *service.DeletionConsentService
}

// NewDeletionHandler creates a new deletion handler instance
func NewDeletionHandler(deletionService *service.DeletionConsentService) *DeletionHandler {
	return &DeletionHandler{deletionService: deletionService}
}

// InitiateDeletion handles POST /lifecycle/:creatorId/initiate-data-deletion
func (h *DeletionHandler) InitiateDeletion(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.deletionService.InitiateDeletion(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendCreatedResponse(c, response)
}

// SubmitDeletionConsent handles POST /lifecycle/:creatorId/deletion-consent
func (h *DeletionHandler) SubmitDeletionConsent(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	var request models.ConsentSubmitAPIRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body: "+err.Error())
		return
	}

	response, svcErr := h.deletionService.SubmitDeletionConsent(c.Request.Context(), creatorID, actorID, *request.Consented)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}

// CancelDeletion handles POST /lifecycle/:creatorId/cancel-data-deletion
func (h *DeletionHandler) CancelDeletion(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.deletionService.CancelDeletion(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}

// GetDeletionConsentStatus handles GET /lifecycle/:creatorId/deletion-consent-status
func (h *DeletionHandler) GetDeletionConsentStatus(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.deletionService.GetDeletionConsentStatus(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}
