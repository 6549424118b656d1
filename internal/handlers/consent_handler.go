package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/service"
	"github.com/everkeep/lifecycle-management-api/internal/utils"
)

// ConsentHandler handles opening-consent HTTP requests
type ConsentHandler struct {
	consentService *service.OpeningConsentService
}

// NewConsentHandler creates a new consent handler instance
func NewConsentHandler(consentService *service.OpeningConsentService) *ConsentHandler {
	return &ConsentHandler{consentService: consentService}
}

// InitiateConsent handles POST /lifecycle/:creatorId/initiate-consent
func (h *ConsentHandler) InitiateConsent(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.consentService.InitiateConsent(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendCreatedResponse(c, response)
}

// SubmitConsent handles POST /lifecycle/:creatorId/consent
func (h *ConsentHandler) SubmitConsent(c *gin.Context) {
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

	response, svcErr := h.consentService.SubmitConsent(c.Request.Context(), creatorID, actorID, *request.Consented)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}

// GetConsentStatus handles GET /lifecycle/:creatorId/consent-status
func (h *ConsentHandler) GetConsentStatus(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.consentService.GetConsentStatus(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}

// ResetConsent handles POST /lifecycle/:creatorId/reset-consent
func (h *ConsentHandler) ResetConsent(c *gin.Context) {
	creatorID := c.Param("creatorId")
	actorID := utils.GetActorIDFromContext(c)
	if actorID == "" {
		utils.SendBadRequestError(c, "user-id header is required")
		return
	}

	response, svcErr := h.consentService.ResetConsent(c.Request.Context(), creatorID, actorID)
	if svcErr != nil {
		utils.SendServiceError(c, svcErr)
		return
	}

	utils.SendOKResponse(c, response)
}
