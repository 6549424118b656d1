package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/everkeep/lifecycle-management-api/internal/serviceerror"
)

// SendSuccessResponse sends a successful JSON response
func SendSuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, description string) {
	c.JSON(http.StatusBadRequest, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, description))
}

// SendUnauthorizedError sends a 401 Unauthorized error
func SendUnauthorizedError(c *gin.Context, description string) {
	c.JSON(http.StatusUnauthorized, &serviceerror.ServiceError{
		Code:             "LSE-4010",
		Type:             serviceerror.ClientErrorType,
		Error:            "unauthorized",
		ErrorDescription: description,
	})
}

// SendServiceError maps a service error onto its HTTP status
func SendServiceError(c *gin.Context, svcErr *serviceerror.ServiceError) {
	c.JSON(statusForCode(svcErr.Code), svcErr)
}

func statusForCode(code string) int {
	switch code {
	case serviceerror.InvalidRequestError.Code, serviceerror.ValidationError.Code:
		return http.StatusBadRequest
	case serviceerror.ForbiddenError.Code:
		return http.StatusForbidden
	case serviceerror.ResourceNotFoundError.Code:
		return http.StatusNotFound
	case serviceerror.InvalidStateTransitionError.Code, serviceerror.NoEligibleVotersError.Code:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetActorIDFromContext extracts the acting user's ID from context
func GetActorIDFromContext(c *gin.Context) string {
	actorID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	return actorID.(string)
}

// GetCorrelationIDFromContext extracts the correlation ID from context
func GetCorrelationIDFromContext(c *gin.Context) string {
	correlationID, exists := c.Get("correlationID")
	if !exists {
		return uuid.New().String()
	}
	return correlationID.(string)
}

// SetContextValue sets a value in the Gin context
func SetContextValue(c *gin.Context, key string, value interface{}) {
	c.Set(key, value)
}
