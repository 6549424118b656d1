package serviceerror

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

// ServiceError is the typed error surface of the service layer. Handlers map
// these onto HTTP statuses; side-effect failures never become ServiceErrors.
type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             "LSE-5000",
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	DatabaseError = ServiceError{
		Type:             ServerErrorType,
		Code:             "LSE-5001",
		Error:            "database_error",
		ErrorDescription: "A database error occurred",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             "LSE-4000",
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}

	ValidationError = ServiceError{
		Type:             ClientErrorType,
		Code:             "LSE-4001",
		Error:            "validation_error",
		ErrorDescription: "Validation failed",
	}

	ForbiddenError = ServiceError{
		Type:             ClientErrorType,
		Code:             "LSE-4030",
		Error:            "forbidden",
		ErrorDescription: "The caller is not permitted to perform this action",
	}

	ResourceNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             "LSE-4040",
		Error:            "resource_not_found",
		ErrorDescription: "Resource not found",
	}

	InvalidStateTransitionError = ServiceError{
		Type:             ClientErrorType,
		Code:             "LSE-4090",
		Error:            "invalid_state_transition",
		ErrorDescription: "The action is not valid for the current lifecycle state",
	}

	NoEligibleVotersError = ServiceError{
		Type:             ClientErrorType,
		Code:             "LSE-4091",
		Error:            "no_eligible_voters",
		ErrorDescription: "A consent round cannot start with zero active family members",
	}
)

// CustomServiceError clones a base error with a specific description
func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}
