package service

import (
	"errors"
	"fmt"

	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/serviceerror"
)

// stateError carries the current status across a transaction boundary so
// the caller can report a precise invalid-transition message
type stateError struct {
	current models.LifecycleStatus
	action  string
}

func (e *stateError) Error() string {
	return fmt.Sprintf("%s is not valid while the lifecycle status is %q", e.action, e.current)
}

var (
	errLifecycleNotFound = errors.New("no lifecycle record exists for this creator")
	errVoteRecordMissing = errors.New("the caller holds no vote record in this round")
)

// mapTransitionError converts transaction-internal errors into the typed
// service error surface
func mapTransitionError(err error) *serviceerror.ServiceError {
	var state *stateError
	if errors.As(err, &state) {
		return serviceerror.CustomServiceError(serviceerror.InvalidStateTransitionError, state.Error())
	}
	if errors.Is(err, errLifecycleNotFound) {
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, err.Error())
	}
	if errors.Is(err, errVoteRecordMissing) {
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, err.Error())
	}
	return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
}

// fallbackMetadata marks audit entries performed under the representative
// fallback rule
func fallbackMetadata(fallback bool) map[string]interface{} {
	if !fallback {
		return nil
	}
	return map[string]interface{}{"fallback": true}
}
