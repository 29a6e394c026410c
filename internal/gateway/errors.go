package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/saga"
)

// ValidationError rejects a request before any remote call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Category classifies what triggered a saga failure.
type Category int

const (
	CategoryUnknown Category = iota
	// CategoryInternal covers local logic and transport failures.
	CategoryInternal
	// CategoryAPI covers rejections by the CRUD service.
	CategoryAPI
)

func (c Category) String() string {
	switch c {
	case CategoryInternal:
		return "Exception due to internal logic or network"
	case CategoryAPI:
		return "Exception due to API communication error"
	default:
		return "Unknown error"
	}
}

// Classify maps the error that triggered a saga failure to its category.
func Classify(err error) Category {
	var clientErr *crud.ClientError
	if errors.As(err, &clientErr) {
		return CategoryInternal
	}
	var apiErr *crud.APIError
	if errors.As(err, &apiErr) {
		return CategoryAPI
	}
	return CategoryUnknown
}

// ServiceError is a failed saga: the error that triggered it together with
// the outcome of every compensation attempted.
type ServiceError struct {
	Action   string
	Category Category
	SagaID   string
	Err      error
	Log      *saga.UnwindLog
}

func (e *ServiceError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n%s failed: %v", e.Category, e.Action, e.Err)
	if e.Log.Len() > 0 {
		sb.WriteString("\n")
		sb.WriteString(e.Log.String())
	}
	return sb.String()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError unwraps a saga failure. Validation failures are returned
// as is since they never reach the remote service.
func newServiceError(action string, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}

	serviceErr := &ServiceError{Action: action, Err: err}
	var stepErr *saga.StepError
	if errors.As(err, &stepErr) {
		serviceErr.Err = stepErr.Err
		serviceErr.Log = stepErr.Log
		serviceErr.SagaID = stepErr.ID.String()
	}
	serviceErr.Category = Classify(serviceErr.Err)
	return serviceErr
}
