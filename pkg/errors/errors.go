package errors

import (
	"net/http"

	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

// ApplicationError carries the HTTP status code and application status code
// alongside the message, so handlers can build a response without switching
// on error values.
type ApplicationError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func New(httpStatusCode int, applicationStatus string, message string) error {
	return &ApplicationError{
		HTTPStatusCode: httpStatusCode,
		Status:         applicationStatus,
		Message:        message,
	}
}

// Destruct unpacks any error into an ApplicationError. Errors that are not
// ApplicationError are treated as internal server errors.
func Destruct(err error) *ApplicationError {
	if ae, ok := err.(*ApplicationError); ok {
		return ae
	}

	return &ApplicationError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}
