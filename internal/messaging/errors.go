package messaging

import (
	"errors"

	"github.com/amishk599/jobber/internal/model"
)

// ErrorResponse renders err as an unsuccessful response, tagging the kind so
// the popup can pick a sign-in prompt or a retry button.
func ErrorResponse(err error) Response {
	return Response{Success: false, Error: err.Error(), Kind: Kind(err)}
}

// Kind names the category of err.
func Kind(err error) string {
	var te *model.TransportError
	switch {
	case model.IsAuthRequired(err):
		return "auth_required"
	case model.IsValidation(err):
		return "validation"
	case errors.As(err, &te):
		return "transport"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}
