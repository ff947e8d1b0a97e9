package apperr

import "errors"

// Sentinels shared by services. Handlers match them with errors.Is and pick
// the HTTP status from them.
var (
	ErrNotFound             = errors.New("object not found")
	ErrValidation           = errors.New("validation error")
	ErrNotEnoughPermissions = errors.New("not enough permissions")
	ErrUnauthenticated      = errors.New("not authenticated")
)
