package chat

import "errors"

// Error taxonomy shared by the socket and REST paths. Handlers map these to
// status codes; the socket layer maps them to a chat:error event sent to the
// originating connection only.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrTransientStore  = errors.New("transient store error")
)
