package gate

import "errors"

// ErrUnauthorized is returned by Gate.Authorize for unknown, disabled or
// insufficiently privileged users.
var ErrUnauthorized = errors.New("unauthorized")
