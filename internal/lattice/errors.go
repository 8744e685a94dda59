package lattice

import "errors"

// ErrInvalidParameter indicates a construction parameter outside its valid
// range. It is fatal: callers must fix their inputs.
var ErrInvalidParameter = errors.New("lattice: invalid parameter")
