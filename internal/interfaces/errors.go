package interfaces

import "errors"

// ErrConfigNotFound is returned when no report configuration has been stored
var ErrConfigNotFound = errors.New("report configuration not found")
