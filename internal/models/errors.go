// ABOUTME: Sentinel error for field validation failures
// ABOUTME: Callers match it with errors.Is to report bad input rather than a fault
package models

import "errors"

// ErrInvalid marks a value rejected by validation
var ErrInvalid = errors.New("invalid input")
