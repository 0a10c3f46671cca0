package mocks

import "errors"

// ErrMockFailure is a generic failure tests can inject through xxxFn overrides.
var ErrMockFailure = errors.New("mock failure")
