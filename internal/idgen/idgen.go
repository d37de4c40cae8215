package idgen

import "github.com/google/uuid"

// NewFunc mints event and correlation identifiers; tests replace it with a
// counter to get stable ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns the next identifier from NewFunc.
func New() string { return NewFunc() }
