package jobs

import "errors"

// ErrRunInProgress is returned when a scheduled job is triggered while it is still running
var ErrRunInProgress = errors.New("job run already in progress")

var errPanic = errors.New("job panicked")
