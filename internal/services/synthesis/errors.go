package synthesis

import "errors"

// ErrEmptyInput is returned when Synthesize is called with zero reports.
// There is no meaningful recommendation with zero opinions, so this is a hard
// failure rather than a default output. Not retryable.
var ErrEmptyInput = errors.New("synthesis: no analyst reports")
