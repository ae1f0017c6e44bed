package ta

import "errors"

var (
	// ErrInsufficientHistory means the series is shorter than the window an
	// indicator (or the forecaster) needs. Expected and non-fatal: callers
	// mark the feature unavailable instead of aborting.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrDegenerateSeries means a ratio computation hit a zero denominator
	// (zero-variance or zero-mean input).
	ErrDegenerateSeries = errors.New("degenerate series")

	// ErrNoSwingDetected means the series is monotonic over the lookback, so
	// there is no local high/low swing to anchor Fibonacci levels on.
	ErrNoSwingDetected = errors.New("no swing detected")
)
