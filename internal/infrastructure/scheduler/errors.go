package scheduler

import "errors"

var (
	// ErrScannerAlreadyRunning is returned when Start is called on a running scanner
	ErrScannerAlreadyRunning = errors.New("expiry scanner is already running")

	// ErrScannerNotRunning is returned when Stop is called on a stopped scanner
	ErrScannerNotRunning = errors.New("expiry scanner is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scanner configuration")
)
