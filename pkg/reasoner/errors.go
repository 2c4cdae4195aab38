package reasoner

import "errors"

var (
	errAlreadyRunning  = errors.New("reasoner: engine already running")
	errCommitQueueFull = errors.New("reasoner: commit queue full")
)
