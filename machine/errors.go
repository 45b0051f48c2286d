package machine

import "errors"

// Common errors for motherboard bootstrapping and port routing.
var (
	ErrNoCPUs             = errors.New("there are no CPUs to run on")
	ErrInsufficientMemory = errors.New("not enough available memory")
	ErrOutOfMemory        = errors.New("out of reservable memory")
	ErrPortTaken          = errors.New("port already taken")
	ErrInvalidPort        = errors.New("invalid port")
	ErrNoSuchPort         = errors.New("no such port")
	ErrAborted            = errors.New("boot aborted")
)
