package punch

import "errors"

var (
	ErrAlreadyPunchedIn       = errors.New("you have already punched in today")
	ErrAlreadyPunchedOut      = errors.New("you have already punched out today")
	ErrNotPunchedIn           = errors.New("you must punch in first")
	ErrBreakNotFound          = errors.New("break not found")
	ErrBreakAlreadyEnded      = errors.New("break has already ended")
	ErrConcurrentModification = errors.New("punch record was modified concurrently, please retry")
	ErrInvalidBreak           = errors.New("invalid break interval")
)
