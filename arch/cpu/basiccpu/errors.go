package basiccpu

import "errors"

// Common errors for the instruction set and CPU emulation.
var (
	ErrUnknownMnemonic   = errors.New("unknown mnemonic")
	ErrUnknownRegister   = errors.New("unknown register")
	ErrInstructionFault  = errors.New("instruction fault")
	ErrMemoryOutOfBounds = errors.New("memory access out of bounds")
)
