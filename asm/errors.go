package asm

import "errors"

// Common errors for program assembly.
var (
	ErrUnknownSymbol       = errors.New("unknown symbol")
	ErrDuplicateSymbol     = errors.New("symbol already defined")
	ErrMissingArgument     = errors.New("missing argument")
	ErrInvalidArgumentType = errors.New("invalid argument type")
	ErrJumpOutOfRange      = errors.New("jump out of range")
	ErrPortOutOfRange      = errors.New("port out of range")
	ErrShiftOutOfRange     = errors.New("shift out of range")
)
